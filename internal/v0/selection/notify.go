package selection

import "sync"

// Hub fans saved documents out to the student's open streams. Slow
// subscribers only ever see the latest document.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan *Document]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[chan *Document]struct{}{}}
}

// Subscribe returns a channel of the student's saved documents and a
// function that releases it
func (h *Hub) Subscribe(studentID string) (<-chan *Document, func()) {
	ch := make(chan *Document, 1)
	h.mu.Lock()
	if h.subs[studentID] == nil {
		h.subs[studentID] = map[chan *Document]struct{}{}
	}
	h.subs[studentID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[studentID], ch)
			if len(h.subs[studentID]) == 0 {
				delete(h.subs, studentID)
			}
			h.mu.Unlock()
		})
	}
}

// Publish delivers doc to every subscriber of its student
func (h *Hub) Publish(doc *Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[doc.StudentID] {
		select {
		case ch <- doc:
		default:
			// replace the stale pending document
			select {
			case <-ch:
			default:
			}
			ch <- doc
		}
	}
}

// Subscribers reports how many streams the student has open
func (h *Hub) Subscribers(studentID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[studentID])
}

/*
This project is the backend API for the campus mess meal-selection service. Students pick their meals for each selection period within the mess quotas, and admins manage the catalog, periods and accounts.
MessAPI Copyright (C) 2025 OpenSourceDUTH
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
