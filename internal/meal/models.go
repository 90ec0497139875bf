package meal

import (
	"fmt"
	"sort"
	"time"
)

// Category is a meal slot of the day
type Category string

const (
	CategoryBreakfast Category = "breakfast"
	CategoryLunch     Category = "lunch"
	CategorySnacks    Category = "snacks"
	CategoryDinner    Category = "dinner"
)

// Categories lists every meal slot in serving order
var Categories = []Category{CategoryBreakfast, CategoryLunch, CategorySnacks, CategoryDinner}

// MessType is the dietary line an item belongs to
type MessType string

const (
	MessVeg     MessType = "veg"
	MessNonVeg  MessType = "non-veg"
	MessSpecial MessType = "special"
)

// MessTypes lists every mess type
var MessTypes = []MessType{MessVeg, MessNonVeg, MessSpecial}

// ParseCategory validates a category string
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown meal category %q", s)
}

// ParseMessType validates a mess type string
func ParseMessType(s string) (MessType, error) {
	for _, m := range MessTypes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mess type %q", s)
}

// Item is a purchasable meal option as far as the quota rules care.
// The catalog carries the full record; this is the classification only.
type Item struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Subcategory string   `json:"subcategory"`
	MessType    MessType `json:"messType"`
}

// Selection is one chosen item. Category, subcategory and mess type are
// copied from the item when it is selected so counting never needs the catalog.
type Selection struct {
	MealID      string    `json:"mealId"`
	Category    Category  `json:"category"`
	Subcategory string    `json:"subcategory"`
	MessType    MessType  `json:"messType"`
	SelectedAt  time.Time `json:"selectedAt"`
}

// SelectionSet is everything one student picked for the active period
type SelectionSet struct {
	MessType   MessType             `json:"messType"`
	Selections map[string]Selection `json:"selections"`
}

// NewSelectionSet returns an empty set whose nominal mess type is the
// student's preference
func NewSelectionSet(pref MessType) SelectionSet {
	return SelectionSet{
		MessType:   pref,
		Selections: map[string]Selection{},
	}
}

// Clone returns a deep copy so callers can keep the original snapshot
func (s SelectionSet) Clone() SelectionSet {
	out := SelectionSet{
		MessType:   s.MessType,
		Selections: make(map[string]Selection, len(s.Selections)),
	}
	for id, sel := range s.Selections {
		out.Selections[id] = sel
	}
	return out
}

// Len returns the number of selections
func (s SelectionSet) Len() int {
	return len(s.Selections)
}

// Has reports whether mealID is selected
func (s SelectionSet) Has(mealID string) bool {
	_, ok := s.Selections[mealID]
	return ok
}

// Sorted returns the selections ordered by selection time, then meal ID
func (s SelectionSet) Sorted() []Selection {
	out := make([]Selection, 0, len(s.Selections))
	for _, sel := range s.Selections {
		out = append(out, sel)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SelectedAt.Equal(out[j].SelectedAt) {
			return out[i].MealID < out[j].MealID
		}
		return out[i].SelectedAt.Before(out[j].SelectedAt)
	})
	return out
}

func (s SelectionSet) countMessType(m MessType) int {
	n := 0
	for _, sel := range s.Selections {
		if sel.MessType == m {
			n++
		}
	}
	return n
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
