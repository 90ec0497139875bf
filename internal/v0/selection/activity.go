package selection

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"
)

const (
	// ActivityBufferSize is how many events may wait for the writer
	ActivityBufferSize = 1000

	// ActivityFlushInterval is how often buffered events are written
	ActivityFlushInterval = 2 * time.Second

	// ActivityBatchSize triggers an early flush
	ActivityBatchSize = 100

	// ActivityCleanupInterval is how often old events are pruned
	ActivityCleanupInterval = time.Hour
)

// Action names an accepted change to a selection document
type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
	ActionPurged  Action = "purged"
	ActionCleared Action = "cleared"
)

// Event is one row of a student's selection history
type Event struct {
	ID        int64     `json:"id"`
	StudentID string    `json:"studentId"`
	PeriodID  int64     `json:"periodId"`
	Action    Action    `json:"action"`
	MealID    string    `json:"mealId,omitempty"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityRecorder writes events in batches off the request path
type ActivityRecorder struct {
	db        *sql.DB
	retention time.Duration
	buffer    chan Event
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewActivityRecorder creates a recorder. Events older than retention are
// pruned; retention <= 0 keeps them forever.
func NewActivityRecorder(db *sql.DB, retention time.Duration) *ActivityRecorder {
	return &ActivityRecorder{
		db:        db,
		retention: retention,
		buffer:    make(chan Event, ActivityBufferSize),
		stopCh:    make(chan struct{}),
	}
}

// Record queues an event without blocking; a full buffer drops it
func (a *ActivityRecorder) Record(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	select {
	case a.buffer <- ev:
	default:
		log.Printf("selection: activity buffer full, dropped %s event for %s", ev.Action, ev.StudentID)
	}
}

// Start begins the writer and cleanup goroutines
func (a *ActivityRecorder) Start(ctx context.Context) {
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.writer(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.cleanupLoop(ctx)
	}()
}

// Stop flushes queued events and waits for the goroutines to exit
func (a *ActivityRecorder) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
	a.wg.Wait()
}

func (a *ActivityRecorder) writer(ctx context.Context) {
	ticker := time.NewTicker(ActivityFlushInterval)
	defer ticker.Stop()

	var batch []Event
	for {
		select {
		case <-ctx.Done():
			a.drain(batch)
			return
		case <-a.stopCh:
			a.drain(batch)
			return
		case ev := <-a.buffer:
			batch = append(batch, ev)
			if len(batch) >= ActivityBatchSize {
				a.flush(batch)
				batch = nil
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = nil
			}
		}
	}
}

// drain writes batch plus everything still queued
func (a *ActivityRecorder) drain(batch []Event) {
	for {
		select {
		case ev := <-a.buffer:
			batch = append(batch, ev)
		default:
			a.flush(batch)
			return
		}
	}
}

func (a *ActivityRecorder) flush(batch []Event) {
	if len(batch) == 0 {
		return
	}
	// detached from ctx so the final flush still runs on shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("selection: activity flush: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO selection_events (student_id, period_id, action, meal_id, count, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		log.Printf("selection: activity flush: %v", err)
		return
	}
	defer stmt.Close()

	for _, ev := range batch {
		if _, err := stmt.ExecContext(ctx, ev.StudentID, ev.PeriodID, ev.Action, ev.MealID, ev.Count, ev.Timestamp); err != nil {
			log.Printf("selection: activity flush: %v", err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("selection: activity flush: %v", err)
	}
}

func (a *ActivityRecorder) cleanupLoop(ctx context.Context) {
	if a.retention <= 0 {
		return
	}
	ticker := time.NewTicker(ActivityCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopCh:
			return
		case <-ticker.C:
			if _, err := a.Prune(ctx, time.Now().UTC().Add(-a.retention)); err != nil {
				log.Printf("selection: activity cleanup: %v", err)
			}
		}
	}
}

// Prune deletes events recorded before cutoff
func (a *ActivityRecorder) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := a.db.ExecContext(ctx, "DELETE FROM selection_events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// List returns a student's most recent events, newest first
func (a *ActivityRecorder) List(ctx context.Context, studentID string, limit int) ([]Event, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, student_id, period_id, action, meal_id, count, timestamp
		FROM selection_events
		WHERE student_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.StudentID, &ev.PeriodID, &ev.Action, &ev.MealID, &ev.Count, &ev.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
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
