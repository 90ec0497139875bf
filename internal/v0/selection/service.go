package selection

import (
	"context"
	"errors"
	"sync"
	"time"

	"MessAPI/internal/meal"
	"MessAPI/internal/v0/period"
)

// ErrUnknownMeal is returned when the catalog has no item with the ID
var ErrUnknownMeal = errors.New("meal item not found")

// Store loads and saves selection documents
type Store interface {
	Load(ctx context.Context, studentID string, periodID int64) (*Document, error)
	Save(ctx context.Context, doc *Document, expectedVersion int64) error
}

// Catalog resolves meal IDs to their quota classification
type Catalog interface {
	Lookup(ctx context.Context, mealID string) (*meal.Item, error)
}

// Periods resolves the selection period open on a date
type Periods interface {
	Current(ctx context.Context, date time.Time) (*period.Period, error)
}

// Preferences returns the mess type a fresh document starts with
type Preferences interface {
	MessPreference(ctx context.Context, studentID string) (meal.MessType, error)
}

// Recorder receives accepted changes
type Recorder interface {
	Record(ev Event)
}

// View is what a student sees: their document plus quota counters
type View struct {
	Period   *period.Period     `json:"period,omitempty"`
	Document *Document          `json:"document"`
	Usage    []meal.LimitStatus `json:"usage"`
}

// AddOutcome describes an accepted add
type AddOutcome struct {
	Document    *Document      `json:"document"`
	Added       meal.Selection `json:"added"`
	PurgedCount int            `json:"purgedCount"`
}

// Service runs selection changes through the evaluator and persists them.
// Changes for one student are serialized within this process.
type Service struct {
	evaluator *meal.Evaluator
	store     Store
	catalog   Catalog
	periods   Periods
	prefs     Preferences
	activity  Recorder
	hub       *Hub
	strict    bool
	now       func() time.Time

	locksMu sync.Mutex
	locks   map[string]*studentLock
}

type studentLock struct {
	mu   sync.Mutex
	refs int
}

// NewService wires the selection service. activity and hub may be nil.
// With strict set, saves fail with ErrVersionConflict instead of
// overwriting a document another writer changed.
func NewService(evaluator *meal.Evaluator, store Store, catalog Catalog, periods Periods, prefs Preferences, activity Recorder, hub *Hub, strict bool) *Service {
	return &Service{
		evaluator: evaluator,
		store:     store,
		catalog:   catalog,
		periods:   periods,
		prefs:     prefs,
		activity:  activity,
		hub:       hub,
		strict:    strict,
		now:       func() time.Time { return time.Now().UTC() },
		locks:     map[string]*studentLock{},
	}
}

// Quotas returns the table in force
func (s *Service) Quotas() meal.QuotaTable {
	return s.evaluator.Quotas()
}

func (s *Service) lock(studentID string) func() {
	s.locksMu.Lock()
	l := s.locks[studentID]
	if l == nil {
		l = &studentLock{}
		s.locks[studentID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, studentID)
		}
		s.locksMu.Unlock()
	}
}

// current returns the open period and the student's document for it; an
// unsaved document starts empty with the student's preference
func (s *Service) current(ctx context.Context, studentID string) (*period.Period, *Document, error) {
	p, err := s.periods.Current(ctx, s.now())
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.store.Load(ctx, studentID, p.ID)
	if err != nil {
		return nil, nil, err
	}
	if doc == nil {
		pref, err := s.prefs.MessPreference(ctx, studentID)
		if err != nil {
			return nil, nil, err
		}
		doc = newDocument(studentID, p.ID, pref)
	}
	return p, doc, nil
}

func (s *Service) expectedVersion(doc *Document) int64 {
	if s.strict {
		return doc.Version
	}
	return AnyVersion
}

// save persists next, which must be a fresh copy of loaded
func (s *Service) save(ctx context.Context, loaded, next *Document) error {
	if err := s.store.Save(ctx, next, s.expectedVersion(loaded)); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.Publish(next)
	}
	return nil
}

func (s *Service) record(doc *Document, action Action, mealID string, count int) {
	if s.activity == nil || count == 0 {
		return
	}
	s.activity.Record(Event{
		StudentID: doc.StudentID,
		PeriodID:  doc.PeriodID,
		Action:    action,
		MealID:    mealID,
		Count:     count,
		Timestamp: doc.UpdatedAt,
	})
}

// View returns the student's current selections and usage counters
func (s *Service) View(ctx context.Context, studentID string) (*View, error) {
	p, doc, err := s.current(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &View{Period: p, Document: doc, Usage: s.evaluator.Usage(doc.SelectionSet)}, nil
}

// Usage returns the quota counters for set
func (s *Service) Usage(set meal.SelectionSet) []meal.LimitStatus {
	return s.evaluator.Usage(set)
}

// CheckLimit reports the counter for one quota row against the student's
// current selections
func (s *Service) CheckLimit(ctx context.Context, studentID string, category meal.Category, messType meal.MessType, subcategory string) (meal.LimitStatus, error) {
	_, doc, err := s.current(ctx, studentID)
	if err != nil {
		return meal.LimitStatus{}, err
	}
	return s.evaluator.CheckLimit(doc.SelectionSet, category, messType, subcategory), nil
}

// Add selects mealID for the student. Expected refusals come back as a
// *meal.Rejection; nothing is saved in that case.
func (s *Service) Add(ctx context.Context, studentID, mealID string) (*AddOutcome, error) {
	unlock := s.lock(studentID)
	defer unlock()

	_, doc, err := s.current(ctx, studentID)
	if err != nil {
		return nil, err
	}
	item, err := s.catalog.Lookup(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrUnknownMeal
	}

	now := s.now()
	res, err := s.evaluator.AddSelection(doc.SelectionSet, *item, now)
	if err != nil {
		return nil, err
	}

	next := doc.withSet(res.Set, now)
	if err := s.save(ctx, doc, next); err != nil {
		return nil, err
	}
	s.record(next, ActionPurged, "", res.PurgedCount)
	s.record(next, ActionAdded, item.ID, 1)
	return &AddOutcome{Document: next, Added: res.Added, PurgedCount: res.PurgedCount}, nil
}

// Remove deselects mealID. Removing an absent meal saves nothing and
// reports false.
func (s *Service) Remove(ctx context.Context, studentID, mealID string) (*Document, bool, error) {
	unlock := s.lock(studentID)
	defer unlock()

	_, doc, err := s.current(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	set, removed := s.evaluator.RemoveSelection(doc.SelectionSet, mealID)
	if !removed {
		return doc, false, nil
	}

	next := doc.withSet(set, s.now())
	if err := s.save(ctx, doc, next); err != nil {
		return nil, false, err
	}
	s.record(next, ActionRemoved, mealID, 1)
	return next, true, nil
}

// Clear empties the student's selections and reports how many were removed
func (s *Service) Clear(ctx context.Context, studentID string) (*Document, int, error) {
	unlock := s.lock(studentID)
	defer unlock()

	_, doc, err := s.current(ctx, studentID)
	if err != nil {
		return nil, 0, err
	}
	set, cleared := s.evaluator.ClearAll(doc.SelectionSet)
	if cleared == 0 {
		return doc, 0, nil
	}

	next := doc.withSet(set, s.now())
	if err := s.save(ctx, doc, next); err != nil {
		return nil, 0, err
	}
	s.record(next, ActionCleared, "", cleared)
	return next, cleared, nil
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
