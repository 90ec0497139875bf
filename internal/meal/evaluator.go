package meal

import (
	"errors"
	"fmt"
	"time"
)

// RejectionReason names why an item could not be added
type RejectionReason string

const (
	ReasonLimitReached     RejectionReason = "limit_reached"
	ReasonMessTypeConflict RejectionReason = "mess_type_conflict"
	ReasonAlreadySelected  RejectionReason = "already_selected"
)

// Rejection is returned by AddSelection for expected refusals. The UI
// shows it to the student; it is not a failure of the service.
type Rejection struct {
	Reason       RejectionReason `json:"reason"`
	MealID       string          `json:"mealId"`
	Subcategory  string          `json:"subcategory,omitempty"`
	MaxAllowed   int             `json:"maxAllowed,omitempty"`
	CurrentCount int             `json:"currentCount,omitempty"`
}

func (r *Rejection) Error() string {
	switch r.Reason {
	case ReasonLimitReached:
		return fmt.Sprintf("limit reached for %s: %d of %d selected", r.Subcategory, r.CurrentCount, r.MaxAllowed)
	case ReasonMessTypeConflict:
		return "non-veg items cannot be added while veg items are selected"
	case ReasonAlreadySelected:
		return fmt.Sprintf("meal %s is already selected", r.MealID)
	default:
		return string(r.Reason)
	}
}

// AsRejection unwraps err into a *Rejection
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// IsReason reports whether err is a rejection with the given reason
func IsReason(err error, reason RejectionReason) bool {
	r, ok := AsRejection(err)
	return ok && r.Reason == reason
}

// LimitStatus is the utilisation of one (category, mess type, subcategory)
type LimitStatus struct {
	Category        Category `json:"category"`
	MessType        MessType `json:"messType"`
	Subcategory     string   `json:"subcategory"`
	CurrentCount    int      `json:"currentCount"`
	MaxAllowed      int      `json:"maxAllowed"`
	HasReachedLimit bool     `json:"hasReachedLimit"`
}

// AddResult is the outcome of an accepted AddSelection
type AddResult struct {
	Set         SelectionSet `json:"set"`
	Added       Selection    `json:"added"`
	PurgedCount int          `json:"purgedCount"`
}

// Evaluator applies a quota table to selection sets. It holds no per-student
// state and is safe for concurrent use.
type Evaluator struct {
	quotas QuotaTable
}

// NewEvaluator creates an evaluator over a quota table
func NewEvaluator(quotas QuotaTable) *Evaluator {
	if quotas == nil {
		quotas = QuotaTable{}
	}
	return &Evaluator{quotas: quotas}
}

// Quotas returns the table the evaluator was built with
func (e *Evaluator) Quotas() QuotaTable {
	return e.quotas
}

// CheckLimit counts selections matching category and subcategory. The mess
// type only picks the quota row; a stored set is expected to be homogeneous.
func (e *Evaluator) CheckLimit(set SelectionSet, category Category, messType MessType, subcategory string) LimitStatus {
	current := 0
	for _, sel := range set.Selections {
		if sel.Category == category && sel.Subcategory == subcategory {
			current++
		}
	}
	limit := e.quotas.MaxAllowed(category, messType, subcategory)
	return LimitStatus{
		Category:        category,
		MessType:        messType,
		Subcategory:     subcategory,
		CurrentCount:    current,
		MaxAllowed:      limit,
		HasReachedLimit: current >= limit,
	}
}

// AddSelection tries to add item to set. The input set is never modified.
//
// Order of checks: duplicate, veg/non-veg conflict, quota. A veg item added
// while non-veg items exist purges them first, and the quota is counted on
// the purged set.
func (e *Evaluator) AddSelection(set SelectionSet, item Item, now time.Time) (AddResult, error) {
	if set.Has(item.ID) {
		return AddResult{}, &Rejection{Reason: ReasonAlreadySelected, MealID: item.ID}
	}

	if item.MessType == MessNonVeg && set.countMessType(MessVeg) > 0 {
		return AddResult{}, &Rejection{Reason: ReasonMessTypeConflict, MealID: item.ID}
	}

	effective := set
	purged := 0
	if item.MessType == MessVeg {
		res := PurgeNonVeg(set)
		effective, purged = res.Set, res.PurgedCount
	}

	status := e.CheckLimit(effective, item.Category, item.MessType, item.Subcategory)
	if status.HasReachedLimit {
		return AddResult{}, &Rejection{
			Reason:       ReasonLimitReached,
			MealID:       item.ID,
			Subcategory:  item.Subcategory,
			MaxAllowed:   status.MaxAllowed,
			CurrentCount: status.CurrentCount,
		}
	}

	out := effective.Clone()
	sel := Selection{
		MealID:      item.ID,
		Category:    item.Category,
		Subcategory: item.Subcategory,
		MessType:    item.MessType,
		SelectedAt:  now,
	}
	out.Selections[item.ID] = sel
	if item.MessType != MessSpecial {
		out.MessType = item.MessType
	}

	return AddResult{Set: out, Added: sel, PurgedCount: purged}, nil
}

// RemoveSelection drops mealID from set; removing an absent ID is a no-op
func (e *Evaluator) RemoveSelection(set SelectionSet, mealID string) (SelectionSet, bool) {
	if !set.Has(mealID) {
		return set, false
	}
	out := set.Clone()
	delete(out.Selections, mealID)
	return out, true
}

// ClearAll empties the set and keeps its nominal mess type
func (e *Evaluator) ClearAll(set SelectionSet) (SelectionSet, int) {
	return NewSelectionSet(set.MessType), set.Len()
}

// Usage reports CheckLimit for every quota row of the set's nominal mess
// type. Special rows are included too since special items mix with either.
func (e *Evaluator) Usage(set SelectionSet) []LimitStatus {
	var out []LimitStatus
	for _, row := range e.quotas.Rows() {
		if row.MessType != set.MessType && row.MessType != MessSpecial {
			continue
		}
		out = append(out, e.CheckLimit(set, row.Category, row.MessType, row.Subcategory))
	}
	return out
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
