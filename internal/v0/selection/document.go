package selection

import (
	"time"

	"MessAPI/internal/meal"
)

// Document is the stored form of one student's selections for one period:
// { messType, selections: {mealId: Selection}, updatedAt, version, periodId }
type Document struct {
	StudentID string `json:"studentId"`
	PeriodID  int64  `json:"periodId"`
	meal.SelectionSet
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// newDocument starts an unsaved document with the student's preferred type
func newDocument(studentID string, periodID int64, pref meal.MessType) *Document {
	return &Document{
		StudentID:    studentID,
		PeriodID:     periodID,
		SelectionSet: meal.NewSelectionSet(pref),
	}
}

// withSet returns a copy of d carrying set; d itself is left untouched
func (d *Document) withSet(set meal.SelectionSet, now time.Time) *Document {
	out := *d
	out.SelectionSet = set
	out.UpdatedAt = now
	return &out
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
