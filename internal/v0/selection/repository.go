package selection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MessAPI/internal/meal"
)

// AnyVersion makes Save overwrite whatever is stored (last writer wins)
const AnyVersion int64 = -1

// ErrVersionConflict means the stored document changed since it was loaded
var ErrVersionConflict = errors.New("selection document was modified concurrently")

// PersistenceError wraps any I/O failure of the document store. The
// caller's in-memory document is never modified when one is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("selection %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistenceErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// Repository stores selection documents in the mess database
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new selection repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Load returns the student's document for the period, or nil when none has
// been saved yet
func (r *Repository) Load(ctx context.Context, studentID string, periodID int64) (*Document, error) {
	doc := &Document{StudentID: studentID, PeriodID: periodID}
	var raw string
	err := r.db.QueryRowContext(ctx, `
		SELECT mess_type, selections, version, updated_at
		FROM selection_documents
		WHERE student_id = ? AND period_id = ?
	`, studentID, periodID).Scan(&doc.MessType, &raw, &doc.Version, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceErr("load", err)
	}

	doc.Selections = map[string]meal.Selection{}
	if err := json.Unmarshal([]byte(raw), &doc.Selections); err != nil {
		return nil, persistenceErr("decode", err)
	}
	return doc, nil
}

// Save overwrites the stored document with doc. With expectedVersion >= 0
// the write only happens if the stored version still matches (0 meaning
// "not stored yet"); otherwise ErrVersionConflict is returned. On success
// doc.Version holds the new version.
func (r *Repository) Save(ctx context.Context, doc *Document, expectedVersion int64) error {
	if err := meal.CheckHomogeneous(doc.SelectionSet); err != nil {
		return err
	}
	raw, err := json.Marshal(doc.Selections)
	if err != nil {
		return persistenceErr("encode", err)
	}
	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	var version int64
	switch {
	case expectedVersion < 0:
		err = r.db.QueryRowContext(ctx, `
			INSERT INTO selection_documents (student_id, period_id, mess_type, selections, version, updated_at)
			VALUES (?, ?, ?, ?, 1, ?)
			ON CONFLICT (student_id, period_id) DO UPDATE SET
				mess_type = excluded.mess_type,
				selections = excluded.selections,
				version = selection_documents.version + 1,
				updated_at = excluded.updated_at
			RETURNING version
		`, doc.StudentID, doc.PeriodID, doc.MessType, string(raw), updatedAt).Scan(&version)

	case expectedVersion == 0:
		err = r.db.QueryRowContext(ctx, `
			INSERT INTO selection_documents (student_id, period_id, mess_type, selections, version, updated_at)
			VALUES (?, ?, ?, ?, 1, ?)
			ON CONFLICT (student_id, period_id) DO NOTHING
			RETURNING version
		`, doc.StudentID, doc.PeriodID, doc.MessType, string(raw), updatedAt).Scan(&version)

	default:
		err = r.db.QueryRowContext(ctx, `
			UPDATE selection_documents
			SET mess_type = ?, selections = ?, version = version + 1, updated_at = ?
			WHERE student_id = ? AND period_id = ? AND version = ?
			RETURNING version
		`, doc.MessType, string(raw), updatedAt, doc.StudentID, doc.PeriodID, expectedVersion).Scan(&version)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrVersionConflict
	}
	if err != nil {
		return persistenceErr("save", err)
	}
	doc.Version = version
	doc.UpdatedAt = updatedAt
	return nil
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
