package period

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNoOpenPeriod = errors.New("no selection period is open")
	ErrOverlap      = errors.New("period overlaps an existing period")
	ErrInvalid      = errors.New("invalid period")
)

type Repository struct {
	db *sql.DB
}

// NewRepository creates a new period repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create validates and stores a period. Periods may not overlap, so any
// date resolves to at most one period.
func (r *Repository) Create(ctx context.Context, req CreateRequest) (*Period, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", ErrInvalid)
	}
	start, err := time.Parse(DateLayout, req.StartingDate)
	if err != nil {
		return nil, fmt.Errorf("%w: startingDate must be YYYY-MM-DD", ErrInvalid)
	}
	if req.EndingDate != "" {
		end, err := time.Parse(DateLayout, req.EndingDate)
		if err != nil {
			return nil, fmt.Errorf("%w: endingDate must be YYYY-MM-DD", ErrInvalid)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("%w: endingDate is before startingDate", ErrInvalid)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var overlapping int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM selection_periods
		WHERE (ending_date = '' OR ending_date >= ?)
		  AND (? = '' OR starting_date <= ?)
	`, req.StartingDate, req.EndingDate, req.EndingDate).Scan(&overlapping)
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, ErrOverlap
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO selection_periods (label, starting_date, ending_date) VALUES (?, ?, ?)
	`, label, req.StartingDate, req.EndingDate)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Period{ID: id, Label: label, StartingDate: req.StartingDate, EndingDate: req.EndingDate}, nil
}

// Current returns the period containing date, or ErrNoOpenPeriod
func (r *Repository) Current(ctx context.Context, date time.Time) (*Period, error) {
	day := date.Format(DateLayout)
	var p Period
	err := r.db.QueryRowContext(ctx, `
		SELECT id, label, starting_date, ending_date FROM selection_periods
		WHERE ? >= starting_date AND (ending_date = '' OR ? <= ending_date)
		ORDER BY starting_date DESC
		LIMIT 1
	`, day, day).Scan(&p.ID, &p.Label, &p.StartingDate, &p.EndingDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoOpenPeriod
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every period, latest first
func (r *Repository) List(ctx context.Context) ([]Period, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, label, starting_date, ending_date FROM selection_periods
		ORDER BY starting_date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	periods := []Period{}
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.Label, &p.StartingDate, &p.EndingDate); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
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
