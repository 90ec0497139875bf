package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"MessAPI/internal/meal"

	"github.com/google/uuid"
)

// ErrInvalidItem wraps validation failures of create and update payloads
var ErrInvalidItem = errors.New("invalid meal item")

type Repository struct {
	db *sql.DB
}

// NewRepository creates a new catalog repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const itemColumns = `id, name, category, subcategory, mess_type, image_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*MealItem, error) {
	var m MealItem
	var imageURL sql.NullString
	if err := row.Scan(&m.ID, &m.Name, &m.Category, &m.Subcategory, &m.MessType, &imageURL, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if imageURL.Valid {
		m.ImageURL = &imageURL.String
	}
	return &m, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidItem, fmt.Sprintf(format, args...))
}

// List returns items matching f ordered by category, then subcategory, then name
func (r *Repository) List(ctx context.Context, f Filter) ([]MealItem, error) {
	var where []string
	var args []any
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.MessType != "" {
		where = append(where, "mess_type = ?")
		args = append(args, f.MessType)
	}
	if f.Subcategory != "" {
		where = append(where, "subcategory = ?")
		args = append(args, f.Subcategory)
	}

	query := "SELECT " + itemColumns + " FROM meal_items"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY CASE category
		WHEN 'breakfast' THEN 1 WHEN 'lunch' THEN 2 WHEN 'snacks' THEN 3 ELSE 4 END,
		subcategory, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []MealItem{}
	for rows.Next() {
		m, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// Get returns an item, or nil when it does not exist
func (r *Repository) Get(ctx context.Context, id string) (*MealItem, error) {
	m, err := scanItem(r.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM meal_items WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// Lookup resolves a meal ID to its quota classification, or nil when unknown
func (r *Repository) Lookup(ctx context.Context, id string) (*meal.Item, error) {
	m, err := r.Get(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	item := m.Item()
	return &item, nil
}

// Create stores a new item under a fresh UUID
func (r *Repository) Create(ctx context.Context, req CreateRequest) (*MealItem, error) {
	name := strings.TrimSpace(req.Name)
	sub := strings.TrimSpace(req.Subcategory)
	if name == "" || sub == "" {
		return nil, invalid("name and subcategory are required")
	}
	category, err := meal.ParseCategory(req.Category)
	if err != nil {
		return nil, invalid("%v", err)
	}
	messType, err := meal.ParseMessType(req.MessType)
	if err != nil {
		return nil, invalid("%v", err)
	}

	now := time.Now().UTC()
	m := &MealItem{
		ID:          uuid.NewString(),
		Name:        name,
		Category:    category,
		Subcategory: sub,
		MessType:    messType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO meal_items (id, name, category, subcategory, mess_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Category, m.Subcategory, m.MessType, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Update applies the non-nil fields and returns the stored item, or nil
// when the item does not exist. Selections already made keep the
// classification they were made with.
func (r *Repository) Update(ctx context.Context, id string, req UpdateRequest) (*MealItem, error) {
	m, err := r.Get(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}

	if req.Name != nil {
		if m.Name = strings.TrimSpace(*req.Name); m.Name == "" {
			return nil, invalid("name must not be empty")
		}
	}
	if req.Subcategory != nil {
		if m.Subcategory = strings.TrimSpace(*req.Subcategory); m.Subcategory == "" {
			return nil, invalid("subcategory must not be empty")
		}
	}
	if req.Category != nil {
		if m.Category, err = meal.ParseCategory(*req.Category); err != nil {
			return nil, invalid("%v", err)
		}
	}
	if req.MessType != nil {
		if m.MessType, err = meal.ParseMessType(*req.MessType); err != nil {
			return nil, invalid("%v", err)
		}
	}
	m.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		UPDATE meal_items
		SET name = ?, category = ?, subcategory = ?, mess_type = ?, updated_at = ?
		WHERE id = ?
	`, m.Name, m.Category, m.Subcategory, m.MessType, m.UpdatedAt, id)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SetImageURL records where the item's picture lives
func (r *Repository) SetImageURL(ctx context.Context, id, url string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE meal_items SET image_url = ?, updated_at = ? WHERE id = ?
	`, url, time.Now().UTC(), id)
	return err
}

// Delete removes an item and reports whether it existed
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM meal_items WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
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
