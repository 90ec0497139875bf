package catalog

import (
	"time"

	"MessAPI/internal/meal"
)

// MealItem is a dish students can pick for a period
type MealItem struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Category    meal.Category `json:"category"`
	Subcategory string        `json:"subcategory"`
	MessType    meal.MessType `json:"messType"`
	ImageURL    *string       `json:"imageUrl,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Item returns the classification the quota rules work on
func (m *MealItem) Item() meal.Item {
	return meal.Item{
		ID:          m.ID,
		Category:    m.Category,
		Subcategory: m.Subcategory,
		MessType:    m.MessType,
	}
}

// Filter narrows List; empty fields match everything
type Filter struct {
	Category    meal.Category
	MessType    meal.MessType
	Subcategory string
}

type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Subcategory string `json:"subcategory" binding:"required"`
	MessType    string `json:"messType" binding:"required"`
}

type UpdateRequest struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
	MessType    *string `json:"messType"`
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
