package period

import "time"

// DateLayout is how period bounds are stored and exchanged
const DateLayout = "2006-01-02"

// Period is a selection window; students' selection documents are keyed by
// period. An empty EndingDate leaves the period open-ended.
type Period struct {
	ID           int64  `json:"id"`
	Label        string `json:"label"`
	StartingDate string `json:"startingDate"`
	EndingDate   string `json:"endingDate"`
}

// Contains reports whether day falls inside the period
func (p *Period) Contains(day time.Time) bool {
	d := day.Format(DateLayout)
	return d >= p.StartingDate && (p.EndingDate == "" || d <= p.EndingDate)
}

// CreateRequest is the admin payload for opening a period
type CreateRequest struct {
	Label        string `json:"label" binding:"required"`
	StartingDate string `json:"startingDate" binding:"required"`
	EndingDate   string `json:"endingDate"`
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
