package meal

import "errors"

// ErrMixedMessTypes means a set holds both veg and non-veg items
var ErrMixedMessTypes = errors.New("selection set mixes veg and non-veg items")

// PurgeResult is the outcome of PurgeNonVeg
type PurgeResult struct {
	Set         SelectionSet
	PurgedCount int
}

// PurgeNonVeg removes every non-veg selection. Running it twice is a no-op
// the second time.
func PurgeNonVeg(set SelectionSet) PurgeResult {
	out := set.Clone()
	purged := 0
	for id, sel := range out.Selections {
		if sel.MessType == MessNonVeg {
			delete(out.Selections, id)
			purged++
		}
	}
	return PurgeResult{Set: out, PurgedCount: purged}
}

// CheckHomogeneous returns ErrMixedMessTypes when veg and non-veg coexist.
// Special items are exempt.
func CheckHomogeneous(set SelectionSet) error {
	if set.countMessType(MessVeg) > 0 && set.countMessType(MessNonVeg) > 0 {
		return ErrMixedMessTypes
	}
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
