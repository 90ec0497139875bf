package meal

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed quotas.yaml
var defaultQuotaYAML []byte

// QuotaTable maps category -> mess type -> subcategory -> max items per period.
// It is built once at start-up and never mutated afterwards.
type QuotaTable map[Category]map[MessType]map[string]int

// QuotaRow is one flattened quota entry
type QuotaRow struct {
	Category    Category `json:"category"`
	MessType    MessType `json:"messType"`
	Subcategory string   `json:"subcategory"`
	MaxCount    int      `json:"maxCount"`
}

// MaxAllowed returns the configured cap, or 0 when the subcategory has no
// quota row (never selectable)
func (q QuotaTable) MaxAllowed(category Category, messType MessType, subcategory string) int {
	byMess, ok := q[category]
	if !ok {
		return 0
	}
	bySub, ok := byMess[messType]
	if !ok {
		return 0
	}
	return bySub[subcategory]
}

// Has reports whether a quota row exists for the triple
func (q QuotaTable) Has(category Category, messType MessType, subcategory string) bool {
	return q.MaxAllowed(category, messType, subcategory) > 0
}

// Rows flattens the table in category serving order, then mess type, then
// subcategory name
func (q QuotaTable) Rows() []QuotaRow {
	var rows []QuotaRow
	for _, c := range Categories {
		for _, m := range MessTypes {
			subs := q[c][m]
			names := make([]string, 0, len(subs))
			for name := range subs {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				rows = append(rows, QuotaRow{Category: c, MessType: m, Subcategory: name, MaxCount: subs[name]})
			}
		}
	}
	return rows
}

// ParseQuotaTable decodes a YAML quota document:
//
//	breakfast:
//	  veg:
//	    Tiffin: 14
//
// Unknown categories or mess types and non-positive counts are rejected.
func ParseQuotaTable(data []byte) (QuotaTable, error) {
	var raw map[string]map[string]map[string]int
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode quota table: %w", err)
	}

	table := QuotaTable{}
	for catKey, byMess := range raw {
		category, err := ParseCategory(catKey)
		if err != nil {
			return nil, err
		}
		for messKey, bySub := range byMess {
			messType, err := ParseMessType(messKey)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", category, err)
			}
			for sub, limit := range bySub {
				if sub == "" {
					return nil, fmt.Errorf("%s.%s: empty subcategory", category, messType)
				}
				if limit <= 0 {
					return nil, fmt.Errorf("%s.%s.%s: max count must be positive, got %d", category, messType, sub, limit)
				}
				if table[category] == nil {
					table[category] = map[MessType]map[string]int{}
				}
				if table[category][messType] == nil {
					table[category][messType] = map[string]int{}
				}
				table[category][messType][sub] = limit
			}
		}
	}
	return table, nil
}

// DefaultQuotaTable returns the quota table compiled into the binary
func DefaultQuotaTable() (QuotaTable, error) {
	return ParseQuotaTable(defaultQuotaYAML)
}

// LoadQuotaTable reads the quota table from path, or the compiled-in default
// when path is empty
func LoadQuotaTable(path string) (QuotaTable, error) {
	if path == "" {
		return DefaultQuotaTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quota table: %w", err)
	}
	return ParseQuotaTable(data)
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
