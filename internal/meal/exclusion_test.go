package meal

import (
	"errors"
	"testing"
)

func setOf(sels ...Selection) SelectionSet {
	set := NewSelectionSet(MessNonVeg)
	for _, s := range sels {
		set.Selections[s.MealID] = s
	}
	return set
}

func sel(id string, m MessType) Selection {
	return Selection{MealID: id, Category: CategoryDinner, Subcategory: "Curry", MessType: m, SelectedAt: testNow}
}

func TestPurgeNonVeg(t *testing.T) {
	tests := []struct {
		name       string
		set        SelectionSet
		wantPurged int
		wantLeft   int
	}{
		{"empty", setOf(), 0, 0},
		{"only non-veg", setOf(sel("a", MessNonVeg), sel("b", MessNonVeg)), 2, 0},
		{"special survives", setOf(sel("a", MessNonVeg), sel("s", MessSpecial)), 1, 1},
		{"veg untouched", setOf(sel("v", MessVeg), sel("s", MessSpecial)), 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := PurgeNonVeg(tt.set)
			if res.PurgedCount != tt.wantPurged || res.Set.Len() != tt.wantLeft {
				t.Errorf("PurgeNonVeg() purged=%d left=%d, want %d and %d", res.PurgedCount, res.Set.Len(), tt.wantPurged, tt.wantLeft)
			}

			again := PurgeNonVeg(res.Set)
			if again.PurgedCount != 0 {
				t.Errorf("second PurgeNonVeg() purged %d, want 0", again.PurgedCount)
			}
		})
	}
}

func TestPurgeNonVegLeavesInputAlone(t *testing.T) {
	set := setOf(sel("a", MessNonVeg))
	PurgeNonVeg(set)
	if !set.Has("a") {
		t.Fatal("input set was modified")
	}
}

func TestCheckHomogeneous(t *testing.T) {
	if err := CheckHomogeneous(setOf(sel("v", MessVeg), sel("s", MessSpecial))); err != nil {
		t.Errorf("veg+special: unexpected error %v", err)
	}
	if err := CheckHomogeneous(setOf(sel("n", MessNonVeg), sel("s", MessSpecial))); err != nil {
		t.Errorf("non-veg+special: unexpected error %v", err)
	}
	err := CheckHomogeneous(setOf(sel("v", MessVeg), sel("n", MessNonVeg)))
	if !errors.Is(err, ErrMixedMessTypes) {
		t.Errorf("veg+non-veg: got %v, want ErrMixedMessTypes", err)
	}
}
