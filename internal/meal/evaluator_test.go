package meal

import (
	"fmt"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func testQuotas() QuotaTable {
	return QuotaTable{
		CategoryBreakfast: {
			MessVeg:     {"Tiffin": 14, "Bread": 2},
			MessNonVeg:  {"Tiffin": 10, "Egg": 3},
			MessSpecial: {"Tiffin": 1},
		},
		CategoryLunch: {
			MessVeg:     {"Rice": 2},
			MessNonVeg:  {"Rice": 2, "Chicken": 2},
			MessSpecial: {"Thali": 1},
		},
	}
}

func item(id string, c Category, m MessType, sub string) Item {
	return Item{ID: id, Category: c, MessType: m, Subcategory: sub}
}

func mustAdd(t *testing.T, e *Evaluator, set SelectionSet, it Item) SelectionSet {
	t.Helper()
	res, err := e.AddSelection(set, it, testNow)
	if err != nil {
		t.Fatalf("AddSelection(%s) unexpected error: %v", it.ID, err)
	}
	return res.Set
}

func TestCheckLimit(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := NewSelectionSet(MessVeg)
	set = mustAdd(t, e, set, item("b1", CategoryBreakfast, MessVeg, "Bread"))

	tests := []struct {
		name        string
		category    Category
		messType    MessType
		subcategory string
		wantCount   int
		wantMax     int
		wantReached bool
	}{
		{"partially used", CategoryBreakfast, MessVeg, "Bread", 1, 2, false},
		{"unused", CategoryBreakfast, MessVeg, "Tiffin", 0, 14, false},
		{"unknown subcategory", CategoryBreakfast, MessVeg, "Pizza", 0, 0, true},
		{"unknown category row", CategoryDinner, MessVeg, "Roti", 0, 0, true},
		{"mess type only picks the row", CategoryBreakfast, MessNonVeg, "Tiffin", 0, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.CheckLimit(set, tt.category, tt.messType, tt.subcategory)
			if got.CurrentCount != tt.wantCount || got.MaxAllowed != tt.wantMax || got.HasReachedLimit != tt.wantReached {
				t.Errorf("CheckLimit() = %+v, want count=%d max=%d reached=%v", got, tt.wantCount, tt.wantMax, tt.wantReached)
			}
		})
	}
}

func TestCheckLimitCountsAcrossMessTypes(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := NewSelectionSet(MessVeg)
	set = mustAdd(t, e, set, item("s1", CategoryBreakfast, MessSpecial, "Tiffin"))

	got := e.CheckLimit(set, CategoryBreakfast, MessVeg, "Tiffin")
	if got.CurrentCount != 1 {
		t.Errorf("CurrentCount = %d, want 1", got.CurrentCount)
	}
}

func TestAddSelectionTiffinLimit(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := NewSelectionSet(MessVeg)

	for i := 1; i <= 14; i++ {
		res, err := e.AddSelection(set, item(fmt.Sprintf("tiffin-%d", i), CategoryBreakfast, MessVeg, "Tiffin"), testNow)
		if err != nil {
			t.Fatalf("add #%d: unexpected error: %v", i, err)
		}
		set = res.Set
	}

	_, err := e.AddSelection(set, item("tiffin-15", CategoryBreakfast, MessVeg, "Tiffin"), testNow)
	r, ok := AsRejection(err)
	if !ok {
		t.Fatalf("expected a rejection, got %v", err)
	}
	if r.Reason != ReasonLimitReached || r.Subcategory != "Tiffin" || r.MaxAllowed != 14 {
		t.Errorf("rejection = %+v, want LimitReached{Tiffin, 14}", r)
	}
	if set.Len() != 14 {
		t.Errorf("set size = %d, want 14", set.Len())
	}
}

func TestAddSelectionUnknownSubcategoryNeverSelectable(t *testing.T) {
	e := NewEvaluator(testQuotas())
	_, err := e.AddSelection(NewSelectionSet(MessVeg), item("x", CategoryBreakfast, MessVeg, "Pizza"), testNow)
	if !IsReason(err, ReasonLimitReached) {
		t.Fatalf("expected limit_reached, got %v", err)
	}
}

func TestAddSelectionDuplicate(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := mustAdd(t, e, NewSelectionSet(MessVeg), item("b1", CategoryBreakfast, MessVeg, "Bread"))

	_, err := e.AddSelection(set, item("b1", CategoryBreakfast, MessVeg, "Bread"), testNow)
	if !IsReason(err, ReasonAlreadySelected) {
		t.Fatalf("expected already_selected, got %v", err)
	}
}

func TestAddSelectionNonVegBlockedByVeg(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := mustAdd(t, e, NewSelectionSet(MessVeg), item("v1", CategoryLunch, MessVeg, "Rice"))

	_, err := e.AddSelection(set, item("n1", CategoryLunch, MessNonVeg, "Chicken"), testNow)
	if !IsReason(err, ReasonMessTypeConflict) {
		t.Fatalf("expected mess_type_conflict, got %v", err)
	}
	if set.Len() != 1 || !set.Has("v1") {
		t.Errorf("set changed after rejection: %+v", set.Selections)
	}
}

func TestAddSelectionConflictBeatsLimit(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := NewSelectionSet(MessVeg)
	set = mustAdd(t, e, set, item("v1", CategoryLunch, MessVeg, "Rice"))
	set = mustAdd(t, e, set, item("v2", CategoryLunch, MessVeg, "Rice"))

	_, err := e.AddSelection(set, item("n1", CategoryLunch, MessNonVeg, "Rice"), testNow)
	if !IsReason(err, ReasonMessTypeConflict) {
		t.Fatalf("expected mess_type_conflict, got %v", err)
	}
}

func TestAddSelectionVegPurgesNonVeg(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := NewSelectionSet(MessNonVeg)
	set = mustAdd(t, e, set, item("n1", CategoryLunch, MessNonVeg, "Chicken"))
	set = mustAdd(t, e, set, item("n2", CategoryBreakfast, MessNonVeg, "Egg"))

	res, err := e.AddSelection(set, item("v1", CategoryBreakfast, MessVeg, "Tiffin"), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PurgedCount != 2 {
		t.Errorf("PurgedCount = %d, want 2", res.PurgedCount)
	}
	if res.Set.Len() != 1 || !res.Set.Has("v1") {
		t.Errorf("result set = %+v, want only v1", res.Set.Selections)
	}
	if res.Set.MessType != MessVeg {
		t.Errorf("nominal mess type = %s, want veg", res.Set.MessType)
	}
	if set.Len() != 2 {
		t.Errorf("input set was modified: %d items", set.Len())
	}
}

func TestAddSelectionEggToTiffin(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := mustAdd(t, e, NewSelectionSet(MessNonVeg), item("egg", CategoryBreakfast, MessNonVeg, "Egg"))

	res, err := e.AddSelection(set, item("tiffin", CategoryBreakfast, MessVeg, "Tiffin"), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PurgedCount != 1 || res.Set.Len() != 1 || !res.Set.Has("tiffin") {
		t.Errorf("got purged=%d set=%+v, want purged=1 and only tiffin", res.PurgedCount, res.Set.Selections)
	}
}

func TestAddSelectionVegCountsAfterPurge(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := NewSelectionSet(MessNonVeg)
	set = mustAdd(t, e, set, item("n1", CategoryLunch, MessNonVeg, "Rice"))
	set = mustAdd(t, e, set, item("n2", CategoryLunch, MessNonVeg, "Rice"))

	res, err := e.AddSelection(set, item("v1", CategoryLunch, MessVeg, "Rice"), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PurgedCount != 2 || res.Set.Len() != 1 {
		t.Errorf("got purged=%d len=%d, want 2 and 1", res.PurgedCount, res.Set.Len())
	}
}

func TestAddSelectionSpecialKeepsMessType(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := mustAdd(t, e, NewSelectionSet(MessVeg), item("v1", CategoryBreakfast, MessVeg, "Bread"))
	set = mustAdd(t, e, set, item("s1", CategoryBreakfast, MessSpecial, "Tiffin"))

	if set.MessType != MessVeg {
		t.Errorf("nominal mess type = %s, want veg", set.MessType)
	}
	if err := CheckHomogeneous(set); err != nil {
		t.Errorf("CheckHomogeneous() = %v", err)
	}
}

func TestRemoveSelectionFreesCapacity(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := NewSelectionSet(MessVeg)
	set = mustAdd(t, e, set, item("b1", CategoryBreakfast, MessVeg, "Bread"))
	set = mustAdd(t, e, set, item("b2", CategoryBreakfast, MessVeg, "Bread"))

	if !e.CheckLimit(set, CategoryBreakfast, MessVeg, "Bread").HasReachedLimit {
		t.Fatal("expected Bread to be at its limit")
	}

	set, removed := e.RemoveSelection(set, "b1")
	if !removed {
		t.Fatal("expected b1 to be removed")
	}
	if e.CheckLimit(set, CategoryBreakfast, MessVeg, "Bread").HasReachedLimit {
		t.Fatal("expected capacity after removal")
	}
	set = mustAdd(t, e, set, item("b3", CategoryBreakfast, MessVeg, "Bread"))
	if set.Len() != 2 {
		t.Errorf("set size = %d, want 2", set.Len())
	}
}

func TestRemoveSelectionAbsent(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := mustAdd(t, e, NewSelectionSet(MessVeg), item("b1", CategoryBreakfast, MessVeg, "Bread"))

	out, removed := e.RemoveSelection(set, "nope")
	if removed || out.Len() != 1 {
		t.Errorf("RemoveSelection(absent) = %v, len %d", removed, out.Len())
	}
}

func TestClearAll(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := mustAdd(t, e, NewSelectionSet(MessVeg), item("b1", CategoryBreakfast, MessVeg, "Bread"))

	out, n := e.ClearAll(set)
	if n != 1 || out.Len() != 0 || out.MessType != MessVeg {
		t.Errorf("ClearAll() = %+v, %d", out, n)
	}
}

func TestUsage(t *testing.T) {
	e := NewEvaluator(testQuotas())
	set := mustAdd(t, e, NewSelectionSet(MessVeg), item("b1", CategoryBreakfast, MessVeg, "Bread"))

	usage := e.Usage(set)
	// breakfast veg Bread, Tiffin, breakfast special Tiffin, lunch veg Rice, lunch special Thali
	if len(usage) != 5 {
		t.Fatalf("len(Usage()) = %d, want 5: %+v", len(usage), usage)
	}
	if usage[0].Subcategory != "Bread" || usage[0].CurrentCount != 1 {
		t.Errorf("first row = %+v, want Bread with 1", usage[0])
	}
}

// Walks a fixed pseudo-random sequence of adds and removes and checks the
// quota and exclusion invariants after every accepted step.
func TestInvariantsHoldOverSequence(t *testing.T) {
	e := NewEvaluator(testQuotas())
	catalog := []Item{
		item("bt1", CategoryBreakfast, MessVeg, "Tiffin"),
		item("bb1", CategoryBreakfast, MessVeg, "Bread"),
		item("bb2", CategoryBreakfast, MessVeg, "Bread"),
		item("bb3", CategoryBreakfast, MessVeg, "Bread"),
		item("be1", CategoryBreakfast, MessNonVeg, "Egg"),
		item("be2", CategoryBreakfast, MessNonVeg, "Egg"),
		item("be3", CategoryBreakfast, MessNonVeg, "Egg"),
		item("be4", CategoryBreakfast, MessNonVeg, "Egg"),
		item("ls1", CategoryLunch, MessSpecial, "Thali"),
		item("ls2", CategoryLunch, MessSpecial, "Thali"),
		item("lr1", CategoryLunch, MessVeg, "Rice"),
		item("lr2", CategoryLunch, MessNonVeg, "Rice"),
		item("lc1", CategoryLunch, MessNonVeg, "Chicken"),
	}

	set := NewSelectionSet(MessNonVeg)
	seed := uint32(7)
	for step := 0; step < 500; step++ {
		seed = seed*1664525 + 1013904223
		it := catalog[int(seed>>8)%len(catalog)]

		if seed%5 == 0 {
			set, _ = e.RemoveSelection(set, it.ID)
		} else if res, err := e.AddSelection(set, it, testNow); err == nil {
			set = res.Set
		} else if _, ok := AsRejection(err); !ok {
			t.Fatalf("step %d: unexpected non-rejection error %v", step, err)
		}

		if err := CheckHomogeneous(set); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		for _, sel := range set.Selections {
			st := e.CheckLimit(set, sel.Category, sel.MessType, sel.Subcategory)
			if st.CurrentCount > st.MaxAllowed {
				t.Fatalf("step %d: %s/%s at %d over %d", step, sel.Category, sel.Subcategory, st.CurrentCount, st.MaxAllowed)
			}
		}
	}
}
