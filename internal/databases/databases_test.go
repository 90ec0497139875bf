package databases

import (
	"testing"
)

func TestOpenAndMigrate(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{Auth, Mess} {
		t.Run(name, func(t *testing.T) {
			db, err := OpenAndMigrate(dir, name)
			if err != nil {
				t.Fatalf("OpenAndMigrate(%s) error = %v", name, err)
			}
			defer db.Close()

			// running again must be a no-op
			if err := Migrate(db, name); err != nil {
				t.Fatalf("second Migrate(%s) error = %v", name, err)
			}
		})
	}
}

func TestMigrateCreatesTables(t *testing.T) {
	db, err := OpenAndMigrate(t.TempDir(), Mess)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for _, table := range []string{"meal_items", "selection_periods", "selection_documents", "selection_events"} {
		var n int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestMigrateUnknownDatabase(t *testing.T) {
	db, err := Open(Path(t.TempDir(), "other"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := Migrate(db, "other"); err == nil {
		t.Fatal("expected error for a database without migrations")
	}
}
