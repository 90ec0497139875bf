package databases

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

// Names of the databases the API keeps, one SQLite file each
const (
	Auth = "auth"
	Mess = "mess"
)

//go:embed migrations
var migrationsFS embed.FS

// Open opens (creating if needed) the SQLite file at path with foreign keys
// and WAL enabled
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// WAL lets readers run while the activity writer flushes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Printf("Warning: Failed to enable WAL mode for %s: %v", path, err)
	}
	return db, nil
}

// Path returns the file path of a named database inside dir
func Path(dir, name string) string {
	return filepath.Join(dir, name+".db")
}

// Migrate applies the embedded migrations of the named database. The
// database handle stays open afterwards.
func Migrate(db *sql.DB, name string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+name)
	if err != nil {
		return fmt.Errorf("failed to load %s migrations: %w", name, err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate %s: %w", name, err)
	}
	return nil
}

// OpenAndMigrate opens the named database inside dir and brings its schema
// up to date
func OpenAndMigrate(dir, name string) (*sql.DB, error) {
	db, err := Open(Path(dir, name))
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, name); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
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
