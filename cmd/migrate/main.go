package main

import (
	"MessAPI/internal/databases"
	"MessAPI/internal/env"
	"flag"
	"log"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	name := flag.String("db", "all", "database to migrate: auth, mess or all")
	dir := flag.String("dir", env.GetEnv(env.EnvDatabaseDir, "./internal/databases"), "directory holding the database files")
	flag.Parse()

	var names []string
	switch *name {
	case "all":
		names = []string{databases.Auth, databases.Mess}
	case databases.Auth, databases.Mess:
		names = []string{*name}
	default:
		log.Fatalf("unknown database %q, want auth, mess or all", *name)
	}

	for _, n := range names {
		db, err := databases.OpenAndMigrate(*dir, n)
		if err != nil {
			log.Fatal(err)
		}
		db.Close()
		log.Println("Database migration complete for the:", n, "database at", databases.Path(*dir, n))
	}
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
