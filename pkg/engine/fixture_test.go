package engine

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

var countries = []string{"norway", "chile", "kenya", "japan", "peru"}

const companyCount = 2000

// createFixture writes a database file with the given statements and returns
// its path.
func createFixture(t testing.TB, stmts ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture statement %q: %v", stmt, err)
		}
	}
	return path
}

// createSampleDB builds the apples/oranges database: two AUTOINCREMENT
// tables on single pages.
func createSampleDB(t testing.TB) string {
	return createFixture(t,
		"CREATE TABLE apples\n(\n\tid integer primary key autoincrement,\n\tname text,\n\tcolor text\n)",
		"CREATE TABLE oranges\n(\n\tid integer primary key autoincrement,\n\tname text,\n\tdescription text\n)",
		"INSERT INTO apples (name, color) VALUES ('Granny Smith', 'Light Green')",
		"INSERT INTO apples (name, color) VALUES ('Fuji', 'Red')",
		"INSERT INTO apples (name, color) VALUES ('Honeycrisp', 'Blush Red')",
		"INSERT INTO apples (name, color) VALUES ('Golden Delicious', 'Yellow')",
		"INSERT INTO oranges (name, description) VALUES ('Mandarin', 'great for snacking')",
		"INSERT INTO oranges (name, description) VALUES ('Tangelo', 'sweet and tart')",
	)
}

// company describes row i of the companies table
type company struct {
	id      int64
	name    string
	country string
	size    int64
	rating  float64
}

func companyRow(i int) company {
	return company{
		id:      int64(i),
		name:    fmt.Sprintf("company-%04d", i),
		country: countries[i%len(countries)],
		size:    int64(i*7) % 1000,
		rating:  float64(i) / 4,
	}
}

// createCompaniesDB builds a multi-level table with an index on country.
func createCompaniesDB(t testing.TB) string {
	t.Helper()

	path := createFixture(t,
		`CREATE TABLE companies (
			id integer primary key,
			name text,
			country text,
			size integer,
			rating real
		)`,
		"CREATE INDEX idx_companies_country ON companies (country)",
	)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	stmt, err := tx.Prepare("INSERT INTO companies (id, name, country, size, rating) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	for i := 1; i <= companyCount; i++ {
		c := companyRow(i)
		if _, err := stmt.Exec(c.id, c.name, c.country, c.size, c.rating); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return path
}
