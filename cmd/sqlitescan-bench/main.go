package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/cobaltdb/sqlitescan/pkg/engine"
	"github.com/cobaltdb/sqlitescan/pkg/logging"
)

var (
	flagHelp       bool
	flagPath       string
	flagRows       int
	flagIterations int
	flagCache      int
	flagBenchmarks string
)

var countries = []string{"norway", "chile", "kenya", "japan", "peru", "fiji", "laos", "mali"}

func init() {
	flag.BoolVar(&flagHelp, "help", false, "Show help")
	flag.BoolVar(&flagHelp, "h", false, "Show help (short)")
	flag.StringVar(&flagPath, "path", "", "Database path (default: generated in a temp dir)")
	flag.IntVar(&flagRows, "rows", 10000, "Number of rows in the generated database")
	flag.IntVar(&flagIterations, "n", 100, "Iterations per benchmark")
	flag.IntVar(&flagCache, "cache", 0, "Page cache size in pages")
	flag.StringVar(&flagBenchmarks, "bench", "all", "Benchmarks to run: all, scan, index, rowid, count")
}

func main() {
	flag.Parse()

	if flagHelp {
		printHelp()
		os.Exit(0)
	}

	if err := runBenchmarks(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Print(`
sqlitescan Benchmark Tool

Usage:
  sqlitescan-bench [options]

Options:
  -h, -help           Show this help message
  -path <path>        Database file to read; generated when empty
  -rows <n>           Rows in the generated database (default: 10000)
  -n <n>              Iterations per benchmark (default: 100)
  -cache <pages>      Page cache size (default: 0)
  -bench <name>       Benchmark to run: all, scan, index, rowid, count

Examples:
  sqlitescan-bench
  sqlitescan-bench -rows 50000 -cache 2048
  sqlitescan-bench -bench index
`)
}

func runBenchmarks() error {
	path := flagPath
	if path == "" {
		dir, err := os.MkdirTemp("", "sqlitescan-bench-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		path = filepath.Join(dir, "bench.db")
		start := time.Now()
		if err := generate(path, flagRows); err != nil {
			return fmt.Errorf("generate database: %w", err)
		}
		fmt.Printf("Generated %d rows in %v\n", flagRows, time.Since(start))
	}

	opts := engine.DefaultOptions()
	opts.CacheSize = flagCache
	opts.Logger = logging.Discard()
	db, err := engine.Open(path, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	info := db.Info()
	fmt.Printf("sqlitescan Benchmark Tool\n")
	fmt.Printf("=========================\n")
	fmt.Printf("Pages: %d x %d bytes\n", info.PageCount, info.PageSize)
	fmt.Printf("Cache: %d pages\n", flagCache)
	fmt.Println()

	benches := map[string]string{
		"scan":  "SELECT id, name, country, size FROM bench",
		"index": "SELECT name FROM bench WHERE country = 'kenya'",
		"rowid": fmt.Sprintf("SELECT name FROM bench WHERE id = %d", flagRows/2+1),
		"count": "SELECT count(*) FROM bench",
	}
	order := []string{"scan", "index", "rowid", "count"}

	ctx := context.Background()
	for _, name := range order {
		if flagBenchmarks != "all" && flagBenchmarks != name {
			continue
		}
		if err := runBenchmark(ctx, db, name, benches[name]); err != nil {
			return err
		}
	}
	return nil
}

func runBenchmark(ctx context.Context, db *engine.DB, name, query string) error {
	fmt.Printf("=== %s ===\n", name)
	fmt.Printf("Query: %s\n", query)

	before := db.Stats()
	var rowCount int
	start := time.Now()
	for i := 0; i < flagIterations; i++ {
		rows, err := db.Query(ctx, query)
		if err != nil {
			return err
		}
		rowCount = rows.Len()
		if i == 0 {
			fmt.Printf("Plan: %s\n", rows.Plan())
		}
		rows.Close()
	}
	elapsed := time.Since(start)
	after := db.Stats()

	fmt.Printf("Rows: %d\n", rowCount)
	fmt.Printf("Time: %v\n", elapsed)
	fmt.Printf("Ops/sec: %.2f\n", float64(flagIterations)/elapsed.Seconds())
	fmt.Printf("Page reads/op: %.1f\n", float64(after.Reads-before.Reads)/float64(flagIterations))
	fmt.Printf("Cache hits: %d\n", after.CacheHits-before.CacheHits)
	fmt.Println()
	return nil
}

// generate writes a table with an index on country
func generate(path string, rows int) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE bench (id integer primary key, name text, country text, size integer)`); err != nil {
		return err
	}
	if _, err := db.Exec(`CREATE INDEX idx_bench_country ON bench (country)`); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT INTO bench (id, name, country, size) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := 1; i <= rows; i++ {
		if _, err := stmt.Exec(i, fmt.Sprintf("user-%d", i), countries[i%len(countries)], i%1000); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
