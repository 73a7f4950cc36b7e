package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cobaltdb/sqlitescan/pkg/btree"
	"github.com/cobaltdb/sqlitescan/pkg/engine"
	"github.com/cobaltdb/sqlitescan/pkg/logging"
)

func main() {
	var (
		dbPath = flag.String("db", "", "database file")
		name   = flag.String("tree", "", "table or index whose pages to print; empty prints the schema")
		cells  = flag.Bool("cells", false, "print the key of every cell")
		pgno   = flag.Uint("page", 0, "print the cells of a single page")
	)
	flag.Parse()

	if err := run(*dbPath, *name, *cells, uint32(*pgno)); err != nil {
		fmt.Fprintf(os.Stderr, "sqlitescan-debug: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath, name string, cells bool, pgno uint32) error {
	if dbPath == "" {
		return fmt.Errorf("-db is required")
	}

	opts := engine.DefaultOptions()
	opts.Logger = logging.Discard()
	db, err := engine.Open(dbPath, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	h := db.Header()
	fmt.Printf("page size:     %d\n", h.PageSize)
	fmt.Printf("reserved:      %d\n", h.ReservedSpace)
	fmt.Printf("page count:    %d\n", db.Info().PageCount)
	fmt.Printf("schema page:   %s, %d cells\n", h.SchemaPage.Type, h.SchemaPage.CellCount)
	fmt.Println()

	ctx := context.Background()
	if pgno != 0 {
		p, err := db.Walker().Page(ctx, pgno)
		if err != nil {
			return err
		}
		printPage(p, 0, true)
		return nil
	}

	if name == "" {
		fmt.Println("type\tname\ttable\troot")
		for _, e := range db.Catalog().Entries() {
			fmt.Printf("%s\t%s\t%s\t%d\n", e.Type, e.Name, e.TableName, e.RootPage)
		}
		return nil
	}

	root, err := rootPage(db, name)
	if err != nil {
		return err
	}

	return db.Walker().Visit(ctx, root, func(p *btree.Page, depth int) error {
		printPage(p, depth, cells)
		return nil
	})
}

func printPage(p *btree.Page, depth int, cells bool) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%spage %d: %s, %d cells", indent, p.Number, p.Header.Type, p.Header.CellCount)
	if p.Header.IsInterior() {
		fmt.Printf(", right child %d", p.Header.RightChild)
	}
	fmt.Println()

	if !cells {
		return
	}
	for i, c := range p.Cells {
		fmt.Printf("%s  [%d] %s\n", indent, i, describeCell(c))
	}
}

// rootPage finds the root of a table or index by name
func rootPage(db *engine.DB, name string) (uint32, error) {
	for _, e := range db.Catalog().Entries() {
		if strings.EqualFold(e.Name, name) && e.RootPage != 0 {
			return e.RootPage, nil
		}
	}
	return 0, fmt.Errorf("no table or index named %q", name)
}

func describeCell(c btree.Cell) string {
	switch c := c.(type) {
	case *btree.TableLeafCell:
		return fmt.Sprintf("rowid %d, %d byte payload", c.RowID, len(c.Payload))
	case *btree.TableInteriorCell:
		return fmt.Sprintf("rowid <= %d -> page %d", c.RowID, c.LeftChild)
	case *btree.IndexLeafCell:
		return fmt.Sprintf("key %v, rowid %d", c.Key, c.RowID)
	case *btree.IndexInteriorCell:
		return fmt.Sprintf("key %v, rowid %d -> page %d", c.Key, c.RowID, c.LeftChild)
	}
	return fmt.Sprintf("%T", c)
}
