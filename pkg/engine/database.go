package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cobaltdb/sqlitescan/pkg/btree"
	"github.com/cobaltdb/sqlitescan/pkg/catalog"
	"github.com/cobaltdb/sqlitescan/pkg/query"
	"github.com/cobaltdb/sqlitescan/pkg/storage"
)

var (
	ErrDatabaseClosed = errors.New("database is closed")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrUnsupported    = errors.New("unsupported query")
)

// DB is a read-only handle on a database file
type DB struct {
	path    string
	pager   *storage.Pager
	header  *btree.DatabaseHeader
	walker  *btree.Walker
	catalog *catalog.Catalog
	logger  *slog.Logger
	mu      sync.RWMutex
	closed  bool
	options *Options
}

// Options contains database configuration options
type Options struct {
	CacheSize   int // number of pages, 0 disables the page cache
	MaxDepth    int
	ReadRetries int
	Logger      *slog.Logger
}

// DefaultOptions returns the default database options
func DefaultOptions() *Options {
	return &Options{
		CacheSize:   0,
		MaxDepth:    btree.DefaultMaxDepth,
		ReadRetries: 2,
		Logger:      slog.Default(),
	}
}

// Info summarises a database file
type Info struct {
	PageSize   uint32
	PageCount  uint32
	TableCount int
}

// Open opens the database file at path for reading
func Open(path string, opts *Options) (*DB, error) {
	backend, err := storage.OpenDisk(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := OpenBackend(backend, opts)
	if err != nil {
		return nil, err
	}
	db.path = path
	return db, nil
}

// OpenBackend opens a database stored in backend. The DB owns the backend:
// it is closed by Close, or immediately if opening fails.
func OpenBackend(backend storage.Backend, opts *Options) (*DB, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()

	head := make([]byte, btree.FileHeaderSize)
	if n, _ := backend.ReadAt(head, 0); n < len(head) {
		backend.Close()
		return nil, fmt.Errorf("%w: file is %d bytes", btree.ErrInvalidHeader, backend.Size())
	}
	pageSize, err := btree.ReadPageSize(head)
	if err != nil {
		backend.Close()
		return nil, err
	}

	pager, err := storage.NewPager(backend, int(pageSize), storage.PagerOptions{
		CacheSize:   opts.CacheSize,
		ReadRetries: opts.ReadRetries,
		Logger:      logger,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	db := &DB{
		pager:   pager,
		logger:  logger,
		options: opts,
	}
	if err := db.initialize(ctx); err != nil {
		pager.Close()
		return nil, err
	}
	return db, nil
}

// initialize parses the header and loads the schema
func (db *DB) initialize(ctx context.Context) error {
	page1, err := db.pager.ReadPage(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to read header page: %w", err)
	}
	header, err := btree.ParseDatabaseHeader(page1)
	if err != nil {
		return err
	}
	db.header = header

	db.walker = btree.NewWalker(db.pager, btree.Config{
		UsableSize: header.UsableSize(),
		MaxDepth:   db.options.MaxDepth,
		Logger:     db.logger,
	})

	cat, err := catalog.Load(ctx, db.walker)
	if err != nil {
		return err
	}
	db.catalog = cat
	for _, err := range cat.Skipped() {
		db.logger.Debug("index not usable for lookups", "error", err)
	}

	db.logger.Debug("database opened",
		"page_size", header.PageSize, "tables", cat.TableCount())
	return nil
}

// Close closes the database
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true
	return db.pager.Close()
}

// Path returns the file the database was opened from, or "" for a backend
func (db *DB) Path() string {
	return db.path
}

// Header returns the parsed file header
func (db *DB) Header() *btree.DatabaseHeader {
	return db.header
}

// Catalog returns the schema catalog
func (db *DB) Catalog() *catalog.Catalog {
	return db.catalog
}

// Walker returns the B-tree walker over the database pages
func (db *DB) Walker() *btree.Walker {
	return db.walker
}

// Stats returns page read counters
func (db *DB) Stats() storage.PagerStats {
	return db.pager.Stats()
}

// Info returns the page size, page count and number of tables. The page
// count falls back to the file size when the header does not record it.
func (db *DB) Info() Info {
	count := db.header.PageCount
	if count == 0 {
		count = db.pager.PageCount()
	}
	return Info{
		PageSize:   db.header.PageSize,
		PageCount:  count,
		TableCount: db.catalog.TableCount(),
	}
}

// Tables returns the user table names in schema order
func (db *DB) Tables() []string {
	return db.catalog.TableNames()
}

// Query executes a SELECT statement and returns its rows
func (db *DB) Query(ctx context.Context, sql string) (*Rows, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrDatabaseClosed
	}

	stmt, err := query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	switch s := stmt.(type) {
	case *query.SelectStmt:
		return db.executeSelect(ctx, s)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, stmt)
	}
}
