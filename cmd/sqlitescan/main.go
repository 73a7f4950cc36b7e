package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/cobaltdb/sqlitescan/pkg/btree"
	"github.com/cobaltdb/sqlitescan/pkg/engine"
	"github.com/cobaltdb/sqlitescan/pkg/logging"
	"github.com/cobaltdb/sqlitescan/pkg/shell"
)

// CLI is the command line of sqlitescan
var CLI struct {
	DBFile  string `arg:"" name:"db-file" help:"Database file to read."`
	Command string `arg:"" name:"command" help:"One of .dbinfo, .tables or a SELECT statement."`

	CachePages  int    `name:"cache-pages" default:"0" help:"Pages kept in the page cache (0 disables it)."`
	MaxDepth    int    `name:"max-depth" default:"64" help:"Deepest B-tree accepted before the file is treated as corrupt."`
	ReadRetries int    `name:"read-retries" default:"2" help:"Retries for a failed page read."`
	LogLevel    string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)."`
	LogFormat   string `name:"log-format" default:"text" enum:"text,json" help:"Log format (text, json)."`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("sqlitescan"),
		kong.Description("Read-only query tool for SQLite database files"),
		kong.UsageOnError(),
	)

	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "sqlitescan: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	level, err := logging.ParseLevel(CLI.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(CLI.LogFormat)
	if err != nil {
		return err
	}

	opts := engine.DefaultOptions()
	opts.CacheSize = CLI.CachePages
	opts.MaxDepth = CLI.MaxDepth
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = btree.DefaultMaxDepth
	}
	opts.ReadRetries = CLI.ReadRetries
	opts.Logger = logging.New(os.Stderr, level, format)

	db, err := engine.Open(CLI.DBFile, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	return shell.Run(ctx, db, CLI.Command, os.Stdout)
}
