package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cobaltdb/sqlitescan/pkg/engine"
	"github.com/cobaltdb/sqlitescan/pkg/logging"
	"github.com/cobaltdb/sqlitescan/pkg/server"
)

func main() {
	var (
		dbPath    = flag.String("db", "", "database file to serve")
		address   = flag.String("addr", ":4200", "server address")
		cacheSize = flag.Int("cache", 1024, "cache size in pages")
		timeout   = flag.Duration("timeout", 30*time.Second, "per-query timeout")
		logLevel  = flag.String("log-level", "info", "log level: debug, info, warn, error")
		logFormat = flag.String("log-format", "text", "log format: text, json")
	)
	flag.Parse()

	if err := run(*dbPath, *address, *cacheSize, *timeout, *logLevel, *logFormat); err != nil {
		fmt.Fprintf(os.Stderr, "sqlitescan-server: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath, address string, cacheSize int, timeout time.Duration, logLevel, logFormat string) error {
	if dbPath == "" {
		return fmt.Errorf("-db is required")
	}
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(logFormat)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, level, format)

	opts := engine.DefaultOptions()
	opts.CacheSize = cacheSize
	opts.Logger = logger

	db, err := engine.Open(dbPath, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	info := db.Info()
	logger.Info("database opened", "path", dbPath, "page_size", info.PageSize, "tables", info.TableCount)

	srv, err := server.New(db, &server.Config{
		Address:      address,
		QueryTimeout: timeout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Listen(address)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return srv.Close()
	})
	return g.Wait()
}
