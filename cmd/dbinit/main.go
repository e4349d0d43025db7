// Command dbinit creates or inspects the database schema.
//
// Usage:
//
//	dbinit          ensure tables, indexes, and triggers exist
//	dbinit --drop   drop everything first, then recreate
//	dbinit --check  report schema status without changing anything
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"signstore/internal/config"
	"signstore/internal/logger"
	"signstore/internal/postgres"
)

func main() {
	drop := flag.Bool("drop", false, "drop existing tables before creating new ones")
	check := flag.Bool("check", false, "check database status without making changes")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	store, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Errorw("database connection failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *check {
		status, err := store.SchemaStatus(ctx)
		if err != nil {
			log.Errorw("status check failed", "error", err)
			os.Exit(1)
		}
		ok := true
		for _, table := range postgres.Tables {
			mark := "missing"
			if status[table] {
				mark = "ok"
			} else {
				ok = false
			}
			fmt.Printf("  %-16s %s\n", table, mark)
		}
		if !ok {
			os.Exit(1)
		}
		return
	}

	if *drop {
		log.Infow("dropping existing schema")
		if err := store.DropSchema(ctx); err != nil {
			log.Errorw("drop failed", "error", err)
			os.Exit(1)
		}
	}
	if err := store.EnsureSchema(ctx); err != nil {
		log.Errorw("initialization failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("database initialization completed")
}
