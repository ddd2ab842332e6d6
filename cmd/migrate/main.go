package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/reportik/reportik/internal/config"
	"github.com/reportik/reportik/internal/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	dir := flag.String("dir", "migrations", "Directory holding the .sql migration files")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil {
		logger.Fatalw("Failed to list migration files", "error", err)
	}
	sort.Strings(files)
	if len(files) == 0 {
		logger.Fatalw("No migration files found", "dir", *dir)
	}

	if *dryRun {
		for _, f := range files {
			sql, err := os.ReadFile(f)
			if err != nil {
				logger.Fatalw("Failed to read migration", "file", f, "error", err)
			}
			fmt.Printf("-- %s\n%s\n", f, sql)
		}
		return
	}

	dsn := cfg.Postgres.GetDSN()
	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, f := range files {
		sql, err := os.ReadFile(f)
		if err != nil {
			logger.Fatalw("Failed to read migration", "file", f, "error", err)
		}

		logger.Infow("Applying migration", "file", f)
		if _, err := db.ExecContext(ctx, string(sql)); err != nil {
			logger.Fatalw("Migration failed", "file", f, "error", err)
		}
	}

	logger.Info("Migration completed successfully")
}
