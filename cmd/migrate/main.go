package main

import (
	"context"
	"flag"
	"log"
	"time"

	"matchsync/internal/config"
	"matchsync/internal/database/migration"
	dbpostgres "matchsync/internal/database/postgres"
)

func main() {
	dir := flag.String("dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Database.Enabled() {
		log.Fatalf("DB_HOST, DB_NAME and DB_USER must be set to run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	migDir := cfg.App.MigrationsDir
	if *dir != "" {
		migDir = *dir
	}

	migCtx, migCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer migCancel()
	r := migration.Runner{Dir: migDir, Logger: log.Default()}
	if err := r.Run(migCtx, db.SQLDB()); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Printf("[Migrate] done dir=%s", migDir)
}
