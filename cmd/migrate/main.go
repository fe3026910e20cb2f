package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/ogurasousui/talent-explorer/internal/platform/config"
)

func main() {
	var (
		configPath    = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		migrationsDir = flag.String("dir", "", "directory containing migration files (defaults to assets/migrations/<driver>)")
		seed          = flag.Bool("seed", false, "apply demo rows from assets/seeds/<driver> after migrating up")
	)
	flag.Parse()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	cfg, err := config.Load(config.EffectivePath(*configPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dir := *migrationsDir
	if dir == "" {
		dir = filepath.Join("assets", "migrations", cfg.Database.Driver)
	}

	if err := runMigration(action, dir, cfg.Database.MigrationURL()); err != nil {
		log.Fatalf("migration %s failed: %v", action, err)
	}
	log.Printf("migration %s completed (driver=%s)", action, cfg.Database.Driver)

	if *seed && action == "up" {
		seedsDir := filepath.Join("assets", "seeds", cfg.Database.Driver)
		if _, err := os.Stat(seedsDir); err != nil {
			log.Fatalf("seeds directory %s: %v", seedsDir, err)
		}
		// シードは別のバージョンテーブルで管理し、スキーマのバージョンと衝突させない。
		if err := runMigration("up", seedsDir, withMigrationsTable(cfg.Database, "seed_migrations")); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		log.Printf("seed completed")
	}
}

func withMigrationsTable(db config.DatabaseConfig, table string) string {
	u := db.MigrationURL()
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "x-migrations-table=" + table
}

func runMigration(action, dir, dsn string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	absDir = filepath.ToSlash(absDir)

	m, err := migrate.New(fmt.Sprintf("file://%s", absDir), dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "drop":
		return m.Drop()
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				log.Printf("no migration applied")
				return nil
			}
			return err
		}
		log.Printf("version=%d dirty=%t", version, dirty)
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}
