package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"

	"github.com/samirrijal/geolisten/internal/adapters/postgres"
	"github.com/samirrijal/geolisten/internal/pkg/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Read("geolisten-migrate", nil)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 1)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		err = runMigrations(ctx, db, ".up.sql", false)
	case "down":
		err = runMigrations(ctx, db, ".down.sql", true)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runMigrations(ctx context.Context, db *postgres.DB, suffix string, reverse bool) error {
	files, err := migrationFiles(suffix, reverse)
	if err != nil {
		return err
	}

	for _, f := range files {
		data, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := db.Pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
	return nil
}

// migrationFiles lists embedded migrations with suffix in apply order.
func migrationFiles(suffix string, reverse bool) ([]string, error) {
	entries, err := fs.Glob(migrations, "migrations/*"+suffix)
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(entries)))
	}
	return entries, nil
}
