package main

import (
	"context"
	"log"
	"os"

	"github.com/safar/go-sql-pos/internal/config"
	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/run_migrations.go [up|down]")
	}

	direction := os.Args[1]
	if direction != database.MigrateUp && direction != database.MigrateDown {
		log.Fatal("Direction must be 'up' or 'down'")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	n, err := database.Migrate(context.Background(), db, migrations.Files, direction)
	if err != nil {
		log.Fatalf("Migrate %s: %v", direction, err)
	}

	log.Printf("Successfully ran %d migration(s) %s", n, direction)
}
