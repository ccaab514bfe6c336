package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/campusnest/forum/internal/config"
	"github.com/campusnest/forum/internal/pgstore"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/migrate/main.go [up|down|version]")
		os.Exit(1)
	}

	command := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := pgstore.Open(context.Background(), cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch command {
	case "up":
		log.Println("Running migrations...")
		if err := pgstore.Migrate(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")

	case "down":
		log.Println("Rolling back the latest migration...")
		if err := pgstore.Rollback(db); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Println("Rollback completed successfully")

	case "version":
		version, dirty, err := pgstore.Version(db)
		if err != nil {
			log.Fatalf("Failed to read version: %v", err)
		}
		fmt.Printf("Schema version %d (dirty=%v)\n", version, dirty)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Available commands: up, down, version")
		os.Exit(1)
	}
}
