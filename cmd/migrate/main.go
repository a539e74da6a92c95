package main

import (
	"log"

	"github.com/spf13/pflag"

	"github.com/johnquangdev/meeting-stats/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-stats/pkg/config"
)

func main() {
	down := pflag.Bool("down", false, "roll migrations back instead of applying them")
	steps := pflag.Int("steps", 1, "number of migrations to roll back with --down, 0 for all")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	log.Println("✅ Database connected successfully")

	if *down {
		n, err := database.MigrateDown(db, *steps)
		if err != nil {
			log.Fatalf("Failed to roll back migrations: %v", err)
		}
		log.Printf("⏪ Rolled back %d migration(s)", n)
		return
	}

	n, err := database.Migrate(db)
	if err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	log.Printf("✅ Successfully applied %d migration(s)", n)
}
