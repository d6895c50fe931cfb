// Command seed populates the database with demo reference data, staff
// accounts and randomized supplier applications.
package main

import (
	"flag"
	"log"

	"gcxportal/internal/config"
	"gcxportal/internal/database"
	"gcxportal/internal/seed"
)

func main() {
	numApplications := flag.Int("applications", 25, "Number of applications to create")
	shouldClean := flag.Bool("clean", true, "Clean application data before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumApplications: *numApplications,
		ShouldClean:     *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
