// Command migrate applies the GORM schema to the configured database.
// Connect skips AutoMigrate in production; this command is how production
// schema changes are rolled out deliberately.
package main

import (
	"fmt"
	"log"

	"gcxportal/internal/config"
	"gcxportal/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	log.Println("schema applied")
	return nil
}
