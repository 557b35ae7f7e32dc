package main

import (
	"fmt"
	"os"

	"github.com/inkvault/backend/internal/config"
	"github.com/inkvault/backend/internal/database"
	"github.com/inkvault/backend/internal/logger"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if command != "up" {
		fmt.Println("Usage: migrate [up]")
		fmt.Println("  up - Create or update every table and index")
		os.Exit(1)
	}

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Infof("Connecting to %s database...", cfg.DBDriver)
	if err := database.Initialize(cfg); err != nil {
		logger.FatalWithFields("Failed to connect to database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Migration failed", err)
	}
	logger.Infof("All migrations completed successfully")
}
