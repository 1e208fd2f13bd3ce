package main

import (
	"flag"
	"log"

	"github.com/franckalain/nutriscan/internal/config"
	"github.com/franckalain/nutriscan/internal/database"
	"github.com/franckalain/nutriscan/internal/openfoodfacts"
	"github.com/franckalain/nutriscan/internal/server"
)

func main() {
	configPath := flag.String("config", config.GetConfigPath(), "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath, false)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize scan journal
	db, err := database.NewSQLiteDB(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	lookup := openfoodfacts.New(cfg.Lookup.BaseURL, cfg.LookupTimeout())

	// Initialize and start server
	srv := server.New(db, lookup, cfg.Server.StaticDir, cfg.Server.PublicURL, cfg.Server.Debug)
	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
