// @title QDRT Reviewer API
// @version 1.0
// @description Interactive quality document review checklist with AI-suggested answers.

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api

package main

import (
	"flag"
	"log"
	"path/filepath"
	"qdrt_backend/internal/app"
	"qdrt_backend/internal/config"
	"qdrt_backend/pkg/database"
	"qdrt_backend/pkg/logger"
)

func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	migrateOnly := flag.Bool("migrate-only", false, "run the state table migration and exit")
	migrate := flag.Bool("migrate", false, "force the state table migration on startup")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	if cfg.MigrateOnly {
		if _, err := database.InitDB(&cfg.Database, true); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration finished")
		return
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	application.ConfigFile = filepath.Join(*configDir, "config.yaml")
	application.Run()
}
