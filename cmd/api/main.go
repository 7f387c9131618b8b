package main

import (
	"flag"
	"log"

	"github.com/StudyForge-io/studyforge/internal/ai"
	"github.com/StudyForge-io/studyforge/internal/api"
	"github.com/StudyForge-io/studyforge/internal/billing"
	"github.com/StudyForge-io/studyforge/internal/config"
	"github.com/StudyForge-io/studyforge/internal/database"
	"github.com/StudyForge-io/studyforge/internal/generation"
	"github.com/StudyForge-io/studyforge/internal/storage"
)

const version = "0.0.1"

func initializeAPI(configPath string) (*api.Api, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := database.Init(cfg); err != nil {
		return nil, err
	}

	var store *storage.S3Client
	if cfg.Storage.Endpoint != "" {
		store, err = storage.NewS3Client(
			cfg.Storage.Endpoint,
			cfg.Storage.Region,
			cfg.Storage.Bucket,
			cfg.Storage.AccessKeyID,
			cfg.Storage.SecretAccessKey,
		)
		if err != nil {
			return nil, err
		}
	} else {
		log.Println("Object storage not configured, uploads disabled")
	}

	orchestrator := generation.NewOrchestrator(
		database.Profiles(),
		database.Materials(),
		ai.NewClient(cfg),
	)
	synchronizer := billing.NewSynchronizer(database.Profiles(), cfg)

	return api.NewApi(cfg, orchestrator, synchronizer, store)
}

func main() {
	configPath := flag.String("config", "app.yml", "Path to configuration file")
	flag.Parse()

	log.Printf("Starting StudyForge API v%s with config: %s", version, *configPath)

	api, err := initializeAPI(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	api.Serve()
}
