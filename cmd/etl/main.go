package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/fraud-pipeline/internal/config"
	"github.com/dvloznov/fraud-pipeline/internal/logger"
	"github.com/dvloznov/fraud-pipeline/internal/pipeline"
	"github.com/dvloznov/fraud-pipeline/internal/source"
	"github.com/dvloznov/fraud-pipeline/internal/store"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	input := flag.String("input", "fraud_data.csv", "path to the transaction CSV batch")
	gcsObject := flag.String("gcs-object", "", "GCS object to load instead of a local file (uses FRAUD_GCS_BUCKET)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	var src pipeline.RecordSource = source.NewFileSource(*input)
	if *gcsObject != "" {
		if cfg.GCSBucket == "" {
			log.Fatal().Msg("Error: FRAUD_GCS_BUCKET is required with --gcs-object")
		}
		src = source.NewGCSSource(cfg.GCSBucket, *gcsObject)
	}

	log.Info().Str("source", src.Name()).Str("engine", cfg.StoreEngine).Msg("Starting screening run")

	if err := pipeline.ScreenBatch(ctx, src, st, st); err != nil {
		log.Fatal().Err(err).Msg("Screening failed")
	}

	fmt.Println("Screening completed successfully.")
}
