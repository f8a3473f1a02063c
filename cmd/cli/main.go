package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fraud-pipeline/internal/aggregate"
	"github.com/dvloznov/fraud-pipeline/internal/config"
	"github.com/dvloznov/fraud-pipeline/internal/domain"
	"github.com/dvloznov/fraud-pipeline/internal/logger"
	"github.com/dvloznov/fraud-pipeline/internal/pipeline"
	"github.com/dvloznov/fraud-pipeline/internal/source"
	"github.com/dvloznov/fraud-pipeline/internal/store"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "screen":
		runScreen(log)
	case "report":
		runReport(log)
	case "runs":
		runRuns(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Fraud Pipeline CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  screen    Score and route a transaction batch into the store")
	fmt.Println("  report    Print the hourly volume/risk-rate report")
	fmt.Println("  runs      List recent screening runs")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runScreen(log zerolog.Logger) {
	fs := flag.NewFlagSet("screen", flag.ExitOnError)
	input := fs.String("input", "fraud_data.csv", "path to the transaction CSV batch")
	gcsObject := fs.String("gcs-object", "", "GCS object to load instead of a local file")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
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

	log.Info().Str("source", src.Name()).Msg("Starting screening run")

	if err := pipeline.ScreenBatch(ctx, src, st, st); err != nil {
		log.Fatal().Err(err).Msg("Screening failed")
	}

	fmt.Println("Screening completed successfully.")
}

func runReport(log zerolog.Logger) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	safe, err := st.HourCounts(ctx, domain.PartitionSafe)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read safe partition counts")
	}
	suspicious, err := st.HourCounts(ctx, domain.PartitionSuspicious)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read suspicious partition counts")
	}

	rep := aggregate.BuildReport(safe, suspicious)
	if len(rep.Rows) == 0 {
		fmt.Println("No data in either partition.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOUR\tSAFE\tSUSPICIOUS\tTOTAL\tRISK RATE")
	for _, row := range rep.Rows {
		fmt.Fprintf(w, "%02d:00\t%d\t%d\t%d\t%.1f%%\n",
			row.Hour, row.SafeCount, row.SuspiciousCount, row.TotalVolume, row.RiskRate)
	}
	w.Flush()
	fmt.Printf("\nHigh-risk threshold (mean risk rate): %.1f%%\n", rep.Threshold)
	if rep.Peak != nil {
		fmt.Printf("Peak risk: %02d:00 at %.1f%%\n", rep.Peak.Hour, rep.Peak.RiskRate)
	}
}

func runRuns(log zerolog.Logger) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of runs to show")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list runs")
	}
	if len(runs) == 0 {
		fmt.Println("No screening runs recorded.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSOURCE\tSTARTED\tSTATUS\tSAFE\tSUSPICIOUS")
	for _, r := range runs {
		fmt.Fprintf(w, "%.8s\t%s\t%s\t%s\t%d\t%d\n",
			r.RunID, r.Source, r.StartedAt.Format(time.RFC3339), r.Status, r.SafeCount, r.SuspiciousCount)
	}
	w.Flush()
}
