package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/fraud-pipeline/internal/aggregate"
	"github.com/dvloznov/fraud-pipeline/internal/config"
	"github.com/dvloznov/fraud-pipeline/internal/domain"
	"github.com/dvloznov/fraud-pipeline/internal/logger"
	"github.com/dvloznov/fraud-pipeline/internal/reportsync"
	"github.com/dvloznov/fraud-pipeline/internal/store"
)

func main() {
	log := logger.New()

	notion := flag.Bool("notion", false, "sync the report to the configured Notion database")
	dryRun := flag.Bool("dry-run", false, "with --notion, log what would change without writing")
	flag.Parse()

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
	printReport(rep)

	if *notion {
		if cfg.NotionToken == "" || cfg.NotionDatabaseID == "" {
			log.Fatal().Msg("Error: FRAUD_NOTION_TOKEN and FRAUD_NOTION_DATABASE_ID are required with --notion")
		}
		client := reportsync.NewNotionClient(cfg.NotionToken)
		if err := reportsync.SyncReport(ctx, client, cfg.NotionDatabaseID, rep, *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Report sync failed")
		}
	}
}

func printReport(rep *aggregate.Report) {
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
