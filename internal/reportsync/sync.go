package reportsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/fraud-pipeline/internal/aggregate"
	"github.com/dvloznov/fraud-pipeline/internal/logger"
)

// SyncReport pushes the hourly report to a Notion database with
// replace semantics: every existing page is archived, then one page is
// created per aggregate row. The report is small (at most 24 rows), so
// there is no batching.
func SyncReport(ctx context.Context, client NotionService, notionDBID string, rep *aggregate.Report, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Int("rows", len(rep.Rows)).
		Float64("threshold", rep.Threshold).
		Bool("dry_run", dryRun).
		Msg("Starting report sync to Notion")

	pages, err := queryAllNotionPages(ctx, client, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	var deleted int
	for _, page := range pages {
		if dryRun {
			log.Info().Str("page_id", string(page.ID)).Msg("[DRY RUN] Would delete stale Notion page")
			deleted++
			continue
		}
		if err := client.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to delete stale Notion page")
			continue
		}
		deleted++
	}
	if deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("Deleted stale report pages from Notion")
	}

	var created int
	for i := range rep.Rows {
		row := &rep.Rows[i]

		if dryRun {
			log.Info().Int("hour", row.Hour).Msg("[DRY RUN] Would create Notion page")
			created++
			continue
		}

		props := RowToNotionProperties(row, rep)
		if _, err := client.CreatePage(ctx, notionDBID, props); err != nil {
			log.Warn().Err(err).Int("hour", row.Hour).Msg("Failed to create Notion page")
			continue
		}
		created++
	}

	log.Info().Int("created", created).Msg("Report sync to Notion complete")
	return nil
}

// queryAllNotionPages pages through the whole database.
func queryAllNotionPages(ctx context.Context, client NotionService, notionDBID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		resp, err := client.QueryDatabase(ctx, notionDBID, &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return pages, nil
}
