package reportsync

import (
	"context"
	"fmt"
	"testing"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/fraud-pipeline/internal/aggregate"
)

// mockNotionService records calls for assertions.
type mockNotionService struct {
	existing []notionapi.Page
	created  []notionapi.Properties
	deleted  []string
}

func (m *mockNotionService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	m.created = append(m.created, properties)
	return &notionapi.Page{ID: notionapi.ObjectID(fmt.Sprintf("page-%d", len(m.created)))}, nil
}

func (m *mockNotionService) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: m.existing}, nil
}

func (m *mockNotionService) DeletePage(ctx context.Context, pageID string) error {
	m.deleted = append(m.deleted, pageID)
	return nil
}

func TestRowToNotionProperties(t *testing.T) {
	rep := aggregate.BuildReport(map[int]int{9: 5}, map[int]int{10: 3})

	props := RowToNotionProperties(&rep.Rows[1], rep)

	title, ok := props["Hour"].(notionapi.TitleProperty)
	if !ok || len(title.Title) != 1 || title.Title[0].Text.Content != "10:00" {
		t.Errorf("Hour property = %#v, want title 10:00", props["Hour"])
	}
	if got := props["Risk Rate"].(notionapi.NumberProperty).Number; got != 100 {
		t.Errorf("Risk Rate = %v, want 100", got)
	}
	if got := props["Total Volume"].(notionapi.NumberProperty).Number; got != 3 {
		t.Errorf("Total Volume = %v, want 3", got)
	}
	// Rate 100 vs threshold 50: flagged high risk, and it is the peak.
	if !props["High Risk"].(notionapi.CheckboxProperty).Checkbox {
		t.Error("expected High Risk checked")
	}
	if !props["Peak"].(notionapi.CheckboxProperty).Checkbox {
		t.Error("expected Peak checked")
	}

	safeProps := RowToNotionProperties(&rep.Rows[0], rep)
	if safeProps["High Risk"].(notionapi.CheckboxProperty).Checkbox {
		t.Error("hour 9 must not be flagged high risk")
	}
	if _, ok := safeProps["Peak"]; ok {
		t.Error("hour 9 must not carry the Peak flag")
	}
}

func TestSyncReportReplacesPages(t *testing.T) {
	svc := &mockNotionService{
		existing: []notionapi.Page{{ID: "stale-1"}, {ID: "stale-2"}},
	}
	rep := aggregate.BuildReport(map[int]int{9: 5, 10: 1}, map[int]int{10: 3})

	if err := SyncReport(context.Background(), svc, "db-1", rep, false); err != nil {
		t.Fatalf("SyncReport failed: %v", err)
	}

	if len(svc.deleted) != 2 {
		t.Errorf("deleted %d pages, want 2", len(svc.deleted))
	}
	if len(svc.created) != 2 {
		t.Errorf("created %d pages, want 2", len(svc.created))
	}
}

func TestSyncReportDryRun(t *testing.T) {
	svc := &mockNotionService{
		existing: []notionapi.Page{{ID: "stale-1"}},
	}
	rep := aggregate.BuildReport(map[int]int{9: 5}, nil)

	if err := SyncReport(context.Background(), svc, "db-1", rep, true); err != nil {
		t.Fatalf("SyncReport failed: %v", err)
	}

	if len(svc.deleted) != 0 || len(svc.created) != 0 {
		t.Errorf("dry run wrote to Notion: deleted=%d created=%d", len(svc.deleted), len(svc.created))
	}
}
