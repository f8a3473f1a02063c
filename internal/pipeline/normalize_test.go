package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/fraud-pipeline/internal/domain"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Transaction_Date", "transaction_date"},
		{" transaction date ", "transaction_date"},
		{"AMOUNT", "amount"},
		{"Merchant Category", "merchant_category"},
		{"fraud_flag", "fraud_flag"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := CanonicalKey(tt.input)
			if got != tt.want {
				t.Errorf("CanonicalKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizerParsesTimestamp(t *testing.T) {
	n := NewNormalizer(fixedClock)

	tests := []struct {
		name     string
		value    any
		wantTime time.Time
		wantHour int
	}{
		{
			name:     "datetime with space",
			value:    "2024-01-01 02:30:00",
			wantTime: time.Date(2024, 1, 1, 2, 30, 0, 0, time.UTC),
			wantHour: 2,
		},
		{
			name:     "RFC3339",
			value:    "2024-06-02T14:05:00Z",
			wantTime: time.Date(2024, 6, 2, 14, 5, 0, 0, time.UTC),
			wantHour: 14,
		},
		{
			name:     "date only defaults to midnight",
			value:    "2024-01-01",
			wantTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantHour: 0,
		},
		{
			name:     "malformed falls back to clock",
			value:    "not-a-date",
			wantTime: fixedNow,
			wantHour: 10,
		},
		{
			name:     "empty string falls back to clock",
			value:    "",
			wantTime: fixedNow,
			wantHour: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := n.Apply(context.Background(), []domain.Record{
				{"Transaction_Date": tt.value, "Amount": 10.0},
			})
			if len(recs) != 1 {
				t.Fatalf("Apply returned %d records, want 1", len(recs))
			}
			if !recs[0].TransDate.Equal(tt.wantTime) {
				t.Errorf("TransDate = %v, want %v", recs[0].TransDate, tt.wantTime)
			}
			if recs[0].Hour != tt.wantHour {
				t.Errorf("Hour = %d, want %d", recs[0].Hour, tt.wantHour)
			}
		})
	}
}

func TestNormalizerMissingDateColumn(t *testing.T) {
	n := NewNormalizer(fixedClock)

	recs := n.Apply(context.Background(), []domain.Record{
		{"Amount": 50.0, "Merchant Category": "grocery"},
		{"Amount": 75.0},
	})

	if len(recs) != 2 {
		t.Fatalf("Apply returned %d records, want 2", len(recs))
	}
	for i, rec := range recs {
		if !rec.TransDate.Equal(fixedNow) {
			t.Errorf("record %d: TransDate = %v, want clock fallback %v", i, rec.TransDate, fixedNow)
		}
		if rec.Hour != fixedNow.Hour() {
			t.Errorf("record %d: Hour = %d, want %d", i, rec.Hour, fixedNow.Hour())
		}
	}
}

func TestNormalizerCanonicalizesFields(t *testing.T) {
	n := NewNormalizer(fixedClock)

	recs := n.Apply(context.Background(), []domain.Record{
		{" Amount ": 1500.0, "Merchant Category": "Online Retail", "Fraud_Flag": float64(0)},
	})

	fields := recs[0].Fields
	if fields.Amount() != 1500.0 {
		t.Errorf("Amount() = %v, want 1500", fields.Amount())
	}
	if fields.MerchantCategory() != "Online Retail" {
		t.Errorf("MerchantCategory() = %q, want %q", fields.MerchantCategory(), "Online Retail")
	}
	if _, ok := fields["fraud_flag"]; !ok {
		t.Error("expected canonical fraud_flag key")
	}
}

func TestNormalizerPreservesCardinality(t *testing.T) {
	n := NewNormalizer(fixedClock)

	raw := make([]domain.Record, 7)
	for i := range raw {
		raw[i] = domain.Record{"amount": float64(i)}
	}

	recs := n.Apply(context.Background(), raw)
	if len(recs) != len(raw) {
		t.Errorf("Apply returned %d records, want %d: no record may be dropped", len(recs), len(raw))
	}
}
