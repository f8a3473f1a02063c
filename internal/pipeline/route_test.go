package pipeline

import (
	"testing"

	"github.com/dvloznov/fraud-pipeline/internal/domain"
)

func TestIsFraud(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"int one", 1, true},
		{"int64 one", int64(1), true},
		{"float one", float64(1), true},
		{"string one", "1", true},
		{"int zero", 0, false},
		{"float zero", float64(0), false},
		{"string zero", "0", false},
		{"string true is not recognized", "true", false},
		{"string yes is not recognized", "yes", false},
		{"string with spaces", " 1", false},
		{"float fraction", 1.5, false},
		{"nil", nil, false},
		{"bool", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsFraud(tt.value)
			if got != tt.want {
				t.Errorf("IsFraud(%#v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name      string
		fraudFlag any
		riskScore int
		want      domain.Partition
	}{
		{"low score no flag", float64(0), 0, domain.PartitionSafe},
		{"score at threshold stays safe", nil, 40, domain.PartitionSafe},
		{"score above threshold", nil, 50, domain.PartitionSuspicious},
		{"fraud flag overrides low score", float64(1), 0, domain.PartitionSuspicious},
		{"fraud flag and high score", "1", 100, domain.PartitionSuspicious},
		{"unrecognized flag with low score", "yes", 10, domain.PartitionSafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &domain.ScoredRecord{
				Fields:    domain.Record{"fraud_flag": tt.fraudFlag},
				RiskScore: tt.riskScore,
			}
			got := Route(rec)
			if got != tt.want {
				t.Errorf("Route() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Raising the amount across the high-amount threshold may move a
// record from safe to suspicious, never the other way.
func TestRoutingMonotonicInAmount(t *testing.T) {
	for _, flag := range []any{float64(0), float64(1), nil} {
		low := &domain.ScoredRecord{Fields: domain.Record{"amount": 900.0, "fraud_flag": flag}, Hour: 12}
		high := &domain.ScoredRecord{Fields: domain.Record{"amount": 1100.0, "fraud_flag": flag}, Hour: 12}
		low.RiskScore = Score(low)
		high.RiskScore = Score(high)

		if Route(low) == domain.PartitionSuspicious && Route(high) == domain.PartitionSafe {
			t.Errorf("flag %#v: raising amount moved record from suspicious to safe", flag)
		}
		if high.RiskScore < low.RiskScore {
			t.Errorf("flag %#v: higher amount produced lower score (%d < %d)", flag, high.RiskScore, low.RiskScore)
		}
	}
}
