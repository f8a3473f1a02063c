package pipeline

import (
	"github.com/dvloznov/fraud-pipeline/internal/domain"
)

// IsFraud reports whether a fraud_flag value uses one of the two
// recognized "known fraud" encodings: the number 1 or the string "1".
// The upstream feed emits both, so both are accepted; every other
// value ("true", "yes", 0, absent) is not fraud.
func IsFraud(v any) bool {
	switch val := v.(type) {
	case int:
		return val == 1
	case int64:
		return val == 1
	case float64:
		return val == 1
	case string:
		return val == "1"
	}
	return false
}

// Route decides partition membership for one scored record. The
// decision is total and exclusive: suspicious when the record carries
// the fraud label or its risk score exceeds HighRiskThreshold, safe
// otherwise. No other field influences routing.
func Route(rec *domain.ScoredRecord) domain.Partition {
	if IsFraud(rec.Fields.FraudFlag()) || rec.RiskScore > HighRiskThreshold {
		return domain.PartitionSuspicious
	}
	return domain.PartitionSafe
}
