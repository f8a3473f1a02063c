package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one raw transaction as delivered by a source: a mapping of
// field names to values. The schema is not fixed in advance; only
// amount, merchant_category, transaction_date and fraud_flag carry
// meaning when present. Numeric-looking values are inferred to float64
// by the source, everything else stays a string.
type Record map[string]any

// ScoredRecord is a Record after normalization, scoring and routing.
// TransDate and Hour are derived during normalization; a missing or
// malformed transaction_date degrades to the pipeline clock's current
// time rather than an error.
type ScoredRecord struct {
	Fields Record

	TransDate time.Time // parsed from "transaction_date", or the fallback time
	Hour      int       // hour-of-day component of TransDate, 0-23
	RiskScore int       // additive rule score, 0-100
}

// Partition names one of the two output sets every record is routed into.
type Partition string

const (
	PartitionSafe       Partition = "transactions_safe"
	PartitionSuspicious Partition = "transactions_suspicious"
)

// Partitions lists both partitions in persistence order.
var Partitions = []Partition{PartitionSafe, PartitionSuspicious}

// Amount returns the record's amount as a float64. A missing or
// non-numeric amount is 0; it never triggers the high-amount rule.
func (r Record) Amount() float64 {
	switch v := r["amount"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// MerchantCategory returns the merchant_category field converted to a
// string, or "" when absent. The value itself is not normalized.
func (r Record) MerchantCategory() string {
	v, ok := r["merchant_category"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// FraudFlag returns the raw fraud_flag value, or nil when absent.
func (r Record) FraudFlag() any {
	return r["fraud_flag"]
}
