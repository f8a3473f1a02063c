package pipeline

import (
	"strings"

	"github.com/dvloznov/fraud-pipeline/internal/domain"
)

// Rule weights and thresholds. The rule set is fixed: no learned
// weights, no per-record configuration.
const (
	// HighAmountThreshold is the amount above which a transaction is flagged.
	HighAmountThreshold = 1000

	// HighAmountWeight is added when amount > HighAmountThreshold.
	HighAmountWeight = 50

	// OffHoursWeight is added when the transaction hour is 23:00-04:59.
	OffHoursWeight = 20

	// OnlineChannelWeight is added when the merchant category looks like
	// an online channel.
	OnlineChannelWeight = 30

	// HighRiskThreshold is the score above which a record routes to the
	// suspicious partition regardless of its fraud flag.
	HighRiskThreshold = 40
)

// Score evaluates the additive rule set against one normalized record.
// It is a pure function of the record's fields and derived hour; rules
// are independent and their weights sum, so the result is always in
// [0, 100].
func Score(rec *domain.ScoredRecord) int {
	score := 0

	if rec.Fields.Amount() > HighAmountThreshold {
		score += HighAmountWeight
	}

	if rec.Hour >= 23 || rec.Hour <= 4 {
		score += OffHoursWeight
	}

	// The category value itself is never rewritten; only the match is
	// case-insensitive so "Online Retail" and "internet" both trigger.
	category := strings.ToLower(rec.Fields.MerchantCategory())
	if strings.Contains(category, "net") || strings.Contains(category, "online") {
		score += OnlineChannelWeight
	}

	return score
}
