package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/dvloznov/fraud-pipeline/internal/domain"
	"github.com/dvloznov/fraud-pipeline/internal/logger"
)

// Clock supplies the current time. Injected so the timestamp fallback
// is deterministic in tests.
type Clock func() time.Time

// timestampLayouts are the accepted transaction_date formats, tried in
// order. Anything else degrades to the clock fallback.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
}

// Normalizer canonicalizes field names and derives trans_date and hour
// for every record in a batch.
type Normalizer struct {
	now Clock
}

// NewNormalizer creates a Normalizer. A nil clock falls back to time.Now.
func NewNormalizer(now Clock) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// CanonicalKey standardizes a field name: trimmed, lower-cased, with
// internal spaces replaced by underscores. "Transaction_Date" and
// " transaction date " both become "transaction_date".
func CanonicalKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func canonicalFields(rec domain.Record) domain.Record {
	out := make(domain.Record, len(rec))
	for k, v := range rec {
		out[CanonicalKey(k)] = v
	}
	return out
}

func parseTimestamp(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Apply normalizes a batch of raw records. No record is dropped:
// cardinality in equals cardinality out.
//
// Missing and malformed transaction_date values both collapse to the
// clock's current time. This is a documented lossy policy, not an
// error: downstream cannot distinguish "absent" from "unparsable".
func (n *Normalizer) Apply(ctx context.Context, raw []domain.Record) []*domain.ScoredRecord {
	log := logger.FromContext(ctx)

	out := make([]*domain.ScoredRecord, 0, len(raw))
	sawDateColumn := false
	fallbacks := 0

	for _, rec := range raw {
		sr := &domain.ScoredRecord{Fields: canonicalFields(rec)}

		if v, ok := sr.Fields["transaction_date"]; ok {
			sawDateColumn = true
			if ts, parsed := parseTimestamp(v); parsed {
				sr.TransDate = ts
			}
		}
		if sr.TransDate.IsZero() {
			sr.TransDate = n.now()
			fallbacks++
		}
		sr.Hour = sr.TransDate.Hour()

		out = append(out, sr)
	}

	if len(raw) > 0 && !sawDateColumn {
		log.Warn().Msg("transaction_date column missing, using current time for all records")
	} else if fallbacks > 0 {
		log.Warn().Int("records", fallbacks).Msg("unparsable transaction_date values replaced with current time")
	}

	return out
}
