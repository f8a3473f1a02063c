// Package aggregate builds the hourly volume/risk-rate view from the
// two persisted partitions. It works on per-hour counts read back from
// the store, never on raw records.
package aggregate

import (
	"sort"
)

// Row is the aggregate for one hour-of-day bucket.
type Row struct {
	Hour            int
	SafeCount       int
	SuspiciousCount int
	TotalVolume     int
	RiskRate        float64 // percentage of transactions routed suspicious, 0-100
}

// Report is the report-ready hourly series plus the derived metrics
// the reporting layer consumes.
type Report struct {
	Rows []Row

	// Threshold is the mean risk rate across rows, used downstream as
	// the high-risk hour cutoff. 0 when there are no rows.
	Threshold float64

	// Peak is the row with the maximal risk rate (first in hour order
	// on ties), or nil when there is no data.
	Peak *Row
}

// BuildReport merges the two independently-read hour/count mappings
// into one row per hour present in either partition. The union is
// outer: an hour present in only one partition still appears, with the
// other side counted as 0. Rows are ordered by ascending hour.
//
// An hour with zero total volume gets a risk rate of 0 rather than a
// division error.
func BuildReport(safe, suspicious map[int]int) *Report {
	seen := make(map[int]bool, 24)
	hours := make([]int, 0, 24)
	for h := range safe {
		if !seen[h] {
			seen[h] = true
			hours = append(hours, h)
		}
	}
	for h := range suspicious {
		if !seen[h] {
			seen[h] = true
			hours = append(hours, h)
		}
	}
	sort.Ints(hours)

	rep := &Report{Rows: make([]Row, 0, len(hours))}

	var sum float64
	for _, h := range hours {
		row := Row{
			Hour:            h,
			SafeCount:       safe[h],
			SuspiciousCount: suspicious[h],
		}
		row.TotalVolume = row.SafeCount + row.SuspiciousCount
		if row.TotalVolume > 0 {
			row.RiskRate = 100 * float64(row.SuspiciousCount) / float64(row.TotalVolume)
		}
		sum += row.RiskRate
		rep.Rows = append(rep.Rows, row)
	}

	if len(rep.Rows) > 0 {
		rep.Threshold = sum / float64(len(rep.Rows))

		peak := 0
		for i := range rep.Rows {
			if rep.Rows[i].RiskRate > rep.Rows[peak].RiskRate {
				peak = i
			}
		}
		rep.Peak = &rep.Rows[peak]
	}

	return rep
}

// HighRiskHours returns the hours whose risk rate exceeds the report's
// threshold, in ascending order.
func (r *Report) HighRiskHours() []int {
	var hours []int
	for _, row := range r.Rows {
		if row.RiskRate > r.Threshold {
			hours = append(hours, row.Hour)
		}
	}
	return hours
}
