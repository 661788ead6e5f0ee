package analytics

import "github.com/jkindrix/convo-core/internal/model"

// PeriodFilter narrows a set of DailyPoints by date range, mirroring
// the shape of a SQL analytics filter even though DailyPoint
// aggregation happens in memory rather than via a query. From/To are
// ISO dates, inclusive; empty means unbounded. Project and Agent are
// carried for callers but not applied by Matches or Filter.
type PeriodFilter struct {
	From    string
	To      string
	Project string
	Agent   string
}

// Matches reports whether date falls within the filter's range. The
// Project/Agent fields are advisory for callers that tag their
// DailyPoints externally; DailyPoint itself carries no project/agent
// field since it aggregates across whatever scope the caller chose.
func (f PeriodFilter) Matches(date string) bool {
	if f.From != "" && date < f.From {
		return false
	}
	if f.To != "" && date > f.To {
		return false
	}
	return true
}

// Filter returns the subset of points whose Date matches f.
func (f PeriodFilter) Filter(points []DailyPoint) []DailyPoint {
	out := make([]DailyPoint, 0, len(points))
	for _, p := range points {
		if f.Matches(p.Date) {
			out = append(out, p)
		}
	}
	return out
}

// DailyPoint is one day's aggregated usage, the shape an external
// history store persists so day-over-day trends can be charted
// without re-reading every session each time.
type DailyPoint struct {
	Date         string // ISO 8601, e.g. "2026-03-05"
	Usage        model.Usage
	SessionCount int
}

// MergeDailyPoints additively upserts incoming points into existing,
// keyed by Date: a date present in both has its Usage merged and
// SessionCount summed; a date present only in incoming is appended.
// Pre-existing entries keep their order and new dates follow them in
// incoming order; the result is not re-sorted by date.
func MergeDailyPoints(existing, incoming []DailyPoint) []DailyPoint {
	byDate := make(map[string]int, len(existing))
	merged := make([]DailyPoint, len(existing))
	copy(merged, existing)
	for i, p := range merged {
		byDate[p.Date] = i
	}

	for _, in := range incoming {
		if idx, ok := byDate[in.Date]; ok {
			merged[idx].Usage = merged[idx].Usage.Merge(in.Usage)
			merged[idx].SessionCount += in.SessionCount
			continue
		}
		byDate[in.Date] = len(merged)
		merged = append(merged, in)
	}

	return merged
}
