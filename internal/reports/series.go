package reports

import (
	"time"

	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

// accumulate fills the running total of a chronologically ordered monthly
// series. The last cumulative value equals the sum of all period counts and
// the sequence is non-decreasing.
func accumulate(series []types.MonthPoint) []types.MonthPoint {
	var running int64
	for i := range series {
		running += series[i].Count
		series[i].Cumulative = running
	}
	return series
}

// overflowCount is the number of distinct groups beyond a Top-N cutoff, for
// rendering an "others" slice without re-fetching every group.
func overflowCount(distinctGroups int64, topN int) int64 {
	overflow := distinctGroups - int64(topN)
	if overflow < 0 {
		return 0
	}
	return overflow
}

// daysOverdue is the whole number of days a planned end date lies in the
// past. Dates in the future return 0.
func daysOverdue(now, plannedEnd time.Time) int {
	days := int(now.Sub(plannedEnd).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// ganttStatus classifies a component's schedule state from its progress.
func ganttStatus(progress float64) string {
	switch {
	case progress == 100:
		return "Done"
	case progress > 50:
		return "In Progress"
	default:
		return "At Risk"
	}
}
