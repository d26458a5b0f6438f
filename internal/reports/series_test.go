package reports

import (
	"testing"
	"time"

	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

func TestAccumulate(t *testing.T) {
	series := accumulate([]types.MonthPoint{
		{Month: "2024-01-01", Count: 3},
		{Month: "2024-02-01", Count: 0},
		{Month: "2024-03-01", Count: 5},
	})

	// Non-decreasing, and the last cumulative value equals the sum of counts.
	var sum, prev int64
	for _, p := range series {
		sum += p.Count
		if p.Cumulative < prev {
			t.Errorf("running total decreased at %s: %d < %d", p.Month, p.Cumulative, prev)
		}
		prev = p.Cumulative
	}
	if series[len(series)-1].Cumulative != sum {
		t.Errorf("last cumulative = %d, want %d", series[len(series)-1].Cumulative, sum)
	}
	if series[1].Cumulative != 3 {
		t.Errorf("zero-count month must carry the running total forward, got %d", series[1].Cumulative)
	}
}

func TestAccumulate_Empty(t *testing.T) {
	if got := accumulate([]types.MonthPoint{}); len(got) != 0 {
		t.Errorf("expected empty series, got %v", got)
	}
}

func TestOverflowCount(t *testing.T) {
	cases := []struct {
		distinct int64
		topN     int
		want     int64
	}{
		{12, 7, 5},
		{7, 7, 0},
		{3, 7, 0}, // never negative
		{0, 7, 0},
	}
	for _, tc := range cases {
		if got := overflowCount(tc.distinct, tc.topN); got != tc.want {
			t.Errorf("overflowCount(%d, %d) = %d, want %d", tc.distinct, tc.topN, got, tc.want)
		}
	}
}

func TestDaysOverdue(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		plannedEnd time.Time
		want       int
	}{
		{time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC), 7},
		{time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), 0}, // future dates are not overdue
	}
	for _, tc := range cases {
		if got := daysOverdue(now, tc.plannedEnd); got != tc.want {
			t.Errorf("daysOverdue(%s) = %d, want %d", tc.plannedEnd.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestGanttStatus(t *testing.T) {
	cases := []struct {
		progress float64
		want     string
	}{
		{100, "Done"},
		{75, "In Progress"},
		{51, "In Progress"},
		{50, "At Risk"},
		{0, "At Risk"},
	}
	for _, tc := range cases {
		if got := ganttStatus(tc.progress); got != tc.want {
			t.Errorf("ganttStatus(%v) = %q, want %q", tc.progress, got, tc.want)
		}
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, defaultLookupLimit},
		{-5, defaultLookupLimit},
		{10, 10},
		{100, 100},
		{500, maxLookupLimit},
	}
	for _, tc := range cases {
		if got := ClampLimit(tc.in); got != tc.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
