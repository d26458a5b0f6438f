package reports

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

// visit is one audit visit row before calendar expansion.
type visit struct {
	Start    time.Time
	Duration float64
	City     string
}

// VisitCalendar expands audit visits into per-day calendar entries within
// [from, to]. A visit spanning N days occupies N consecutive entries; each
// day carries the visit count and a flag when any visit that day is in the
// special city.
func (e *Engine) VisitCalendar(ctx context.Context, from, to time.Time) (*types.VisitCalendar, error) {
	if to.Before(from) {
		from, to = to, from
	}

	data := types.EmptyVisitCalendar()
	data.From = Day(from)
	data.To = Day(to)

	err := e.withConn(ctx, func(q querier) error {
		// Any visit that could overlap the window: it starts before the end
		// of the window and cannot begin more than the longest plausible
		// duration before the start.
		rows, err := q.QueryContext(ctx, `
			SELECT data_nachala, COALESCE(dlitelnost, 1), COALESCE(gorod, '')
			FROM vizity
			WHERE data_nachala <= $1 AND data_nachala >= $2 - INTERVAL '60 days'
			ORDER BY data_nachala
			LIMIT 2000
		`, to, from)
		if err != nil {
			return fmt.Errorf("failed to query visits: %w", err)
		}
		defer rows.Close()

		visits := []visit{}
		for rows.Next() {
			var (
				v    visit
				city sql.NullString
			)
			if err := rows.Scan(&v.Start, &v.Duration, &city); err != nil {
				return fmt.Errorf("failed to scan visit: %w", err)
			}
			v.City = Str(city)
			visits = append(visits, v)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate visits: %w", err)
		}

		data.Days = expandVisits(visits, from, to, e.specialCity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	data.Meta = NewMeta(e.currency)
	return data, nil
}

// visitDays returns the calendar days a visit occupies: its start day plus
// one day per additional whole day of duration, fractions rounded up. A
// duration of 3 yields exactly 3 consecutive days.
func visitDays(start time.Time, duration float64) []time.Time {
	days := int(math.Ceil(duration))
	if days < 1 {
		days = 1
	}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, day.AddDate(0, 0, i))
	}
	return out
}

// expandVisits aggregates expanded visit days into sorted calendar entries
// clipped to [from, to].
func expandVisits(visits []visit, from, to time.Time, specialCity string) []types.CalendarDay {
	type agg struct {
		count   int64
		special bool
	}

	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	byDay := make(map[string]*agg)
	for _, v := range visits {
		for _, day := range visitDays(v.Start, v.Duration) {
			if day.Before(fromDay) || day.After(toDay) {
				continue
			}
			key := Day(day)
			entry := byDay[key]
			if entry == nil {
				entry = &agg{}
				byDay[key] = entry
			}
			entry.count++
			if specialCity != "" && strings.EqualFold(v.City, specialCity) {
				entry.special = true
			}
		}
	}

	days := make([]types.CalendarDay, 0, len(byDay))
	for key, entry := range byDay {
		days = append(days, types.CalendarDay{
			Day:         key,
			Count:       entry.count,
			SpecialCity: entry.special,
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })
	return days
}
