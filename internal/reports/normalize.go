package reports

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

const (
	dayLayout       = "2006-01-02"
	generatedLayout = "2006-01-02 15:04:05.000000"
)

// Round2 rounds a display metric to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Float normalizes a nullable aggregate (e.g. AVG over an empty set) to a
// rounded float; NULL becomes 0, never null in the payload.
func Float(n sql.NullFloat64) float64 {
	if !n.Valid {
		return 0
	}
	return Round2(n.Float64)
}

// Int normalizes a nullable count or sum to an int64.
func Int(n sql.NullInt64) int64 {
	if !n.Valid {
		return 0
	}
	return n.Int64
}

// Str normalizes a nullable text column to a plain string.
func Str(n sql.NullString) string {
	if !n.Valid {
		return ""
	}
	return n.String
}

// Day formats a timestamp as an ISO calendar day.
func Day(t time.Time) string {
	return t.Format(dayLayout)
}

// NullDay formats a nullable timestamp as an ISO calendar day, or "".
func NullDay(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return Day(t.Time)
}

// NewMeta stamps a payload with the generation time and display currency.
func NewMeta(currency string) types.Meta {
	return types.Meta{
		GeneratedAt: time.Now().Format(generatedLayout),
		Currency:    currency,
	}
}
