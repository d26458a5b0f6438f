package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kupe-dashboard/analytics-engine/internal/schema"
)

// ErrNotFound marks a single-entity lookup with no matching row. It is the
// one failure that is surfaced to the client as-is instead of degrading.
var ErrNotFound = errors.New("not found")

// DashboardCacheKey addresses the cached overall dashboard document.
const DashboardCacheKey = "reports:dashboard"

// querier is satisfied by *sql.DB and *sql.Conn. Report assembly pins one
// connection per request and releases it before returning.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Engine assembles the fixed catalog of dashboard reports. It only reads;
// every query is bounded and parameterized.
type Engine struct {
	db        *sql.DB
	inspector *schema.Inspector
	logger    *zap.Logger

	currency    string
	specialCity string
}

func NewEngine(db *sql.DB, inspector *schema.Inspector, logger *zap.Logger, currency, specialCity string) *Engine {
	return &Engine{
		db:          db,
		inspector:   inspector,
		logger:      logger,
		currency:    currency,
		specialCity: specialCity,
	}
}

// withConn scopes one pooled connection to a report request. The connection
// is returned to the pool even when a sub-query fails.
func (e *Engine) withConn(ctx context.Context, fn func(q querier) error) error {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}
