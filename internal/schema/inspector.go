package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"
)

// ResolutionError reports that none of the candidate column names exist in a
// view. It lists the columns that were found to aid operability.
type ResolutionError struct {
	View       string
	Candidates []string
	Found      []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("view %s has none of the columns %v (found: %v)",
		e.View, e.Candidates, e.Found)
}

// Inspector resolves logical column names against the live catalog. Some
// deployments label the same semantic column differently (localized headers,
// alternate casing), so matching is case- and punctuation-tolerant. The
// per-view column set is read once and cached for the process lifetime.
type Inspector struct {
	db     *sql.DB
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]map[string]string // view -> normalized name -> physical name
}

func NewInspector(db *sql.DB, logger *zap.Logger) *Inspector {
	return &Inspector{
		db:     db,
		logger: logger,
		cache:  make(map[string]map[string]string),
	}
}

// Resolve returns the physical name of the first candidate present in the
// view. Candidates are tried in preference order.
func (i *Inspector) Resolve(ctx context.Context, view string, candidates ...string) (string, error) {
	columns, err := i.columns(ctx, view)
	if err != nil {
		return "", err
	}

	if physical, ok := matchColumn(columns, candidates); ok {
		return physical, nil
	}

	found := make([]string, 0, len(columns))
	for _, physical := range columns {
		found = append(found, physical)
	}
	return "", &ResolutionError{View: view, Candidates: candidates, Found: found}
}

// ResolveAll resolves a set of logical columns in one call. The returned map
// contains only the logical names that could be resolved; the caller decides
// whether a missing entry is fatal.
func (i *Inspector) ResolveAll(ctx context.Context, view string, logical map[string][]string) (map[string]string, error) {
	columns, err := i.columns(ctx, view)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]string, len(logical))
	for name, candidates := range logical {
		if physical, ok := matchColumn(columns, candidates); ok {
			resolved[name] = physical
		} else {
			i.logger.Warn("logical column not present in view",
				zap.String("view", view),
				zap.String("logical", name),
				zap.Strings("candidates", candidates))
		}
	}
	return resolved, nil
}

// HasView reports whether the view or table exists and exposes any columns.
func (i *Inspector) HasView(ctx context.Context, view string) bool {
	columns, err := i.columns(ctx, view)
	return err == nil && len(columns) > 0
}

func (i *Inspector) columns(ctx context.Context, view string) (map[string]string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if cached, ok := i.cache[view]; ok {
		return cached, nil
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, view)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog for %s: %w", view, err)
	}
	defer rows.Close()

	columns := make(map[string]string)
	for rows.Next() {
		var physical string
		if err := rows.Scan(&physical); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		columns[normalizeIdent(physical)] = physical
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog rows: %w", err)
	}

	i.cache[view] = columns
	i.logger.Debug("view columns cached",
		zap.String("view", view),
		zap.Int("columns", len(columns)))

	return columns, nil
}

func matchColumn(columns map[string]string, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if physical, ok := columns[normalizeIdent(candidate)]; ok {
			return physical, true
		}
	}
	return "", false
}

// normalizeIdent lowers an identifier and strips everything that is not a
// letter or digit, so "План завершения", "plan_zaversheniya" and
// "PlanZaversheniya" compare under one key. Cyrillic letters survive.
func normalizeIdent(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
