package reports

import (
	"context"
	"fmt"

	"github.com/kupe-dashboard/analytics-engine/internal/query"
	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

const (
	defaultLookupLimit = 20
	maxLookupLimit     = 100
)

// lookup columns are a closed catalog; the attribute name selects a known
// (table, column) pair and never reaches SQL text from user input.
var lookupSources = map[string]struct {
	table  string
	column string
}{
	"suppliers": {table: "komponenty", column: "postavshchik"},
	"groups":    {table: "komponenty", column: "gruppa"},
	"cities":    {table: "vizity", column: "gorod"},
}

// ClampLimit bounds a caller-supplied page size to a safe window.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return defaultLookupLimit
	}
	if limit > maxLookupLimit {
		return maxLookupLimit
	}
	return limit
}

// Lookup returns the bounded list of distinct values of one enumerable
// attribute, optionally narrowed by a case-insensitive substring search.
func (e *Engine) Lookup(ctx context.Context, name, search string, limit int) (*types.LookupList, error) {
	source, ok := lookupSources[name]
	if !ok {
		return nil, fmt.Errorf("unknown lookup %s: %w", name, ErrNotFound)
	}

	limit = ClampLimit(limit)
	list := types.EmptyLookupList()
	list.Limit = limit

	err := e.withConn(ctx, func(q querier) error {
		b := query.NewBuilder()
		if search != "" {
			b.Contains(source.column, search)
		}
		b.NotEmpty(source.column)

		where, params := b.Where(2)
		values, err := stringColumn(ctx, q, fmt.Sprintf(`
			SELECT DISTINCT %s
			FROM %s%s
			ORDER BY %s
			LIMIT $1
		`, source.column, source.table, where, source.column),
			append([]interface{}{limit}, params...)...,
		)
		if err != nil {
			return fmt.Errorf("failed to query lookup %s: %w", name, err)
		}
		list.Values = values
		return nil
	})
	if err != nil {
		return nil, err
	}

	list.Count = len(list.Values)
	list.Meta = NewMeta(e.currency)
	return list, nil
}
