package query

import (
	"fmt"
	"strings"
)

// Op is a predicate operator understood by the compiler.
type Op string

const (
	OpEqual    Op = "="
	OpContains Op = "ILIKE"
)

// Predicate is one (column, operator, value) condition. Values are always
// bound as positional parameters, never interpolated into SQL text.
type Predicate struct {
	Column string
	Op     Op
	Value  interface{}
}

// Builder collects optional filter predicates plus static (parameter-free)
// conditions and compiles them into a parameterized WHERE fragment.
type Builder struct {
	preds   []Predicate
	statics []string
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Equal adds an exact-match condition.
func (b *Builder) Equal(column string, value interface{}) *Builder {
	b.preds = append(b.preds, Predicate{Column: column, Op: OpEqual, Value: value})
	return b
}

// Contains adds a case-insensitive substring condition.
func (b *Builder) Contains(column, substr string) *Builder {
	b.preds = append(b.preds, Predicate{
		Column: column,
		Op:     OpContains,
		Value:  "%" + substr + "%",
	})
	return b
}

// NotEmpty adds a static non-null, non-empty guard. Static conditions are
// always emitted after the caller-supplied predicates.
func (b *Builder) NotEmpty(column string) *Builder {
	b.statics = append(b.statics, fmt.Sprintf("%s IS NOT NULL AND %s <> ''", column, column))
	return b
}

// Static adds a raw parameter-free condition. The caller owns its safety;
// it must never contain user input.
func (b *Builder) Static(condition string) *Builder {
	b.statics = append(b.statics, condition)
	return b
}

// Empty reports whether no conditions of any kind were added.
func (b *Builder) Empty() bool {
	return len(b.preds) == 0 && len(b.statics) == 0
}

// Compile returns the AND-joined fragment (no leading WHERE) and the ordered
// parameter list. Placeholders are numbered from start, so a query that
// already binds n parameters passes start = n+1.
func (b *Builder) Compile(start int) (string, []interface{}) {
	parts := make([]string, 0, len(b.preds)+len(b.statics))
	params := make([]interface{}, 0, len(b.preds))

	idx := start
	for _, p := range b.preds {
		parts = append(parts, fmt.Sprintf("%s %s $%d", p.Column, p.Op, idx))
		params = append(params, p.Value)
		idx++
	}
	parts = append(parts, b.statics...)

	return strings.Join(parts, " AND "), params
}

// Where returns a fragment with a leading " WHERE ", or the empty string when
// no conditions exist, so it can be appended to a query verbatim.
func (b *Builder) Where(start int) (string, []interface{}) {
	if b.Empty() {
		return "", nil
	}
	fragment, params := b.Compile(start)
	return " WHERE " + fragment, params
}
