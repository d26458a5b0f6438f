package query

import (
	"testing"
)

func TestBuilder_SingleFilter(t *testing.T) {
	b := NewBuilder().Equal("postavshchik", "Acme")

	fragment, params := b.Compile(1)
	if fragment != "postavshchik = $1" {
		t.Errorf("unexpected fragment: %q", fragment)
	}
	if len(params) != 1 || params[0] != "Acme" {
		t.Errorf("expected exactly one bound parameter \"Acme\", got %v", params)
	}
}

func TestBuilder_Contains(t *testing.T) {
	b := NewBuilder().Contains("postavshchik", "acm")

	fragment, params := b.Compile(1)
	if fragment != "postavshchik ILIKE $1" {
		t.Errorf("unexpected fragment: %q", fragment)
	}
	if len(params) != 1 || params[0] != "%acm%" {
		t.Errorf("expected wildcard-wrapped parameter, got %v", params)
	}
}

func TestBuilder_StaticAfterFilters(t *testing.T) {
	b := NewBuilder().
		Equal("kompaniya_id", 7).
		Contains("postavshchik", "Acme").
		NotEmpty("gruppa")

	fragment, params := b.Compile(1)
	want := "kompaniya_id = $1 AND postavshchik ILIKE $2 AND gruppa IS NOT NULL AND gruppa <> ''"
	if fragment != want {
		t.Errorf("fragment mismatch:\n got: %s\nwant: %s", fragment, want)
	}
	if len(params) != 2 {
		t.Errorf("expected 2 params, got %d", len(params))
	}
}

func TestBuilder_StaticOnly(t *testing.T) {
	// Zero caller filters: the static predicates become the sole WHERE clause
	// without a dangling AND.
	b := NewBuilder().NotEmpty("gruppa")

	where, params := b.Where(1)
	if where != " WHERE gruppa IS NOT NULL AND gruppa <> ''" {
		t.Errorf("unexpected clause: %q", where)
	}
	if len(params) != 0 {
		t.Errorf("expected no params, got %v", params)
	}
}

func TestBuilder_Empty(t *testing.T) {
	b := NewBuilder()

	if !b.Empty() {
		t.Error("fresh builder should be empty")
	}
	where, params := b.Where(1)
	if where != "" || params != nil {
		t.Errorf("empty builder should produce no clause, got %q / %v", where, params)
	}
}

func TestBuilder_PlaceholderOffset(t *testing.T) {
	b := NewBuilder().Equal("period", "current").Equal("kompaniya_id", 3)

	fragment, params := b.Compile(4)
	want := "period = $4 AND kompaniya_id = $5"
	if fragment != want {
		t.Errorf("fragment mismatch:\n got: %s\nwant: %s", fragment, want)
	}
	if len(params) != 2 {
		t.Errorf("expected 2 params, got %d", len(params))
	}
}
