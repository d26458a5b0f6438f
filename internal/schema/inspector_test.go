package schema

import (
	"strings"
	"testing"
)

func TestNormalizeIdent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Phase", "phase"},
		{"plan_zaversheniya", "planzaversheniya"},
		{"План завершения", "планзавершения"},
		{"ЭТАП", "этап"},
		{"due-date", "duedate"},
		{"progress%", "progress"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := normalizeIdent(tc.in); got != tc.want {
			t.Errorf("normalizeIdent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMatchColumn(t *testing.T) {
	// Simulates a view whose headers are localized with mixed punctuation.
	columns := map[string]string{}
	for _, physical := range []string{"Этап", "Статус", "plan_zaversheniya", "Прогресс %"} {
		columns[normalizeIdent(physical)] = physical
	}

	physical, ok := matchColumn(columns, []string{"phase", "etap", "этап"})
	if !ok || physical != "Этап" {
		t.Errorf("expected localized phase column, got %q (ok=%v)", physical, ok)
	}

	// Preference order: the first matching candidate wins.
	physical, ok = matchColumn(columns, []string{"статус", "status"})
	if !ok || physical != "Статус" {
		t.Errorf("expected status column, got %q (ok=%v)", physical, ok)
	}

	// Punctuation-tolerant: "План завершения" resolves from snake_case too.
	physical, ok = matchColumn(columns, []string{"план завершения", "plan-zaversheniya"})
	if !ok || physical != "plan_zaversheniya" {
		t.Errorf("expected planned-end column, got %q (ok=%v)", physical, ok)
	}

	if _, ok := matchColumn(columns, []string{"nonexistent"}); ok {
		t.Error("expected no match for unknown candidate")
	}
}

func TestResolutionError(t *testing.T) {
	err := &ResolutionError{
		View:       "okr_plan",
		Candidates: []string{"phase", "etap"},
		Found:      []string{"zadacha", "status"},
	}

	msg := err.Error()
	for _, fragment := range []string{"okr_plan", "phase", "zadacha"} {
		if !strings.Contains(msg, fragment) {
			t.Errorf("diagnostic %q should mention %q", msg, fragment)
		}
	}
}
