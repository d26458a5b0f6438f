package reports

import (
	"strings"
	"testing"
)

func TestBuildFunnel_StatusDistribution(t *testing.T) {
	// A 5/3/2 distribution across one phase must sum to total=10.
	groups := []funnelRow{
		{Phase: "Проектирование", Status: "Не начат", Progress: 0, Count: 5},
		{Phase: "Проектирование", Status: "В работе", Progress: 50, Count: 3},
		{Phase: "Проектирование", Status: "Завершен", Progress: 100, Count: 2},
	}

	phases := buildFunnel(groups)
	if len(phases) != len(PhaseOrder) {
		t.Fatalf("expected %d phases, got %d", len(PhaseOrder), len(phases))
	}

	design := phases[1]
	if design.Phase != "Проектирование" {
		t.Fatalf("phase order broken: got %q at position 1", design.Phase)
	}
	if design.NotStarted != 5 || design.InProgress != 3 || design.Done != 2 {
		t.Errorf("distribution mismatch: %+v", design)
	}
	if design.Total != 10 {
		t.Errorf("total = %d, want 10", design.Total)
	}
}

func TestBuildFunnel_CompletedBucket(t *testing.T) {
	// Implementation tasks at 100% form a bucket distinct from the same
	// phase below 100%.
	groups := []funnelRow{
		{Phase: "Реализация", Status: "Завершен", Progress: 100, Count: 4},
		{Phase: "Реализация", Status: "В работе", Progress: 75, Count: 6},
		{Phase: "Проектирование", Status: "Завершен", Progress: 100, Count: 3},
	}

	phases := buildFunnel(groups)
	impl := phases[2]
	if impl.Completed != 4 {
		t.Errorf("implementation completed = %d, want 4", impl.Completed)
	}
	if impl.Done != 0 {
		t.Errorf("100%% implementation tasks must not double-count as done, got %d", impl.Done)
	}
	if impl.InProgress != 6 {
		t.Errorf("implementation in-progress = %d, want 6", impl.InProgress)
	}

	// Design at 100% stays a plain done bucket.
	if phases[1].Completed != 0 || phases[1].Done != 3 {
		t.Errorf("design phase must not gain a completed bucket: %+v", phases[1])
	}
}

func TestBuildFunnel_WeightedCompletion(t *testing.T) {
	groups := []funnelRow{
		{Phase: "Требования", Status: "В работе", Progress: 25, Count: 3},
		{Phase: "Требования", Status: "В работе", Progress: 75, Count: 1},
	}

	phases := buildFunnel(groups)
	req := phases[0]

	// Count-weighted mean: (3*25 + 1*75) / 4 = 37.5, not the plain average
	// of bucket values (50).
	if req.WeightedPct != 37.5 {
		t.Errorf("weighted pct = %v, want 37.5", req.WeightedPct)
	}
}

func TestBuildFunnel_WeightedReducesToPlainAverage(t *testing.T) {
	// Equal counts per bucket: weighted mean equals the plain average.
	groups := []funnelRow{
		{Phase: "Требования", Status: "В работе", Progress: 25, Count: 2},
		{Phase: "Требования", Status: "В работе", Progress: 75, Count: 2},
	}

	phases := buildFunnel(groups)
	if phases[0].WeightedPct != 50 {
		t.Errorf("weighted pct = %v, want 50", phases[0].WeightedPct)
	}
}

func TestBuildFunnel_Bounds(t *testing.T) {
	groups := []funnelRow{
		{Phase: "Требования", Status: "В работе", Progress: 130, Count: 5},
		{Phase: "Проектирование", Status: "Не начат", Progress: -10, Count: 2},
	}

	for _, p := range buildFunnel(groups) {
		if p.WeightedPct < 0 || p.WeightedPct > 100 {
			t.Errorf("phase %s weighted pct %v out of [0,100]", p.Phase, p.WeightedPct)
		}
	}
}

func TestBuildFunnel_EmptyPhaseReportsZero(t *testing.T) {
	phases := buildFunnel(nil)
	for _, p := range phases {
		if p.WeightedPct != 0 {
			t.Errorf("empty phase %s must report 0%%, got %v", p.Phase, p.WeightedPct)
		}
		if p.Total != 0 {
			t.Errorf("empty phase %s must have zero total, got %d", p.Phase, p.Total)
		}
	}
}

func TestBuildFunnel_ClampsOffStepProgress(t *testing.T) {
	// A value of 10 maps to the 25 bucket under ceiling semantics.
	groups := []funnelRow{
		{Phase: "Требования", Status: "В работе", Progress: 10, Count: 1},
	}

	phases := buildFunnel(groups)
	if phases[0].WeightedPct != 25 {
		t.Errorf("off-step progress must clamp up: got %v, want 25", phases[0].WeightedPct)
	}
}

func TestBuildFunnel_IgnoresUnknownPhase(t *testing.T) {
	groups := []funnelRow{
		{Phase: "Внедрение", Status: "В работе", Progress: 50, Count: 9},
	}

	for _, p := range buildFunnel(groups) {
		if p.Total != 0 {
			t.Errorf("unknown phase leaked into %s: %+v", p.Phase, p)
		}
	}
}

func TestCanonicalPhase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Требования", "Требования"},
		{"  реализация ", "Реализация"},
		{"design", "Проектирование"},
		{"Внедрение", ""},
	}
	for _, tc := range cases {
		if got := canonicalPhase(tc.in); got != tc.want {
			t.Errorf("canonicalPhase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Не начат", statusNotStarted},
		{"В РАБОТЕ", statusInProgress},
		{"завершено", statusDone},
		{"отменен", ""},
	}
	for _, tc := range cases {
		if got := canonicalStatus(tc.in); got != tc.want {
			t.Errorf("canonicalStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestActiveTaskPredicateCoalescesNullStatus(t *testing.T) {
	got := activeTaskPredicate("status")

	// A NULL status must coalesce to '' and stay active; a bare NOT IN
	// would evaluate to NULL and silently drop the row.
	if !strings.Contains(got, "COALESCE(status, '')") {
		t.Errorf("predicate must NULL-coalesce the status column, got %q", got)
	}
	for _, terminal := range []string{"'завершен'", "'завершено'", "'done'"} {
		if !strings.Contains(got, terminal) {
			t.Errorf("predicate must exclude terminal status %s, got %q", terminal, got)
		}
	}
}
