package reports

import (
	"testing"
)

func TestCapitalScheme_EveryValueLandsInOneBucket(t *testing.T) {
	// Probe a broad range including all boundaries; each value must map to
	// exactly one label and that label must belong to the scheme.
	known := make(map[string]bool)
	for _, l := range CapitalScheme.Labels() {
		known[l] = true
	}

	probes := []float64{
		-5, 0, 1, 999_999, 1_000_000, 5_000_000, 9_999_999.99,
		10_000_000, 55_000_000, 99_999_999, 100_000_000, 1e12,
	}
	for _, v := range probes {
		v := v
		label := CapitalScheme.Label(&v)
		if label == "" {
			t.Errorf("value %v produced empty label", v)
		}
		if !known[label] {
			t.Errorf("value %v mapped to unknown label %q", v, label)
		}
	}
}

func TestCapitalScheme_Boundaries(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{999_999.99, "до 1 млн ₽"},
		{1_000_000, "1–10 млн ₽"}, // upper bound is exclusive
		{10_000_000, "10–100 млн ₽"},
		{100_000_000, "свыше 100 млн ₽"},
	}
	for _, tc := range cases {
		v := tc.value
		if got := CapitalScheme.Label(&v); got != tc.want {
			t.Errorf("Label(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}

	if got := CapitalScheme.Label(nil); got != "не указан" {
		t.Errorf("nil value should map to the null label, got %q", got)
	}
}

func TestScheme_RankFollowsDeclarationOrder(t *testing.T) {
	// "до 1 млн ₽" must sort before "10–100 млн ₽" even though plain string
	// comparison says otherwise.
	labels := CapitalScheme.Labels()
	for i := 1; i < len(labels); i++ {
		if CapitalScheme.Rank(labels[i-1]) >= CapitalScheme.Rank(labels[i]) {
			t.Errorf("rank of %q should precede %q", labels[i-1], labels[i])
		}
	}
	if CapitalScheme.Rank("что-то другое") <= CapitalScheme.Rank(CapitalScheme.CatchAll) {
		t.Error("unknown labels must sort after the catch-all")
	}
}

func TestClampProgress(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{10, 25}, // ceiling semantics
		{25, 25},
		{26, 50},
		{50, 50},
		{74.9, 75},
		{99, 100},
		{100, 100},
		{130, 100},
		{-5, 0},
	}
	for _, tc := range cases {
		if got := ClampProgress(tc.in); got != tc.want {
			t.Errorf("ClampProgress(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestClampProgress_AlwaysOnStep(t *testing.T) {
	steps := make(map[int]bool)
	for _, s := range ProgressSteps {
		steps[s] = true
	}
	for v := -10.0; v <= 120; v += 0.5 {
		if got := ClampProgress(v); !steps[got] {
			t.Fatalf("ClampProgress(%v) = %d is not a defined step", v, got)
		}
	}
}

func TestTierRankSeverityOrder(t *testing.T) {
	if TierRank("Критический") >= TierRank("Высокий") {
		t.Error("Критический must outrank Высокий")
	}
	if TierRank("Высокий") >= TierRank("Средний") {
		t.Error("Высокий must outrank Средний")
	}
	if TierRank("Средний") >= TierRank("Низкий") {
		t.Error("Средний must outrank Низкий")
	}
	if TierRank("") != len(CompanyTierOrder) {
		t.Error("empty tier must sort last")
	}
}

func TestRiskScore(t *testing.T) {
	if got := RiskScore(0.5, "Критическое"); got != 2.0 {
		t.Errorf("RiskScore(0.5, Критическое) = %v, want 2.0", got)
	}
	if got := RiskScore(1.0, "Низкое"); got != 1.0 {
		t.Errorf("RiskScore(1.0, Низкое) = %v, want 1.0", got)
	}
	if got := RiskScore(0.9, "Неизвестное"); got != 0 {
		t.Errorf("unknown impact should score 0, got %v", got)
	}
}
