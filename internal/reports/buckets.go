package reports

import "math"

// Bucket is one range of a scheme: values strictly below Upper that did not
// fit an earlier bucket get Label.
type Bucket struct {
	Upper float64
	Label string
}

// Scheme classifies a numeric value into a named, ordered bucket. Buckets are
// evaluated in declaration order and terminated by CatchAll; declaration
// order is also the display sort order. NullLabel covers missing input.
type Scheme struct {
	Name      string
	Buckets   []Bucket
	CatchAll  string
	NullLabel string
}

// Label classifies v. A nil value maps to NullLabel.
func (s Scheme) Label(v *float64) string {
	if v == nil {
		return s.NullLabel
	}
	for _, b := range s.Buckets {
		if *v < b.Upper {
			return b.Label
		}
	}
	return s.CatchAll
}

// Labels returns all bucket labels in declaration order, catch-all last.
// NullLabel is not part of the order; callers append it when relevant.
func (s Scheme) Labels() []string {
	labels := make([]string, 0, len(s.Buckets)+1)
	for _, b := range s.Buckets {
		labels = append(labels, b.Label)
	}
	return append(labels, s.CatchAll)
}

// Rank returns the position of a label in declaration order, or the length of
// the scheme for unknown labels so they sort last.
func (s Scheme) Rank(label string) int {
	for i, b := range s.Buckets {
		if b.Label == label {
			return i
		}
	}
	if label == s.CatchAll {
		return len(s.Buckets)
	}
	return len(s.Buckets) + 1
}

// CapitalScheme groups companies by authorized capital, in rubles.
var CapitalScheme = Scheme{
	Name: "capital",
	Buckets: []Bucket{
		{Upper: 1_000_000, Label: "до 1 млн ₽"},
		{Upper: 10_000_000, Label: "1–10 млн ₽"},
		{Upper: 100_000_000, Label: "10–100 млн ₽"},
	},
	CatchAll:  "свыше 100 млн ₽",
	NullLabel: "не указан",
}

// ProgressSteps is the discrete completion vocabulary of OKR tracking.
var ProgressSteps = []int{0, 25, 50, 75, 100}

// ClampProgress snaps a completion percentage onto ProgressSteps with ceiling
// semantics: 10 maps to 25, not 0. Values beyond 100 clamp to 100, negatives
// to 0.
func ClampProgress(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	for _, step := range ProgressSteps {
		if v <= float64(step) {
			return step
		}
	}
	return 100
}

// Risk impact tiers in severity order, most severe first, with the weights
// used for risk scoring.
var (
	ImpactOrder   = []string{"Критическое", "Высокое", "Среднее", "Низкое"}
	ImpactWeights = map[string]float64{
		"Критическое": 4,
		"Высокое":     3,
		"Среднее":     2,
		"Низкое":      1,
	}
)

// CompanyTierOrder is the fixed severity order of company risk tiers. Reports
// sort by this order, never alphabetically.
var CompanyTierOrder = []string{"Критический", "Высокий", "Средний", "Низкий"}

// TierRank returns the severity position of a company risk tier; unknown or
// empty tiers sort last.
func TierRank(tier string) int {
	for i, t := range CompanyTierOrder {
		if t == tier {
			return i
		}
	}
	return len(CompanyTierOrder)
}

// RiskScore derives the composite score of a risk: probability in (0,1]
// times the impact-tier weight. Unknown tiers weigh 0 so they rank last.
func RiskScore(probability float64, impact string) float64 {
	return probability * ImpactWeights[impact]
}
