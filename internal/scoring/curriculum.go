package scoring

import (
	"strings"

	"github.com/reflectic/curation-cli/internal/model"
)

// Tier is a curriculum difficulty tier, easy to hard.
type Tier string

const (
	TierBasic        Tier = "basic"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
	TierNuanced      Tier = "nuanced"
)

// TierOrder is the training consumption order, easy to hard.
var TierOrder = []Tier{TierBasic, TierIntermediate, TierAdvanced, TierNuanced}

// Classification thresholds for the deterministic decision rule.
const (
	manyAntiPatterns  = 3
	longBodyWordCount = 120
	multiExampleCount = 2
)

var contradictionMarkers = []string{
	"but also", "at the same time", "contradict", "paradox", "both true",
	"and yet", "on the other hand",
}

// Classify assigns a curriculum tier from record fields alone. Records with
// identical (category, vulnerability, anti-pattern count, body word count,
// example count) always classify identically.
func Classify(rec *model.InsightRecord) Tier {
	deep := rec.VulnerabilityLevel == model.VulnerabilityDeep

	if rec.Category == model.MessyCategory && deep {
		return TierNuanced
	}
	if hasContradictionMarkers(rec.Body) || len(rec.AntiPatterns) >= manyAntiPatterns || deep {
		return TierAdvanced
	}
	if wordCount(rec.Body) >= longBodyWordCount || len(rec.ExampleResponses) >= multiExampleCount {
		return TierIntermediate
	}
	return TierBasic
}

// CurriculumOrder groups the corpus by tier and returns record ids in
// training order: all basic, then intermediate, advanced, nuanced. Within a
// tier, input order is preserved.
func CurriculumOrder(corpus []model.InsightRecord) []string {
	byTier := make(map[Tier][]string, len(TierOrder))
	for i := range corpus {
		t := Classify(&corpus[i])
		byTier[t] = append(byTier[t], corpus[i].ID)
	}

	var out []string
	for _, t := range TierOrder {
		out = append(out, byTier[t]...)
	}
	return out
}

// TierCounts returns the number of records per tier.
func TierCounts(corpus []model.InsightRecord) map[Tier]int {
	counts := make(map[Tier]int, len(TierOrder))
	for i := range corpus {
		counts[Classify(&corpus[i])]++
	}
	return counts
}

func hasContradictionMarkers(body string) bool {
	lower := strings.ToLower(body)
	for _, m := range contradictionMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
