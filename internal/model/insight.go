package model

import "time"

// Status represents the review state of an insight record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusNeedsEdit Status = "needs_edit"
)

// Domain is one of the five fixed experience buckets used for balance targets.
type Domain string

const (
	DomainPain         Domain = "pain"
	DomainJoy          Domain = "joy"
	DomainConnection   Domain = "connection"
	DomainGrowth       Domain = "growth"
	DomainAuthenticity Domain = "authenticity"
)

// VulnerabilityLevel describes emotional depth of an insight.
type VulnerabilityLevel string

const (
	VulnerabilitySurface  VulnerabilityLevel = "surface"
	VulnerabilityModerate VulnerabilityLevel = "moderate"
	VulnerabilityDeep     VulnerabilityLevel = "deep"
)

// ConfidenceLevel is the extractor's self-reported confidence in a candidate.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// categoryDomains is the fixed many-to-one category -> domain mapping.
// Balance targets depend on this map staying closed: unknown categories are
// rejected at intake rather than coerced.
var categoryDomains = map[string]Domain{
	"grief_processing":    DomainPain,
	"heartbreak_recovery": DomainPain,
	"shame_spirals":       DomainPain,
	"savoring_joy":        DomainJoy,
	"small_wins":          DomainJoy,
	"loneliness":          DomainConnection,
	"conflict_repair":     DomainConnection,
	"asking_for_help":     DomainConnection,
	"habit_change":        DomainGrowth,
	"self_discipline":     DomainGrowth,
	"messy_growth":        DomainGrowth,
	"people_pleasing":     DomainAuthenticity,
	"boundary_setting":    DomainAuthenticity,
}

// MessyCategory is the category whose records carry contradictory, non-linear
// growth narratives; used by curriculum classification.
const MessyCategory = "messy_growth"

// KnownCategory reports whether category is part of the fixed taxonomy.
func KnownCategory(category string) bool {
	_, ok := categoryDomains[category]
	return ok
}

// DomainOf returns the domain a category belongs to.
func DomainOf(category string) (Domain, bool) {
	d, ok := categoryDomains[category]
	return d, ok
}

// Categories returns all known categories.
func Categories() []string {
	out := make([]string, 0, len(categoryDomains))
	for c := range categoryDomains {
		out = append(out, c)
	}
	return out
}

// CategoriesInDomain returns the number of categories mapped to a domain.
func CategoriesInDomain(d Domain) int {
	n := 0
	for _, dom := range categoryDomains {
		if dom == d {
			n++
		}
	}
	return n
}

// KnownConfidenceLevel reports whether level is a valid extractor confidence.
func KnownConfidenceLevel(level string) bool {
	switch ConfidenceLevel(level) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// ConfidenceScore maps an extractor confidence level to a numeric score.
func ConfidenceScore(level ConfidenceLevel) float64 {
	switch level {
	case ConfidenceHigh:
		return 0.9
	case ConfidenceMedium:
		return 0.7
	case ConfidenceLow:
		return 0.5
	}
	return 0.5
}

// InsightRecord is the unit of curation: a short human-authored insight
// extracted from an interview or transcript, plus its governance metadata.
type InsightRecord struct {
	ID          string `json:"id"`
	SourceID    string `json:"source_id"`
	SourceLabel string `json:"source_label"`

	Domain   Domain `json:"domain"`
	Category string `json:"category"`

	Title               string   `json:"title"`
	Body                string   `json:"body"`
	CoachingImplication string   `json:"coaching_implication,omitempty"`
	Quotes              []string `json:"quotes,omitempty"`
	AntiPatterns        []string `json:"anti_patterns,omitempty"`
	ExampleResponses    []string `json:"example_responses,omitempty"`

	VulnerabilityLevel VulnerabilityLevel `json:"vulnerability_level"`

	QualityScore       float64 `json:"quality_score"`
	SpecificityScore   float64 `json:"specificity_score"`
	ActionabilityScore float64 `json:"actionability_score"`
	SafetyScore        float64 `json:"safety_score"`
	NoveltyScore       float64 `json:"novelty_score"`
	Confidence         float64 `json:"confidence_score"`

	// ContentHash is a pure function of normalized Title + Body; equal
	// normalized text always yields equal hash.
	ContentHash string `json:"content_hash"`

	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	UsedInTraining bool       `json:"used_in_training"`
}

// FullText concatenates the free-text payload fields for rule evaluation
// and similarity vectors.
func (r *InsightRecord) FullText() string {
	text := r.Title + " " + r.Body
	if r.CoachingImplication != "" {
		text += " " + r.CoachingImplication
	}
	for _, q := range r.Quotes {
		text += " " + q
	}
	return text
}
