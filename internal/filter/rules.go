package filter

import (
	"regexp"
	"strings"

	"github.com/reflectic/curation-cli/internal/model"
)

// Rule is one pattern in a rule family: a predicate over lowercased record
// text, a human-readable descriptor, and the severity a match carries.
type Rule struct {
	Match      func(text string) bool
	Descriptor string
	Severity   model.Severity
}

// Family is a named list of rules sharing a flag category and a fixed
// confidence. Confidence is a design constant per family, not a learned
// estimate; changing it breaks determinism of re-runs.
type Family struct {
	Name       string
	Category   model.FlagCategory
	Confidence float64
	// FirstMatchOnly yields at most one flag per record; otherwise every
	// matching rule produces a flag.
	FirstMatchOnly bool
	// BodyOnly evaluates rules against the record body instead of the full
	// concatenated text; used by structural heuristics.
	BodyOnly bool
	Rules    []Rule
}

func substringRule(descriptor string, severity model.Severity, needles ...string) Rule {
	return Rule{
		Match: func(text string) bool {
			for _, n := range needles {
				if strings.Contains(text, n) {
					return true
				}
			}
			return false
		},
		Descriptor: descriptor,
		Severity:   severity,
	}
}

func regexpRule(descriptor string, severity model.Severity, pattern string) Rule {
	re := regexp.MustCompile(pattern)
	return Rule{
		Match:      re.MatchString,
		Descriptor: descriptor,
		Severity:   severity,
	}
}

// HarmfulFamily returns the harmful-content rule family (confidence 0.9,
// first match wins).
func HarmfulFamily() Family {
	return Family{
		Name:           "harmful",
		Category:       model.FlagHarmful,
		Confidence:     0.9,
		FirstMatchOnly: true,
		Rules: []Rule{
			substringRule("dangerous advice", model.SeverityCritical,
				"stop taking your meds", "stop taking medication", "don't need therapy",
				"quit therapy", "ignore your doctor", "medication is a crutch"),
			substringRule("self-harm normalizing", model.SeverityCritical,
				"hurting yourself is", "self-harm can be", "punish yourself",
				"you deserve the pain"),
			substringRule("toxic positivity", model.SeverityHigh,
				"just think positive", "good vibes only", "happiness is a choice",
				"everything happens for a reason", "just be grateful"),
			regexpRule("prescriptive judgment", model.SeverityHigh,
				`you (should just|must|have to|need to) (get over|move on|stop being)`),
			substringRule("ableist language", model.SeverityHigh,
				"stop being lazy", "it's all in your head", "just try harder",
				"anyone can do it if"),
			substringRule("privilege-blind advice", model.SeverityMedium,
				"just quit your job", "just hire someone", "money doesn't matter",
				"just take a vacation"),
		},
	}
}

// BiasFamily returns the stereotype-bias rule family (confidence 0.85,
// first match wins). Each rule's descriptor carries the bias type.
func BiasFamily() Family {
	return Family{
		Name:           "bias",
		Category:       model.FlagBias,
		Confidence:     0.85,
		FirstMatchOnly: true,
		Rules: []Rule{
			regexpRule("gender stereotype", model.SeverityHigh,
				`(women|men) (are|always|never|can't|don't) `),
			regexpRule("cultural stereotype", model.SeverityHigh,
				`(asians?|americans?|africans?|europeans?|latinos?) (are|always|never) `),
			regexpRule("age stereotype", model.SeverityMedium,
				`(millennials?|boomers?|gen z|older people|young people) (are|always|never|just) `),
			regexpRule("socioeconomic stereotype", model.SeverityMedium,
				`(poor|rich|wealthy) people (are|always|never|just) `),
		},
	}
}

// Low-quality structural floors.
const (
	minBodyChars = 80
	minBodyWords = 15
	maxEmphasis  = 3
)

var absoluteMarkers = []string{"always", "never", "everyone", "no one", "nobody"}

var simplisticOpeners = []string{
	"just ", "simply ", "all you need", "the only thing", "it's easy",
}

// LowQualityFamily returns the structural low-quality heuristics
// (confidence 0.7, one flag per failed heuristic).
func LowQualityFamily() Family {
	return Family{
		Name:       "low_quality",
		Category:   model.FlagLowQuality,
		Confidence: 0.7,
		BodyOnly:   true,
		Rules: []Rule{
			{
				Match:      func(text string) bool { return len(text) < minBodyChars },
				Descriptor: "body below minimum length",
				Severity:   model.SeverityMedium,
			},
			{
				Match:      func(text string) bool { return len(strings.Fields(text)) < minBodyWords },
				Descriptor: "body below minimum word count",
				Severity:   model.SeverityMedium,
			},
			{
				Match: func(text string) bool {
					n := 0
					for _, m := range absoluteMarkers {
						n += strings.Count(text, m)
					}
					return n >= 2
				},
				Descriptor: "absolute language",
				Severity:   model.SeverityLow,
			},
			{
				Match: func(text string) bool {
					return strings.Count(text, "!") > maxEmphasis || strings.Contains(text, "!!")
				},
				Descriptor: "excessive emphasis punctuation",
				Severity:   model.SeverityLow,
			},
			{
				Match: func(text string) bool {
					for _, o := range simplisticOpeners {
						if strings.HasPrefix(text, o) {
							return true
						}
					}
					return false
				},
				Descriptor: "simplistic opener",
				Severity:   model.SeverityLow,
			},
		},
	}
}

// DefaultFamilies returns the three built-in rule families.
func DefaultFamilies() []Family {
	return []Family{HarmfulFamily(), BiasFamily(), LowQualityFamily()}
}
