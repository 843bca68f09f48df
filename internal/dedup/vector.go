package dedup

import (
	"math"
	"strings"
	"unicode"
)

// TermVector is a length-normalized term-frequency vector over the
// normalized tokens of a text. It is the single notion of "semantic"
// similarity in this system: a bag-of-terms frequency model, not a learned
// embedding.
type TermVector map[string]float64

// Vectorize builds a TermVector: lowercased, punctuation stripped, tokens
// longer than 3 characters, frequencies divided by the kept token count.
func Vectorize(text string) TermVector {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return TermVector{}
	}

	vec := make(TermVector, len(tokens))
	for _, tok := range tokens {
		vec[tok]++
	}
	n := float64(len(tokens))
	for tok := range vec {
		vec[tok] /= n
	}
	return vec
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	kept := fields[:0]
	for _, f := range fields {
		if len(f) > 3 {
			kept = append(kept, f)
		}
	}
	return kept
}

// Cosine returns the cosine similarity of two term vectors, defined as 0
// when either vector is all-zero. Symmetric: Cosine(a, b) == Cosine(b, a).
func Cosine(a, b TermVector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate the smaller map.
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot float64
	for tok, av := range a {
		if bv, ok := b[tok]; ok {
			dot += av * bv
		}
	}
	if dot == 0 {
		return 0
	}

	var na, nb float64
	for _, v := range a {
		na += v * v
	}
	for _, v := range b {
		nb += v * v
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
