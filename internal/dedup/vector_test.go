package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorize_TokenFiltering(t *testing.T) {
	// Tokens of 3 characters or fewer are dropped.
	vec := Vectorize("The cat sat with grief and more grief")
	assert.NotContains(t, vec, "cat")
	assert.NotContains(t, vec, "the")
	assert.Contains(t, vec, "grief")
	assert.Contains(t, vec, "with")

	// grief appears 2 of 4 kept tokens: with, grief, more, grief.
	assert.InDelta(t, 0.5, vec["grief"], 1e-9)
}

func TestVectorize_Empty(t *testing.T) {
	assert.Empty(t, Vectorize(""))
	assert.Empty(t, Vectorize("a an it be"))
}

func TestCosine_Identical(t *testing.T) {
	v := Vectorize("grief comes in waves not stages")
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
}

func TestCosine_Symmetric(t *testing.T) {
	a := Vectorize("naming the feeling reduces its grip")
	b := Vectorize("labeling emotions reduces their power and grip")
	assert.InDelta(t, Cosine(a, b), Cosine(b, a), 1e-12)
}

func TestCosine_ZeroVector(t *testing.T) {
	a := Vectorize("grief comes in waves")
	assert.Equal(t, 0.0, Cosine(a, TermVector{}))
	assert.Equal(t, 0.0, Cosine(TermVector{}, a))
	assert.Equal(t, 0.0, Cosine(TermVector{}, TermVector{}))
}

func TestCosine_Disjoint(t *testing.T) {
	a := Vectorize("grief waves ocean tide")
	b := Vectorize("boundary setting practice habit")
	assert.Equal(t, 0.0, Cosine(a, b))
}

func TestCosine_Range(t *testing.T) {
	a := Vectorize("small wins compound into momentum over time")
	b := Vectorize("small wins build momentum slowly")
	sim := Cosine(a, b)
	assert.Greater(t, sim, 0.0)
	assert.LessOrEqual(t, sim, 1.0)
}
