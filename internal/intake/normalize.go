package intake

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes free text for hashing: Unicode NFKC, lowercase,
// punctuation stripped, whitespace collapsed. Two texts that differ only in
// whitespace, punctuation, or case normalize identically.
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// ContentHash returns the exact-dedup hash of an insight's title and body.
// It is a pure function of the normalized text: equal normalized text always
// yields an equal hash.
func ContentHash(title, body string) string {
	sum := sha256.Sum256([]byte(Normalize(title + " " + body)))
	return hex.EncodeToString(sum[:])
}
