package textutil

import (
	"math"
	"regexp"
	"strings"
)

// tokenPattern matches runs of lowercase alphanumerics when splitting text
// into fingerprint tokens.
var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// wordPattern matches runs of word characters, including Unicode letters, so
// titles with accented or non-Latin characters tokenize as whole words.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Fingerprint is a term-frequency vector over the significant words of a
// track title, used for order-insensitive similarity comparisons.
type Fingerprint struct {
	terms map[string]float64
	norm  float64
}

// NewFingerprint tokenizes text and returns its fingerprint, or nil when no
// token survives filtering.
func NewFingerprint(text string) *Fingerprint {
	counts := make(map[string]float64)
	for _, term := range Tokenize(text) {
		counts[term]++
	}
	if len(counts) == 0 {
		return nil
	}
	var sumSquares float64
	for _, count := range counts {
		sumSquares += count * count
	}
	return &Fingerprint{terms: counts, norm: math.Sqrt(sumSquares)}
}

// Cosine returns the cosine similarity between two fingerprints in [0, 1].
// A nil receiver or argument compares as completely dissimilar.
func (f *Fingerprint) Cosine(other *Fingerprint) float64 {
	if f == nil || other == nil || f.norm == 0 || other.norm == 0 {
		return 0
	}
	var dot float64
	for term, count := range f.terms {
		dot += count * other.terms[term]
	}
	if dot == 0 {
		return 0
	}
	return dot / (f.norm * other.norm)
}

// Tokenize lowercases text and returns its alphanumeric runs, dropping tokens
// shorter than three characters so connective noise ("a", "of", track numbers)
// does not dominate the vector.
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	terms := raw[:0]
	for _, token := range raw {
		if len(token) >= 3 {
			terms = append(terms, token)
		}
	}
	return terms
}

// Words returns the set of lowercase word-character runs in text. Unlike
// Tokenize it keeps every word regardless of length, so short artist names
// ("U2") still contribute to match scoring.
func Words(text string) map[string]struct{} {
	matches := wordPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(matches))
	for _, w := range matches {
		set[w] = struct{}{}
	}
	return set
}
