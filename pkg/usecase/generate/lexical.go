package generate

import (
	"math"
	"strings"
	"unicode"
)

// tokenize lowercases the text and splits it into word tokens, dropping
// punctuation.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

func tokenCounts(text string) map[string]float64 {
	counts := make(map[string]float64)
	for _, tok := range tokenize(text) {
		counts[tok]++
	}
	return counts
}

// lexicalCosine computes cosine similarity over token frequency vectors.
// It is the deterministic default for the selector's semantic term.
func lexicalCosine(a, b string) float64 {
	va, vb := tokenCounts(a), tokenCounts(b)
	if len(va) == 0 || len(vb) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for tok, ca := range va {
		normA += ca * ca
		if cb, ok := vb[tok]; ok {
			dot += ca * cb
		}
	}
	for _, cb := range vb {
		normB += cb * cb
	}
	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func vectorCosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
