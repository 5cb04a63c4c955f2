// Package similarity scores how alike two texts are.
//
// A Service dispatches a comparison to the lexical (TF-IDF) or the semantic
// (embedding) scorer and returns the score, clamped to [-1, 1] and rounded to
// four decimals, together with the label of the method used.
package similarity

import (
	"math"
	"strings"

	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

// Method selects a scoring strategy.
type Method string

const (
	// MethodLexical scores term overlap with TF-IDF.
	MethodLexical Method = "lexical"

	// MethodSemantic scores embedding similarity.
	MethodSemantic Method = "semantic"
)

// LexicalLabel is the label reported for MethodLexical.
const LexicalLabel = "TF-IDF"

// Methods returns the valid methods.
func Methods() []Method {
	return []Method{MethodLexical, MethodSemantic}
}

// ParseMethod validates a method name. Surrounding whitespace and case are
// ignored; anything else unknown is an InvalidMethod error.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodLexical, MethodSemantic:
		return m, nil
	default:
		return "", simerrors.InvalidMethod(s, methodNames())
	}
}

func methodNames() []string {
	names := make([]string, 0, len(Methods()))
	for _, m := range Methods() {
		names = append(names, string(m))
	}
	return names
}

// Result is the outcome of one comparison.
type Result struct {
	Score  float64 `json:"score"`
	Method string  `json:"method"`
}

// Percentage formats the score as a percentage, e.g. "42.50%".
func (r Result) Percentage() string {
	return formatPercent(r.Score)
}

// normalizeScore clamps to [-1, 1] and rounds to 4 decimals.
// NaN, which cannot come from a well-formed cosine, maps to 0.
func normalizeScore(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	x = math.Max(-1, math.Min(1, x))
	r := math.Round(x*1e4) / 1e4
	if r == 0 {
		return 0 // no "-0"
	}
	return r
}

// cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
