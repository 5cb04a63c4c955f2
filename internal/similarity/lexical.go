package similarity

import (
	"maps"
	"math"
	"slices"

	"github.com/Aman-CERP/simscore/internal/analysis"
)

// LexicalScorer compares texts by TF-IDF over the two-document corpus they
// form. It keeps no state between calls and is safe for concurrent use.
type LexicalScorer struct {
	analyzer *analysis.Analyzer
}

// NewLexicalScorer creates a scorer using analyzer for tokenization.
func NewLexicalScorer(analyzer *analysis.Analyzer) *LexicalScorer {
	return &LexicalScorer{analyzer: analyzer}
}

// Score returns the cosine similarity of the TF-IDF vectors of text1 and
// text2. It returns 0 when either text has no terms left after stopword
// removal.
func (s *LexicalScorer) Score(text1, text2 string) float64 {
	tf1 := s.analyzer.Counts(text1)
	tf2 := s.analyzer.Counts(text2)
	if len(tf1) == 0 || len(tf2) == 0 {
		return 0
	}

	v1, v2 := tfidfVectors(tf1, tf2)
	var dotProduct float64
	for i := range v1 {
		dotProduct += v1[i] * v2[i]
	}
	return dotProduct
}

// tfidfVectors returns L2-normalized TF-IDF vectors over the sorted joint
// vocabulary. Weights are raw counts times the smoothed idf
// ln((1+n)/(1+df))+1 with n=2 documents.
func tfidfVectors(tf1, tf2 map[string]int) ([]float64, []float64) {
	const n = 2.0

	vocab := make(map[string]struct{}, len(tf1)+len(tf2))
	for t := range tf1 {
		vocab[t] = struct{}{}
	}
	for t := range tf2 {
		vocab[t] = struct{}{}
	}
	terms := slices.Sorted(maps.Keys(vocab))

	v1 := make([]float64, len(terms))
	v2 := make([]float64, len(terms))
	for i, term := range terms {
		df := 0.0
		if tf1[term] > 0 {
			df++
		}
		if tf2[term] > 0 {
			df++
		}
		idf := math.Log((1+n)/(1+df)) + 1
		v1[i] = float64(tf1[term]) * idf
		v2[i] = float64(tf2[term]) * idf
	}
	l2normalize(v1)
	l2normalize(v2)
	return v1, v2
}

func l2normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}
