// Package analysis turns raw text into the terms the lexical scorer counts.
//
// Terms are runs of two or more letters, digits or underscores, lowercased,
// with the configured language's stopwords removed. The pipeline is a bleve
// custom analyzer, built once and safe for concurrent use.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/de"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/lang/es"
	"github.com/blevesearch/bleve/v2/analysis/lang/fr"
	"github.com/blevesearch/bleve/v2/analysis/lang/it"
	"github.com/blevesearch/bleve/v2/analysis/lang/nl"
	"github.com/blevesearch/bleve/v2/analysis/lang/pt"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
)

const (
	// WordTokenizerName is the tokenizer splitting text into word terms.
	WordTokenizerName = "simscore_word"

	// WordPattern matches a term: two or more word characters.
	WordPattern = `[\p{L}\p{N}_]{2,}`

	// DefaultLanguage is used when no language is configured.
	DefaultLanguage = "en"
)

// stopFilters maps a language code to its bleve stop token filter.
var stopFilters = map[string]string{
	"de": de.StopName,
	"en": en.StopName,
	"es": es.StopName,
	"fr": fr.StopName,
	"it": it.StopName,
	"nl": nl.StopName,
	"pt": pt.StopName,
}

// Languages returns the supported language codes, sorted.
func Languages() []string {
	langs := make([]string, 0, len(stopFilters))
	for l := range stopFilters {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Analyzer extracts terms from text.
type Analyzer struct {
	language string
	analyzer analysis.Analyzer
}

// New builds the analyzer for language ("" means English).
func New(language string) (*Analyzer, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = DefaultLanguage
	}
	stopFilter, ok := stopFilters[language]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q (supported: %v)", language, Languages())
	}

	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomTokenizer(WordTokenizerName, map[string]interface{}{
		"type":   regexp.Name,
		"regexp": WordPattern,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add word tokenizer: %w", err)
	}

	name := "simscore_" + language
	err = indexMapping.AddCustomAnalyzer(name, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": WordTokenizerName,
		"token_filters": []string{
			lowercase.Name,
			stopFilter,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}

	a := indexMapping.AnalyzerNamed(name)
	if a == nil {
		return nil, fmt.Errorf("analyzer %s could not be built", name)
	}

	return &Analyzer{language: language, analyzer: a}, nil
}

// Language returns the language code the analyzer was built for.
func (a *Analyzer) Language() string {
	return a.language
}

// Terms returns the terms of text in document order, duplicates kept.
func (a *Analyzer) Terms(text string) []string {
	if text == "" {
		return nil
	}
	stream := a.analyzer.Analyze([]byte(text))
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		terms = append(terms, string(tok.Term))
	}
	return terms
}

// Counts returns term frequencies for text.
func (a *Analyzer) Counts(text string) map[string]int {
	terms := a.Terms(text)
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}
