package service

import (
	"strings"

	"trialchat/internal/domain"
	"trialchat/internal/lexicon"
	"trialchat/internal/match"
)

// DefaultDistanceCutoff is the squared-L2 distance above which a semantic
// match is discarded outright. Calibrated against the bge-small class of
// embedding models this system ships with; substituting a different model
// requires re-deriving it from that model's distance distribution.
const DefaultDistanceCutoff = 1.4

// Structured fields that contribute to a candidate's searchable text.
var relevanceFields = []string{"drug_name", "indication", "ae_terms", "dose", "severity"}

// RelevanceFilter is a lexical re-check over semantic search results.
// Vector search can rank geometrically near but topically unrelated chunks;
// this stage drops them before synthesis.
type RelevanceFilter struct {
	lex       *lexicon.Lexicon
	cutoff    float64
	stopWords map[string]struct{}
}

// NewRelevanceFilter creates a filter with the given distance cutoff.
// A cutoff <= 0 selects DefaultDistanceCutoff.
func NewRelevanceFilter(lex *lexicon.Lexicon, cutoff float64) *RelevanceFilter {
	if cutoff <= 0 {
		cutoff = DefaultDistanceCutoff
	}
	stop := make(map[string]struct{}, len(lex.StopWords))
	for _, w := range lex.StopWords {
		stop[w] = struct{}{}
	}
	return &RelevanceFilter{lex: lex, cutoff: cutoff, stopWords: stop}
}

// Filter returns the results that survive both the distance cutoff and the
// lexical relevance check, preserving order. Filtering is idempotent.
func (f *RelevanceFilter) Filter(query string, results []domain.SearchResult) []domain.SearchResult {
	kept := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Distance >= f.cutoff {
			continue
		}
		if f.isRelevant(query, r) {
			kept = append(kept, r)
		}
	}
	return kept
}

// isRelevant tests whether at least one key term of the query appears in the
// candidate, directly, as a singular/plural variant, or via the synonym
// table. The single-match policy is deliberately permissive: a false
// negative here loses a grounded answer, a false positive only adds a block.
func (f *RelevanceFilter) isRelevant(query string, r domain.SearchResult) bool {
	keyTerms := f.keyTerms(query)

	// Nothing left to judge against; defer to the semantic score.
	if len(keyTerms) == 0 {
		return true
	}

	text := f.searchableText(r.Chunk)
	for term := range keyTerms {
		if f.termMatches(term, text) {
			return true
		}
	}
	return false
}

func (f *RelevanceFilter) keyTerms(query string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, tok := range match.Tokens(query) {
		if _, stop := f.stopWords[tok]; !stop {
			terms[tok] = struct{}{}
		}
	}
	return terms
}

func (f *RelevanceFilter) searchableText(c domain.Chunk) string {
	parts := []string{c.Content}
	for _, field := range relevanceFields {
		if v := c.Field(field); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func (f *RelevanceFilter) termMatches(term, text string) bool {
	if strings.Contains(text, term) {
		return true
	}
	if strings.HasSuffix(term, "s") && strings.Contains(text, strings.TrimSuffix(term, "s")) {
		return true
	}
	if strings.Contains(text, term+"s") {
		return true
	}
	for _, syn := range f.lex.Synonyms[term] {
		if strings.Contains(text, syn) {
			return true
		}
	}
	return false
}
