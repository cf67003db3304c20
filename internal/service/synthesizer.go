package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"trialchat/internal/domain"
	"trialchat/internal/lexicon"
	"trialchat/internal/match"
)

const (
	greetingReply = "Hello! I am your Clinical Trial Assistant. How can I help you " +
		"regarding drug dosages, adverse events, or clinical contexts?"
	noResultsReply = "I apologize, but I couldn't find relevant information regarding " +
		"your query in the provided clinical trial documents."
	noGroundingReply = "I don't know based on the available data."

	tabularRenderCap = 3
	docRenderCap     = 2
	snippetWindow    = 3
	snippetFallback  = 500
	snippetMinTerm   = 4
)

var punctRe = regexp.MustCompile(`[^\w\s]`)

// Synthesizer assembles replies from retrieved chunks via fixed templates.
// It never generates free text: every sentence in an answer comes from a
// retrieved field or snippet.
type Synthesizer struct {
	lex           *lexicon.Lexicon
	docSource     string
	tabularSource string
}

// NewSynthesizer creates a synthesizer citing the given source names.
func NewSynthesizer(lex *lexicon.Lexicon, docSource, tabularSource string) *Synthesizer {
	return &Synthesizer{lex: lex, docSource: docSource, tabularSource: tabularSource}
}

// IsGreeting reports whether the query, stripped of punctuation, is exactly
// one of the fixed greeting/thanks phrases.
func (s *Synthesizer) IsGreeting(query string) bool {
	cleaned := strings.TrimSpace(punctRe.ReplaceAllString(strings.ToLower(query), ""))
	for _, g := range s.lex.Greetings {
		if cleaned == g {
			return true
		}
	}
	return false
}

// GreetingReply returns the static greeting response.
func (s *Synthesizer) GreetingReply() string {
	return greetingReply
}

// Render produces the answer text and source citation for an already
// filtered, score-sorted result slate. An empty slate yields the static
// no-results reply with citation "none" and unknown=true.
func (s *Synthesizer) Render(query string, results []domain.SearchResult) (text, citation string, unknown bool) {
	if len(results) == 0 {
		return noResultsReply, "none", true
	}

	var tabular, doc []domain.SearchResult
	for _, r := range results {
		if r.Source == domain.SourceTabular {
			tabular = append(tabular, r)
		} else {
			doc = append(doc, r)
		}
	}

	var blocks []string
	sources := map[string]struct{}{}

	if tabBlocks := s.renderTabular(query, tabular); len(tabBlocks) > 0 {
		blocks = append(blocks, tabBlocks...)
		sources[s.tabularSource] = struct{}{}
	}
	if docBlocks := s.renderDoc(query, doc); len(docBlocks) > 0 {
		blocks = append(blocks, docBlocks...)
		sources[s.docSource] = struct{}{}
	}

	if len(blocks) == 0 {
		return noGroundingReply, "none", true
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	return strings.Join(blocks, "\n\n"), strings.Join(names, ", "), false
}

// renderTabular groups the top tabular rows by drug and lists the fields the
// query asked for; with no detectable intent, dose, adverse events and
// severity are shown as the default view.
func (s *Synthesizer) renderTabular(query string, results []domain.SearchResult) []string {
	if len(results) == 0 {
		return nil
	}
	if len(results) > tabularRenderCap {
		results = results[:tabularRenderCap]
	}

	showDose := match.ContainsAny(query, []string{"dose", "dosing", "dosage"})
	showAE := match.ContainsAny(query, []string{"ae", "adverse", "side effect"})
	showSeverity := match.ContainsAny(query, []string{"severity", "severe"})
	showOutcome := match.ContainsAny(query, []string{"outcome", "resolved"})
	defaultView := !(showDose || showAE || showSeverity || showOutcome)

	type drugGroup struct {
		indications, doses, aes, severities, outcomes *valueSet
	}
	groups := map[string]*drugGroup{}
	var drugOrder []string

	for _, r := range results {
		drug := r.Chunk.Field("drug_name")
		if drug == "" {
			drug = "Unknown"
		}
		g, ok := groups[drug]
		if !ok {
			g = &drugGroup{
				indications: newValueSet(), doses: newValueSet(), aes: newValueSet(),
				severities: newValueSet(), outcomes: newValueSet(),
			}
			groups[drug] = g
			drugOrder = append(drugOrder, drug)
		}
		g.indications.add(r.Chunk.Field("indication"))
		g.doses.add(r.Chunk.Field("dose"))
		g.aes.add(r.Chunk.Field("ae_terms"))
		g.severities.add(r.Chunk.Field("severity"))
		g.outcomes.add(r.Chunk.Field("outcome"))
	}

	blocks := make([]string, 0, len(drugOrder))
	for _, drug := range drugOrder {
		g := groups[drug]
		parts := []string{fmt.Sprintf("**%s**:", drug)}

		if v := g.indications.join(); v != "" {
			parts = append(parts, "- Indication: "+v)
		}
		if v := g.doses.join(); v != "" && (showDose || defaultView) {
			parts = append(parts, "- Dose: "+v)
		}
		if v := g.aes.join(); v != "" && (showAE || defaultView) {
			parts = append(parts, "- Adverse Events: "+v)
		}
		if v := g.severities.join(); v != "" && (showSeverity || defaultView) {
			parts = append(parts, "- Severity: "+v)
		}
		if v := g.outcomes.join(); v != "" && showOutcome {
			parts = append(parts, "- Outcome: "+v)
		}

		blocks = append(blocks, strings.Join(parts, "\n"))
	}
	return blocks
}

// renderDoc formats the top document results: table-derived rows as
// field/value pairs, narrative paragraphs as the densest snippet.
func (s *Synthesizer) renderDoc(query string, results []domain.SearchResult) []string {
	if len(results) > docRenderCap {
		results = results[:docRenderCap]
	}

	var blocks []string
	for _, r := range results {
		if r.Chunk.Kind == domain.KindTableRow {
			if block := renderFields(r.Chunk.Fields); block != "" {
				blocks = append(blocks, block)
			}
			continue
		}
		if r.Chunk.Content != "" {
			blocks = append(blocks, s.extractSnippet(r.Chunk.Content, query))
		}
	}
	return blocks
}

func renderFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("**%s**: %s", k, fields[k]))
	}
	return strings.Join(parts, "\n")
}

// extractSnippet returns the 3-sentence window densest in query terms,
// wrapped in ellipses, falling back to the first 500 characters when no
// window contains any term.
func (s *Synthesizer) extractSnippet(content, query string) string {
	var terms []string
	for _, t := range match.Tokens(query) {
		if len(t) >= snippetMinTerm {
			terms = append(terms, t)
		}
	}

	// Character-based cap: byte slicing could split a multibyte rune.
	fallback := content
	if runes := []rune(fallback); len(runes) > snippetFallback {
		fallback = string(runes[:snippetFallback])
	}
	if len(terms) == 0 {
		return fallback
	}

	sentences := strings.Split(content, ". ")
	bestWindow := ""
	maxDensity := 0

	for i := range sentences {
		end := i + snippetWindow
		if end > len(sentences) {
			end = len(sentences)
		}
		window := strings.Join(sentences[i:end], ". ")
		windowLower := strings.ToLower(window)

		density := 0
		for _, t := range terms {
			if strings.Contains(windowLower, t) {
				density++
			}
		}
		if density > maxDensity {
			maxDensity = density
			bestWindow = window
		}
	}

	if maxDensity > 0 {
		return "..." + bestWindow + "..."
	}
	return fallback
}

// valueSet collects unique non-empty values in first-seen order.
type valueSet struct {
	seen  map[string]struct{}
	order []string
}

func newValueSet() *valueSet {
	return &valueSet{seen: map[string]struct{}{}}
}

func (v *valueSet) add(val string) {
	if val == "" {
		return
	}
	if _, ok := v.seen[val]; ok {
		return
	}
	v.seen[val] = struct{}{}
	v.order = append(v.order, val)
}

func (v *valueSet) join() string {
	return strings.Join(v.order, ", ")
}
