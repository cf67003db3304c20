package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialchat/internal/domain"
	"trialchat/internal/lexicon"
)

const (
	docName     = "Pharma_Clinical_Trial_Notes.docx"
	tabularName = "Pharma_Clinical_Trial_AllDrugs.xlsx"
)

func newSynth() *Synthesizer {
	return NewSynthesizer(lexicon.Default(), docName, tabularName)
}

func TestIsGreeting(t *testing.T) {
	s := newSynth()

	assert.True(t, s.IsGreeting("hello"))
	assert.True(t, s.IsGreeting("Hello!"))
	assert.True(t, s.IsGreeting("  thank you. "))
	assert.True(t, s.IsGreeting("Good Morning"))
	assert.False(t, s.IsGreeting("hello, what is the dose"))
	assert.False(t, s.IsGreeting("dose"))
}

func TestRender_EmptySlate(t *testing.T) {
	s := newSynth()

	text, citation, unknown := s.Render("anything", nil)
	assert.Contains(t, text, "couldn't find relevant information")
	assert.Equal(t, "none", citation)
	assert.True(t, unknown)
}

func TestRender_TabularDoseQuery(t *testing.T) {
	s := newSynth()

	results := []domain.SearchResult{
		tabularResult(0.2, map[string]string{
			"drug_name":  "Metformin",
			"indication": "Diabetes",
			"dose":       "500mg BID",
			"ae_terms":   "Nausea",
			"severity":   "Mild",
			"outcome":    "Resolved",
		}),
	}

	text, citation, unknown := s.Render("what is the recommended dose for metformin", results)
	require.False(t, unknown)
	assert.Contains(t, text, "**Metformin**:")
	assert.Contains(t, text, "Indication: Diabetes")
	assert.Contains(t, text, "Dose: 500mg BID")
	// Only the asked-for fields beyond indication are rendered.
	assert.NotContains(t, text, "Adverse Events")
	assert.NotContains(t, text, "Severity")
	assert.NotContains(t, text, "Outcome")
	assert.Equal(t, tabularName, citation)
}

func TestRender_TabularDefaultView(t *testing.T) {
	s := newSynth()

	results := []domain.SearchResult{
		tabularResult(0.2, map[string]string{
			"drug_name": "Imatinib",
			"dose":      "400mg QD",
			"ae_terms":  "Edema",
			"severity":  "Moderate",
			"outcome":   "Ongoing",
		}),
	}

	// No field intent detected: dose, adverse events and severity render
	// unconditionally; outcome stays hidden.
	text, _, _ := s.Render("imatinib", results)
	assert.Contains(t, text, "Dose: 400mg QD")
	assert.Contains(t, text, "Adverse Events: Edema")
	assert.Contains(t, text, "Severity: Moderate")
	assert.NotContains(t, text, "Outcome")
}

func TestRender_TabularGroupsByDrugWithUniqueValues(t *testing.T) {
	s := newSynth()

	results := []domain.SearchResult{
		tabularResult(0.1, map[string]string{"drug_name": "Metformin", "dose": "500mg BID"}),
		tabularResult(0.2, map[string]string{"drug_name": "Metformin", "dose": "500mg BID"}),
		tabularResult(0.3, map[string]string{"drug_name": "Metformin", "dose": "850mg QD"}),
	}

	text, _, _ := s.Render("metformin dose", results)
	assert.Equal(t, 1, strings.Count(text, "**Metformin**:"))
	assert.Contains(t, text, "Dose: 500mg BID, 850mg QD")
}

func TestRender_TabularCapsAtThree(t *testing.T) {
	s := newSynth()

	results := []domain.SearchResult{
		tabularResult(0.1, map[string]string{"drug_name": "A", "dose": "1mg"}),
		tabularResult(0.2, map[string]string{"drug_name": "B", "dose": "2mg"}),
		tabularResult(0.3, map[string]string{"drug_name": "C", "dose": "3mg"}),
		tabularResult(0.4, map[string]string{"drug_name": "D", "dose": "4mg"}),
	}

	text, _, _ := s.Render("dose", results)
	assert.Contains(t, text, "**C**:")
	assert.NotContains(t, text, "**D**:")
}

func TestRender_DocTableRow(t *testing.T) {
	s := newSynth()

	results := []domain.SearchResult{{
		Chunk: domain.Chunk{
			Source:  domain.SourceDoc,
			Kind:    domain.KindTableRow,
			Content: "Drug: Imatinib | Caution: hepatotoxicity",
			Fields:  map[string]string{"Drug": "Imatinib", "Caution": "hepatotoxicity"},
		},
		Distance: 0.4,
		Source:   domain.SourceDoc,
	}}

	text, citation, _ := s.Render("imatinib caution", results)
	assert.Contains(t, text, "**Caution**: hepatotoxicity")
	assert.Contains(t, text, "**Drug**: Imatinib")
	assert.Equal(t, docName, citation)
}

func TestRender_DocSnippetWindow(t *testing.T) {
	s := newSynth()

	content := "The study enrolled 40 patients. Baseline characteristics were balanced. " +
		"Monitoring of liver enzymes is recommended monthly. Hepatic events were mild. " +
		"Follow-up continues. Final analysis is pending."
	results := []domain.SearchResult{docResult(0.4, content)}

	text, _, _ := s.Render("liver monitoring recommended", results)
	assert.True(t, strings.HasPrefix(text, "..."))
	assert.True(t, strings.HasSuffix(text, "..."))
	assert.Contains(t, text, "Monitoring of liver enzymes")
}

func TestRender_DocSnippetFallback(t *testing.T) {
	s := newSynth()

	long := strings.Repeat("alpha beta gamma delta ", 40)
	results := []domain.SearchResult{docResult(0.4, long)}

	// No query term of 4+ characters appears anywhere in the content.
	text, _, _ := s.Render("zzzz qqqq", results)
	assert.False(t, strings.HasPrefix(text, "..."))
	assert.Equal(t, 500, len(text))
}

func TestRender_DocSnippetFallbackKeepsRunesIntact(t *testing.T) {
	s := newSynth()

	// Characters that occupy two bytes each, so a byte-based cap would cut
	// through the rune at position 500.
	long := strings.Repeat("µg ", 300)
	results := []domain.SearchResult{docResult(0.4, long)}

	text, _, _ := s.Render("zzzz qqqq", results)
	assert.True(t, utf8.ValidString(text))
	assert.Equal(t, 500, utf8.RuneCountInString(text))
}

func TestRender_MixedSourcesCitation(t *testing.T) {
	s := newSynth()

	results := []domain.SearchResult{
		tabularResult(0.1, map[string]string{"drug_name": "Metformin", "dose": "500mg BID"}),
		docResult(0.2, "Metformin dosing should follow renal function."),
	}

	text, citation, unknown := s.Render("metformin dose", results)
	require.False(t, unknown)
	// Tabular blocks render before doc blocks.
	assert.Less(t, strings.Index(text, "**Metformin**:"), strings.Index(text, "renal function"))
	// Citation is the sorted comma-joined source set.
	assert.Equal(t, tabularName+", "+docName, citation)
}
