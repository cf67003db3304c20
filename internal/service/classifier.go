package service

import (
	"trialchat/internal/domain"
	"trialchat/internal/lexicon"
	"trialchat/internal/match"
)

const clarificationPrompt = "Could you specify the drug name to help me answer accurately?"

// Classifier decides which corpus a query should be retrieved against and
// whether the query is too underspecified to answer at all.
type Classifier struct {
	lex *lexicon.Lexicon
}

// NewClassifier creates a classifier over the given lexicon.
func NewClassifier(lex *lexicon.Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// Classify returns the source preference for the query. Each indicator
// keyword counts once; ties (including zero hits on both sides) default to
// both corpora.
func (c *Classifier) Classify(query string) domain.SourceType {
	tabularScore := match.Count(query, c.lex.TabularKeywords)
	docScore := match.Count(query, c.lex.DocKeywords)

	switch {
	case docScore > tabularScore:
		return domain.SourceDoc
	case tabularScore > docScore:
		return domain.SourceTabular
	default:
		return domain.SourceBoth
	}
}

// NeedsClarification reports whether the query asks about a drug-specific
// attribute without naming a drug or indication. Queries touching general
// medical conditions (renal, hepatic, ...) are exempt: those proceed as
// guarded lookups rather than triggering a follow-up question.
func (c *Classifier) NeedsClarification(query string) (bool, string) {
	hasAttribute := match.ContainsAny(query, c.lex.AttributeKeywords)
	hasDrug := match.ContainsAny(query, c.lex.DrugNames)
	hasIndication := match.ContainsAny(query, c.lex.Indications)
	isGeneralMedical := match.ContainsAny(query, c.lex.GeneralMedical)

	if hasAttribute && !hasDrug && !hasIndication && !isGeneralMedical {
		return true, clarificationPrompt
	}
	return false, ""
}
