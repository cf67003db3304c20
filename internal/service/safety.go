package service

import (
	"trialchat/internal/lexicon"
	"trialchat/internal/match"
)

// Refusal messages are fixed and deliberately calm; they never expose
// internals or alarm the user.
const (
	medicalAdviceRefusal = "I cannot provide medical advice or prescriptive recommendations. " +
		"Please consult the official drug label documentation or a qualified " +
		"healthcare professional for clinical decisions."
	policyRefusal = "I cannot fulfill this request as it violates safety policies."
)

// SafetyGate refuses prescriptive medical-advice queries and harmful
// requests before any retrieval happens.
type SafetyGate struct {
	lex *lexicon.Lexicon
}

// NewSafetyGate creates a gate over the given lexicon.
func NewSafetyGate(lex *lexicon.Lexicon) *SafetyGate {
	return &SafetyGate{lex: lex}
}

// Check reports whether the query is unsafe and, if so, the refusal message.
// The medical-advice set takes priority over the harmful set; a single
// case-insensitive substring match is sufficient.
func (g *SafetyGate) Check(query string) (bool, string) {
	if match.ContainsAny(query, g.lex.MedicalAdviceKeywords) {
		return true, medicalAdviceRefusal
	}
	if match.ContainsAny(query, g.lex.HarmfulKeywords) {
		return true, policyRefusal
	}
	return false, ""
}
