// Package lexicon holds the domain vocabulary driving query classification,
// safety gating and relevance filtering. The algorithms consuming these lists
// are fixed; the lists themselves can be replaced from a YAML file so domain
// coverage grows without code changes.
package lexicon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lexicon is the full set of reference vocabulary used by the pipeline.
type Lexicon struct {
	// Source classification.
	TabularKeywords []string `yaml:"tabular_keywords"`
	DocKeywords     []string `yaml:"doc_keywords"`

	// Clarification detection.
	AttributeKeywords []string `yaml:"attribute_keywords"`
	DrugNames         []string `yaml:"drug_names"`
	Indications       []string `yaml:"indications"`
	GeneralMedical    []string `yaml:"general_medical"`

	// Safety gating. MedicalAdvice is checked before Harmful.
	MedicalAdviceKeywords []string `yaml:"medical_advice_keywords"`
	HarmfulKeywords       []string `yaml:"harmful_keywords"`

	// Relevance filtering.
	StopWords []string            `yaml:"stop_words"`
	Synonyms  map[string][]string `yaml:"synonyms"`

	// Conversation handling.
	Greetings []string `yaml:"greetings"`
	Pronouns  []string `yaml:"pronouns"`
}

// Default returns the built-in clinical-trial vocabulary.
func Default() *Lexicon {
	return &Lexicon{
		TabularKeywords: []string{
			"dose", "dosing", "dosage", "mg", "frequency",
			"adverse event", "ae", "aes", "side effect",
			"severity", "severe", "moderate", "mild",
			"outcome", "resolved", "ongoing",
			"indication", "population", "reported",
		},
		DocKeywords: []string{
			"caution", "label", "note", "guidance", "monitoring",
			"warning", "recommendation", "context", "trial summary",
			"background", "description",
		},
		AttributeKeywords: []string{
			"dose", "dosing", "dosage", "adverse event", "ae", "aes",
			"severity", "outcome", "caution", "side effect",
		},
		DrugNames: []string{
			"imatinib", "pembrolizumab", "metformin", "nivolumab",
			"trastuzumab", "atezolizumab", "durvalumab", "osimertinib",
		},
		Indications: []string{
			"melanoma", "nsclc", "diabetes", "breast cancer", "cml",
		},
		GeneralMedical: []string{
			"renal", "kidney", "hepatic", "liver", "impairment",
		},
		MedicalAdviceKeywords: []string{
			"should i take", "can i take", "prescribe", "recommend taking",
			"what should i do", "treatment plan", "medical advice",
			"diagnose", "can i stop", "should i stop",
			"change my dose", "switch to",
		},
		HarmfulKeywords: []string{
			"bomb", "suicide", "kill", "murder", "illegal", "hack", "poison",
			"weapon", "terror", "drug abuse", "high", "recreational",
		},
		StopWords: []string{
			"what", "is", "the", "for", "in", "of", "a", "an", "to", "and", "or", "are",
			"about", "tell", "me", "please", "provide", "give", "how", "much", "can", "i",
			"take", "should", "with", "my", "does", "have", "any", "list", "show", "details",
			"information", "regarding", "suggest", "describe", "explain", "check",
			"mentioned", "mention", "guidance", "guide", "label", "discussed", "discuss",
			"reference", "notes", "note", "described", "finding", "findings",
		},
		Synonyms: map[string][]string{
			"side":       {"adverse", "events", "ae", "reaction", "toxicity", "safety"},
			"effect":     {"adverse", "events", "ae", "reaction", "outcome", "efficacy"},
			"effects":    {"adverse", "events", "ae", "reaction", "outcomes"},
			"adverse":    {"side", "effect", "toxicity", "safety"},
			"renal":      {"kidney", "nephro", "crcl", "creatinine", "gfr"},
			"kidney":     {"renal", "nephro"},
			"hepatic":    {"liver", "bilirubin", "alt", "ast"},
			"liver":      {"hepatic"},
			"dose":       {"dosage", "dosing", "schedule", "amount", "administer", "administration"},
			"dosage":     {"dose", "dosing", "schedule", "amount", "administration"},
			"guidance":   {"recommendation", "instruction", "protocol", "note", "label", "prescribing"},
			"monitoring": {"check", "assess", "measure", "test", "exam"},
			"label":      {"prescribing", "guidance", "smpc", "uspi", "package"},
			"indication": {"usage", "treat", "diagnosis", "condition", "disease"},
		},
		Greetings: []string{
			"hi", "hello", "hey", "greetings", "good morning", "good afternoon",
			"good evening", "thanks", "thank you",
		},
		Pronouns: []string{"that", "it", "this", "them"},
	}
}

// Load reads a lexicon from a YAML file. Fields absent from the file keep
// their built-in defaults; an empty path returns the defaults unchanged.
func Load(path string) (*Lexicon, error) {
	lex := Default()
	if path == "" {
		return lex, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var override Lexicon
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	lex.merge(&override)
	return lex, nil
}

func (l *Lexicon) merge(o *Lexicon) {
	if len(o.TabularKeywords) > 0 {
		l.TabularKeywords = o.TabularKeywords
	}
	if len(o.DocKeywords) > 0 {
		l.DocKeywords = o.DocKeywords
	}
	if len(o.AttributeKeywords) > 0 {
		l.AttributeKeywords = o.AttributeKeywords
	}
	if len(o.DrugNames) > 0 {
		l.DrugNames = o.DrugNames
	}
	if len(o.Indications) > 0 {
		l.Indications = o.Indications
	}
	if len(o.GeneralMedical) > 0 {
		l.GeneralMedical = o.GeneralMedical
	}
	if len(o.MedicalAdviceKeywords) > 0 {
		l.MedicalAdviceKeywords = o.MedicalAdviceKeywords
	}
	if len(o.HarmfulKeywords) > 0 {
		l.HarmfulKeywords = o.HarmfulKeywords
	}
	if len(o.StopWords) > 0 {
		l.StopWords = o.StopWords
	}
	if len(o.Synonyms) > 0 {
		l.Synonyms = o.Synonyms
	}
	if len(o.Greetings) > 0 {
		l.Greetings = o.Greetings
	}
	if len(o.Pronouns) > 0 {
		l.Pronouns = o.Pronouns
	}
}
