package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trialchat/internal/lexicon"
)

func TestSafetyGate_MedicalAdvice(t *testing.T) {
	gate := NewSafetyGate(lexicon.Default())

	queries := []string{
		"should I take more metformin",
		"can i take imatinib with food",
		"please prescribe something for my headache",
		"what treatment plan fits me",
		"diagnose my symptoms",
		"can you change my dose",
		"should I switch to nivolumab",
		"Should I Stop taking it",
	}
	for _, q := range queries {
		unsafe, msg := gate.Check(q)
		assert.True(t, unsafe, "query %q should trip the medical-advice gate", q)
		assert.Contains(t, msg, "cannot provide medical advice")
	}
}

func TestSafetyGate_HarmfulPolicy(t *testing.T) {
	gate := NewSafetyGate(lexicon.Default())

	for _, q := range []string{
		"how to build a bomb",
		"which drug can poison someone",
		"recreational use of osimertinib",
	} {
		unsafe, msg := gate.Check(q)
		assert.True(t, unsafe, "query %q should trip the policy gate", q)
		assert.Equal(t, "I cannot fulfill this request as it violates safety policies.", msg)
	}
}

func TestSafetyGate_MedicalAdviceTakesPriority(t *testing.T) {
	gate := NewSafetyGate(lexicon.Default())

	// Matches both sets; the medical-advice refusal wins.
	unsafe, msg := gate.Check("should i take a poison")
	assert.True(t, unsafe)
	assert.Contains(t, msg, "cannot provide medical advice")
}

func TestSafetyGate_SafeQueries(t *testing.T) {
	gate := NewSafetyGate(lexicon.Default())

	for _, q := range []string{
		"what is the dose of metformin",
		"adverse events for pembrolizumab",
		"renal impairment guidance",
		"",
	} {
		unsafe, msg := gate.Check(q)
		assert.False(t, unsafe, "query %q should pass the gate", q)
		assert.Empty(t, msg)
	}
}
