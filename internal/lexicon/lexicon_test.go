package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	lex := Default()

	assert.Contains(t, lex.TabularKeywords, "dose")
	assert.Contains(t, lex.DocKeywords, "caution")
	assert.Contains(t, lex.DrugNames, "metformin")
	assert.Contains(t, lex.Synonyms["renal"], "kidney")
	assert.Contains(t, lex.Greetings, "thank you")
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	lex, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), lex)
}

func TestLoad_OverridesOnlyProvidedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := "drug_names:\n  - aspirin\n  - ibuprofen\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lex, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"aspirin", "ibuprofen"}, lex.DrugNames)
	// Untouched fields keep their defaults.
	assert.Equal(t, Default().StopWords, lex.StopWords)
	assert.Equal(t, Default().Synonyms, lex.Synonyms)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("drug_names: {broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
