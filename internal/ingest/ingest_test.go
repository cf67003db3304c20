package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialchat/internal/domain"
)

func writeChunks(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunks.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadChunks_Tabular(t *testing.T) {
	path := writeChunks(t, `[
		{"content": "drug_name: Metformin | dose: 500mg BID",
		 "fields": {"drug_name": "Metformin", "dose": "500mg BID"}},
		{"content": "drug_name: Imatinib | dose: 400mg QD",
		 "fields": {"drug_name": "Imatinib", "dose": "400mg QD"}}
	]`)

	chunks, err := LoadChunks(path, domain.SourceTabular)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "tabular-0", chunks[0].ID)
	assert.Equal(t, domain.SourceTabular, chunks[0].Source)
	assert.Equal(t, domain.KindTabularRow, chunks[0].Kind)
	assert.Equal(t, "Metformin", chunks[0].Field("drug_name"))
	assert.Equal(t, "tabular-1", chunks[1].ID)
}

func TestLoadChunks_DocKinds(t *testing.T) {
	path := writeChunks(t, `[
		{"content": "Monitoring of liver enzymes is recommended.", "section": "SAFETY NOTES"},
		{"kind": "table_row", "content": "Drug: Imatinib | Caution: hepatotoxicity",
		 "fields": {"Drug": "Imatinib", "Caution": "hepatotoxicity"}}
	]`)

	chunks, err := LoadChunks(path, domain.SourceDoc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// Kind defaults to paragraph for doc chunks; explicit kinds are kept.
	assert.Equal(t, domain.KindParagraph, chunks[0].Kind)
	assert.Equal(t, "SAFETY NOTES", chunks[0].Section)
	assert.Equal(t, domain.KindTableRow, chunks[1].Kind)
}

func TestLoadChunks_EmptyContentRejected(t *testing.T) {
	path := writeChunks(t, `[{"content": "   "}]`)

	_, err := LoadChunks(path, domain.SourceDoc)
	assert.ErrorContains(t, err, "empty content")
}

func TestLoadChunks_MissingFile(t *testing.T) {
	_, err := LoadChunks(filepath.Join(t.TempDir(), "absent.json"), domain.SourceDoc)
	assert.Error(t, err)
}

func TestLoadChunks_InvalidJSON(t *testing.T) {
	path := writeChunks(t, `{not json`)

	_, err := LoadChunks(path, domain.SourceDoc)
	assert.Error(t, err)
}
