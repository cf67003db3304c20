// Package ingest loads pre-extracted chunk records. Document parsing happens
// upstream; this package only consumes its output: one JSON file per source
// holding an ordered array of chunk records.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"trialchat/internal/domain"
)

type chunkRecord struct {
	Kind    domain.ChunkKind  `json:"kind"`
	Content string            `json:"content"`
	Fields  map[string]string `json:"fields,omitempty"`
	Section string            `json:"section,omitempty"`
}

// LoadChunks reads the chunk file for one source. Records keep their file
// order; ids are assigned by position. A record with empty content is an
// ingestion defect and fails the load.
func LoadChunks(path string, source domain.SourceType) ([]domain.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunk file: %w", err)
	}

	var records []chunkRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse chunk file %s: %w", path, err)
	}

	chunks := make([]domain.Chunk, 0, len(records))
	for i, rec := range records {
		if strings.TrimSpace(rec.Content) == "" {
			return nil, fmt.Errorf("chunk file %s: record %d has empty content", path, i)
		}
		kind := rec.Kind
		if kind == "" {
			kind = defaultKind(source)
		}
		chunks = append(chunks, domain.Chunk{
			ID:      fmt.Sprintf("%s-%d", source, i),
			Source:  source,
			Kind:    kind,
			Content: rec.Content,
			Fields:  rec.Fields,
			Section: rec.Section,
		})
	}
	return chunks, nil
}

func defaultKind(source domain.SourceType) domain.ChunkKind {
	if source == domain.SourceTabular {
		return domain.KindTabularRow
	}
	return domain.KindParagraph
}
