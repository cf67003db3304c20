package domain

// SourceType identifies which corpus a chunk (or a retrieval slate) came from.
type SourceType string

const (
	SourceDoc     SourceType = "doc"
	SourceTabular SourceType = "tabular"
	SourceBoth    SourceType = "both"
	SourceNone    SourceType = "none"
)

// ChunkKind distinguishes the shape of a retrievable unit.
type ChunkKind string

const (
	KindParagraph  ChunkKind = "paragraph"
	KindTableRow   ChunkKind = "table_row"
	KindTabularRow ChunkKind = "tabular_row"
)

// Chunk is one retrievable unit of source content. Chunks are produced by
// ingestion and never mutated afterwards.
type Chunk struct {
	ID      string            `json:"id"`
	Source  SourceType        `json:"source_type"`
	Kind    ChunkKind         `json:"kind"`
	Content string            `json:"content"`
	Fields  map[string]string `json:"fields,omitempty"`
	Section string            `json:"section,omitempty"`
}

// Field returns the named structured field, or "" when absent.
func (c Chunk) Field(name string) string {
	if c.Fields == nil {
		return ""
	}
	return c.Fields[name]
}

// SearchResult pairs a chunk with its squared-L2 distance to the query
// embedding. Lower distance means more similar; distance is never negative.
type SearchResult struct {
	Chunk    Chunk
	Distance float64
	Source   SourceType
}
