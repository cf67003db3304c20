package store

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"trialchat/internal/domain"
	"trialchat/internal/port"
)

// corpus is one immutable snapshot of embedded chunks. Vectors are aligned
// with chunks by position.
type corpus struct {
	chunks  []domain.Chunk
	vectors [][]float32
}

// VectorIndex holds the per-corpus embedding matrices and answers
// nearest-neighbor queries by brute-force squared Euclidean distance.
// A built corpus is read-only; rebuilding installs a fresh snapshot via
// atomic pointer swap so in-flight searches complete against the old one.
type VectorIndex struct {
	doc     atomic.Pointer[corpus]
	tabular atomic.Pointer[corpus]
}

// NewVectorIndex creates an empty index. Both corpora start absent.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

// Build embeds every chunk's content and installs the corpus snapshot.
// Building with zero chunks leaves that corpus absent. The doc and tabular
// corpora are independent; building one does not require the other.
func (v *VectorIndex) Build(ctx context.Context, embedder port.Embedder, source domain.SourceType, chunks []domain.Chunk) error {
	slot, err := v.slot(source)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %s corpus: %w", source, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed %s corpus: got %d vectors for %d chunks", source, len(vectors), len(chunks))
	}

	slot.Store(&corpus{chunks: chunks, vectors: vectors})
	return nil
}

// Search returns the k nearest chunks of one corpus to the query vector,
// ascending by squared-L2 distance, ties broken by insertion order. An
// absent corpus yields no results rather than an error.
func (v *VectorIndex) Search(source domain.SourceType, queryVec []float32, k int) []domain.SearchResult {
	slot, err := v.slot(source)
	if err != nil {
		return nil
	}
	c := slot.Load()
	if c == nil || len(c.chunks) == 0 {
		return nil
	}

	dists := make([]float64, len(c.vectors))
	order := make([]int, len(c.vectors))
	for i, vec := range c.vectors {
		dists[i] = sqL2(vec, queryVec)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dists[order[a]] < dists[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make([]domain.SearchResult, 0, k)
	for _, idx := range order[:k] {
		results = append(results, domain.SearchResult{
			Chunk:    c.chunks[idx],
			Distance: dists[idx],
			Source:   source,
		})
	}
	return results
}

// Count returns the number of chunks in one corpus (0 when absent).
func (v *VectorIndex) Count(source domain.SourceType) int {
	slot, err := v.slot(source)
	if err != nil {
		return 0
	}
	if c := slot.Load(); c != nil {
		return len(c.chunks)
	}
	return 0
}

// Ready reports whether at least one corpus has been built.
func (v *VectorIndex) Ready() bool {
	return v.Count(domain.SourceDoc) > 0 || v.Count(domain.SourceTabular) > 0
}

func (v *VectorIndex) slot(source domain.SourceType) (*atomic.Pointer[corpus], error) {
	switch source {
	case domain.SourceDoc:
		return &v.doc, nil
	case domain.SourceTabular:
		return &v.tabular, nil
	default:
		return nil, fmt.Errorf("unknown corpus %q", source)
	}
}

func sqL2(a []float32, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// indexArtifact is the on-disk precompute bundle. Loading it produces the
// same index state as Build would.
type indexArtifact struct {
	DocChunks      []domain.Chunk
	DocVectors     [][]float32
	TabularChunks  []domain.Chunk
	TabularVectors [][]float32
}

// Save writes the built index to path so a later startup can skip
// re-embedding.
func (v *VectorIndex) Save(path string) error {
	art := indexArtifact{}
	if c := v.doc.Load(); c != nil {
		art.DocChunks, art.DocVectors = c.chunks, c.vectors
	}
	if c := v.tabular.Load(); c != nil {
		art.TabularChunks, art.TabularVectors = c.chunks, c.vectors
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index artifact: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(art); err != nil {
		return fmt.Errorf("encode index artifact: %w", err)
	}
	return nil
}

// LoadVectorIndex restores an index previously written by Save.
func LoadVectorIndex(path string) (*VectorIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index artifact: %w", err)
	}
	defer f.Close()

	var art indexArtifact
	if err := gob.NewDecoder(f).Decode(&art); err != nil {
		return nil, fmt.Errorf("decode index artifact: %w", err)
	}

	v := NewVectorIndex()
	if len(art.DocChunks) > 0 {
		v.doc.Store(&corpus{chunks: art.DocChunks, vectors: art.DocVectors})
	}
	if len(art.TabularChunks) > 0 {
		v.tabular.Store(&corpus{chunks: art.TabularChunks, vectors: art.TabularVectors})
	}
	return v, nil
}
