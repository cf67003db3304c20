package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialchat/internal/domain"
)

// fakeEmbedder maps each text to a preset vector.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) ModelName() string { return "fake" }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("unknown text")
	}
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(context.Background(), t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func docChunk(id, content string) domain.Chunk {
	return domain.Chunk{ID: id, Source: domain.SourceDoc, Kind: domain.KindParagraph, Content: content}
}

func TestVectorIndex_SearchOrdering(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"far":     {3, 0},
		"near":    {1, 0},
		"nearest": {0.5, 0},
	}}

	index := NewVectorIndex()
	chunks := []domain.Chunk{docChunk("a", "far"), docChunk("b", "near"), docChunk("c", "nearest")}
	require.NoError(t, index.Build(context.Background(), embedder, domain.SourceDoc, chunks))

	results := index.Search(domain.SourceDoc, []float32{0, 0}, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "c", results[0].Chunk.ID)
	assert.Equal(t, "b", results[1].Chunk.ID)
	assert.Equal(t, "a", results[2].Chunk.ID)
	assert.InDelta(t, 0.25, results[0].Distance, 1e-9)
	assert.Equal(t, domain.SourceDoc, results[0].Source)
}

func TestVectorIndex_TiesKeepInsertionOrder(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"first":  {1, 0},
		"second": {0, 1}, // same distance to origin query
	}}

	index := NewVectorIndex()
	chunks := []domain.Chunk{docChunk("a", "first"), docChunk("b", "second")}
	require.NoError(t, index.Build(context.Background(), embedder, domain.SourceDoc, chunks))

	results := index.Search(domain.SourceDoc, []float32{0, 0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.Equal(t, "b", results[1].Chunk.ID)
}

func TestVectorIndex_KLargerThanCorpus(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{"only": {1, 1}}}

	index := NewVectorIndex()
	require.NoError(t, index.Build(context.Background(), embedder, domain.SourceDoc, []domain.Chunk{docChunk("a", "only")}))

	assert.Len(t, index.Search(domain.SourceDoc, []float32{0, 0}, 10), 1)
}

func TestVectorIndex_AbsentCorpus(t *testing.T) {
	index := NewVectorIndex()

	assert.Empty(t, index.Search(domain.SourceTabular, []float32{0, 0}, 5))
	assert.Equal(t, 0, index.Count(domain.SourceTabular))
	assert.False(t, index.Ready())
}

func TestVectorIndex_CorporaIndependent(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{"doc text": {1, 0}}}

	index := NewVectorIndex()
	require.NoError(t, index.Build(context.Background(), embedder, domain.SourceDoc, []domain.Chunk{docChunk("a", "doc text")}))

	// Building only the doc corpus leaves tabular absent but searchable.
	assert.True(t, index.Ready())
	assert.Empty(t, index.Search(domain.SourceTabular, []float32{0, 0}, 5))
	assert.Len(t, index.Search(domain.SourceDoc, []float32{0, 0}, 5), 1)
}

func TestVectorIndex_BuildEmptyLeavesCorpusAbsent(t *testing.T) {
	index := NewVectorIndex()
	require.NoError(t, index.Build(context.Background(), &fakeEmbedder{}, domain.SourceDoc, nil))
	assert.Equal(t, 0, index.Count(domain.SourceDoc))
}

func TestVectorIndex_BuildErrorPropagates(t *testing.T) {
	index := NewVectorIndex()
	err := index.Build(context.Background(), &fakeEmbedder{}, domain.SourceDoc, []domain.Chunk{docChunk("a", "unembeddable")})
	assert.Error(t, err)
	assert.Equal(t, 0, index.Count(domain.SourceDoc))
}

func TestVectorIndex_RebuildSwapsSnapshot(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"old": {1, 0},
		"new": {2, 0},
	}}

	index := NewVectorIndex()
	ctx := context.Background()
	require.NoError(t, index.Build(ctx, embedder, domain.SourceDoc, []domain.Chunk{docChunk("a", "old")}))
	require.NoError(t, index.Build(ctx, embedder, domain.SourceDoc, []domain.Chunk{docChunk("b", "new"), docChunk("c", "new")}))

	results := index.Search(domain.SourceDoc, []float32{0, 0}, 5)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Chunk.ID)
}

func TestVectorIndex_SaveAndLoadRoundtrip(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"doc text": {1, 0},
		"row text": {0, 2},
	}}

	index := NewVectorIndex()
	ctx := context.Background()
	require.NoError(t, index.Build(ctx, embedder, domain.SourceDoc, []domain.Chunk{docChunk("a", "doc text")}))
	tabChunk := domain.Chunk{
		ID: "t0", Source: domain.SourceTabular, Kind: domain.KindTabularRow,
		Content: "row text", Fields: map[string]string{"drug_name": "Metformin"},
	}
	require.NoError(t, index.Build(ctx, embedder, domain.SourceTabular, []domain.Chunk{tabChunk}))

	path := filepath.Join(t.TempDir(), "index.bin")
	require.NoError(t, index.Save(path))

	loaded, err := LoadVectorIndex(path)
	require.NoError(t, err)

	assert.Equal(t, 1, loaded.Count(domain.SourceDoc))
	assert.Equal(t, 1, loaded.Count(domain.SourceTabular))

	results := loaded.Search(domain.SourceTabular, []float32{0, 0}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "Metformin", results[0].Chunk.Field("drug_name"))
	assert.InDelta(t, 4.0, results[0].Distance, 1e-9)
}

func TestLoadVectorIndex_MissingFile(t *testing.T) {
	_, err := LoadVectorIndex(filepath.Join(t.TempDir(), "absent.bin"))
	assert.Error(t, err)
}
