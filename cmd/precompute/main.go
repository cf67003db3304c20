// Command precompute embeds both corpora offline and writes the index
// artifact, so the server can start without re-embedding.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"trialchat/internal/adapter/ai"
	"trialchat/internal/adapter/store"
	"trialchat/internal/domain"
	"trialchat/internal/ingest"
	"trialchat/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.IndexPath == "" {
		slog.Error("INDEX_PATH must be set")
		os.Exit(1)
	}

	embedder := ai.NewOllamaEmbedder(ai.OllamaConfig{
		BaseURL: cfg.OllamaEmbedURL,
		Model:   cfg.OllamaEmbedModel,
		Token:   cfg.OllamaEmbedToken,
	})

	index := store.NewVectorIndex()
	ctx := context.Background()

	for _, src := range []struct {
		source domain.SourceType
		path   string
	}{
		{domain.SourceDoc, cfg.DocChunksPath},
		{domain.SourceTabular, cfg.TabularChunksPath},
	} {
		chunks, err := ingest.LoadChunks(src.path, src.source)
		if err != nil {
			slog.Error("failed to load chunks", "source", src.source, "error", err)
			os.Exit(1)
		}
		slog.Info("embedding corpus", "source", src.source, "chunks", len(chunks), "model", embedder.ModelName())
		if err := index.Build(ctx, embedder, src.source, chunks); err != nil {
			slog.Error("failed to build index", "source", src.source, "error", err)
			os.Exit(1)
		}
	}

	if err := index.Save(cfg.IndexPath); err != nil {
		slog.Error("failed to save index artifact", "error", err)
		os.Exit(1)
	}
	slog.Info("index artifact written",
		"path", cfg.IndexPath,
		"doc_chunks", index.Count(domain.SourceDoc),
		"tabular_chunks", index.Count(domain.SourceTabular),
	)
}
