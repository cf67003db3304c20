package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"

	"trialchat/internal/adapter/ai"
	"trialchat/internal/adapter/store"
	"trialchat/internal/domain"
	"trialchat/internal/handler"
	"trialchat/internal/ingest"
	"trialchat/internal/lexicon"
	"trialchat/internal/service"
	"trialchat/pkg/config"
)

func main() {
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	cfg := config.Load()

	slog.Info("starting clinical trial chatbot",
		"port", cfg.Port,
		"ollama_embed", cfg.OllamaEmbedURL,
		"embed_model", cfg.OllamaEmbedModel,
		"index_path", cfg.IndexPath,
	)

	lex, err := lexicon.Load(cfg.LexiconPath)
	if err != nil {
		slog.Error("failed to load lexicon", "error", err)
		os.Exit(1)
	}

	embedder := ai.NewOllamaEmbedder(ai.OllamaConfig{
		BaseURL: cfg.OllamaEmbedURL,
		Model:   cfg.OllamaEmbedModel,
		Token:   cfg.OllamaEmbedToken,
	})

	// The index must be fully built before the first request is served.
	index, err := buildIndex(cfg, embedder)
	if err != nil {
		slog.Error("failed to build retrieval index", "error", err)
		os.Exit(1)
	}
	slog.Info("retrieval index ready",
		"doc_chunks", index.Count(domain.SourceDoc),
		"tabular_chunks", index.Count(domain.SourceTabular),
	)

	// Optional durable interaction log.
	var sink service.TurnSink
	var pgStore *store.PostgresStore
	if cfg.DatabaseURL != "" {
		pgStore, err = store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		sink = pgStore
	}

	sessions := service.NewSessionStore(lex)
	metrics := service.NewMetrics()
	chatService := service.NewChatService(index, embedder, lex, sessions, metrics, sink, service.ChatConfig{
		TopK:              cfg.TopK,
		MaxResults:        cfg.MaxResults,
		DistanceCutoff:    cfg.DistanceCutoff,
		DocSourceName:     cfg.DocSourceName,
		TabularSourceName: cfg.TabularSourceName,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"app":    cfg.AppName,
		})
	})

	api := app.Group("/api")
	chatHandler := handler.NewChatHandler(chatService, metrics)
	chatHandler.Register(api)
	if pgStore != nil {
		handler.NewInteractionHandler(pgStore).Register(api)
	}

	slog.Info("listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// buildIndex loads the precomputed artifact when present, otherwise ingests
// the chunk files and embeds both corpora from scratch.
func buildIndex(cfg *config.Config, embedder *ai.OllamaEmbedder) (*store.VectorIndex, error) {
	if cfg.IndexPath != "" {
		if _, err := os.Stat(cfg.IndexPath); err == nil {
			slog.Info("loading precomputed index", "path", cfg.IndexPath)
			return store.LoadVectorIndex(cfg.IndexPath)
		}
	}

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
			if errors.Is(err, os.ErrNotExist) {
				// A missing corpus just contributes no results.
				slog.Warn("chunk file missing, corpus will be empty", "source", src.source, "path", src.path)
				continue
			}
			return nil, err
		}
		slog.Info("embedding corpus", "source", src.source, "chunks", len(chunks))
		if err := index.Build(ctx, embedder, src.source, chunks); err != nil {
			return nil, err
		}
	}
	return index, nil
}
