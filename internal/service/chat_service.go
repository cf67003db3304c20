package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"trialchat/internal/adapter/store"
	"trialchat/internal/domain"
	"trialchat/internal/lexicon"
	"trialchat/internal/port"
)

// TurnSink persists completed turns durably. The pipeline treats it as
// fire-and-forget; a failing sink never fails a request.
type TurnSink interface {
	LogTurn(ctx context.Context, turn domain.TurnLog) error
}

// ChatConfig carries the pipeline's tunable knobs.
type ChatConfig struct {
	TopK              int     // per-corpus candidates retrieved
	MaxResults        int     // fused slate size
	DistanceCutoff    float64 // relevance filter cutoff (0 = default)
	DocSourceName     string  // citation name for the doc corpus
	TabularSourceName string  // citation name for the tabular corpus
}

func (c *ChatConfig) applyDefaults() {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 3
	}
}

// ChatService runs the full retrieval-and-grounding pipeline for one query:
// safety gate, clarification check, source classification, dual-corpus
// search, fusion, relevance filtering and template synthesis.
type ChatService struct {
	index    *store.VectorIndex
	embedder port.Embedder
	sessions *SessionStore
	metrics  *Metrics
	sink     TurnSink

	gate       *SafetyGate
	classifier *Classifier
	filter     *RelevanceFilter
	synth      *Synthesizer

	cfg ChatConfig
}

// NewChatService wires the pipeline. sink may be nil when no durable log
// store is configured.
func NewChatService(
	index *store.VectorIndex,
	embedder port.Embedder,
	lex *lexicon.Lexicon,
	sessions *SessionStore,
	metrics *Metrics,
	sink TurnSink,
	cfg ChatConfig,
) *ChatService {
	cfg.applyDefaults()
	return &ChatService{
		index:      index,
		embedder:   embedder,
		sessions:   sessions,
		metrics:    metrics,
		sink:       sink,
		gate:       NewSafetyGate(lex),
		classifier: NewClassifier(lex),
		filter:     NewRelevanceFilter(lex, cfg.DistanceCutoff),
		synth:      NewSynthesizer(lex, cfg.DocSourceName, cfg.TabularSourceName),
		cfg:        cfg,
	}
}

// Chat answers one user message. A whitespace-only message is rejected with
// port.ErrEmptyMessage before entering the pipeline; queries that need
// retrieval fail with port.ErrIndexNotReady until a corpus has been built;
// an embedding backend failure propagates as an error. Every other outcome,
// whether refusal, clarification, grounded answer or unknown, is a value,
// not an error.
func (s *ChatService) Chat(ctx context.Context, sessionID, userMessage string) (*domain.ChatReply, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return nil, port.ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	enhanced := s.sessions.ResolvePronouns(userMessage, sessionID)

	// Safety gating happens before any retrieval: an unsafe query must never
	// reach the index.
	if unsafe, refusal := s.gate.Check(userMessage); unsafe {
		s.sessions.AppendTurn(sessionID, userMessage, refusal, "none")
		reply := &domain.ChatReply{
			SessionID:       sessionID,
			Message:         refusal,
			SourceCitation:  "none",
			IsSafetyRefusal: true,
		}
		s.finishTurn(reply, userMessage)
		return reply, nil
	}

	if needs, prompt := s.classifier.NeedsClarification(enhanced); needs {
		reply := &domain.ChatReply{
			SessionID:       sessionID,
			Message:         prompt,
			SourceCitation:  "none",
			IsClarification: true,
		}
		s.finishTurn(reply, userMessage)
		return reply, nil
	}

	if !s.index.Ready() {
		return nil, port.ErrIndexNotReady
	}

	pref := s.classifier.Classify(enhanced)

	queryVec, err := s.embedder.Embed(ctx, enhanced)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// The two corpora are independent; search them concurrently.
	var docResults, tabularResults []domain.SearchResult
	g, _ := errgroup.WithContext(ctx)
	if pref == domain.SourceDoc || pref == domain.SourceBoth {
		g.Go(func() error {
			docResults = s.index.Search(domain.SourceDoc, queryVec, s.cfg.TopK)
			return nil
		})
	}
	if pref == domain.SourceTabular || pref == domain.SourceBoth {
		g.Go(func() error {
			tabularResults = s.index.Search(domain.SourceTabular, queryVec, s.cfg.TopK)
			return nil
		})
	}
	_ = g.Wait()

	best, primary := FuseResults(docResults, tabularResults, s.cfg.MaxResults)
	slog.Debug("retrieval complete",
		"session_id", sessionID,
		"preference", pref,
		"primary_source", primary,
		"candidates", len(best),
	)

	reply := &domain.ChatReply{
		SessionID:      sessionID,
		RetrievedCount: len(best),
	}

	if s.synth.IsGreeting(userMessage) {
		reply.Message = s.synth.GreetingReply()
		reply.SourceCitation = "none"
	} else {
		filtered := s.filter.Filter(userMessage, best)
		reply.Message, reply.SourceCitation, reply.IsUnknown = s.synth.Render(userMessage, filtered)
	}

	s.sessions.AppendTurn(sessionID, userMessage, reply.Message, reply.SourceCitation)
	s.finishTurn(reply, userMessage)
	return reply, nil
}

// ResetSession clears a session's conversation history.
func (s *ChatService) ResetSession(sessionID string) {
	s.sessions.Reset(sessionID)
}

// FuseResults merges the per-corpus result lists, sorts ascending by
// distance (stable on ties, doc results first), and caps the slate. The
// second return names the primary source of the slate: both when each corpus
// contributes, the single contributing corpus otherwise, none when empty.
func FuseResults(docResults, tabularResults []domain.SearchResult, max int) ([]domain.SearchResult, domain.SourceType) {
	all := make([]domain.SearchResult, 0, len(docResults)+len(tabularResults))
	all = append(all, docResults...)
	all = append(all, tabularResults...)

	sort.SliceStable(all, func(a, b int) bool {
		return all[a].Distance < all[b].Distance
	})
	if max > 0 && len(all) > max {
		all = all[:max]
	}

	if len(all) == 0 {
		return nil, domain.SourceNone
	}

	docCount, tabularCount := 0, 0
	for _, r := range all {
		if r.Source == domain.SourceDoc {
			docCount++
		} else {
			tabularCount++
		}
	}
	switch {
	case docCount > 0 && tabularCount > 0:
		return all, domain.SourceBoth
	case docCount > 0:
		return all, domain.SourceDoc
	default:
		return all, domain.SourceTabular
	}
}

// finishTurn emits the structured turn event, updates the counters, and
// hands the record to the durable sink without blocking the request.
func (s *ChatService) finishTurn(reply *domain.ChatReply, userMessage string) {
	turn := domain.TurnLog{
		SessionID:        reply.SessionID,
		UserMessage:      userMessage,
		AssistantMessage: reply.Message,
		SourceUsed:       reply.SourceCitation,
		RetrievedCount:   reply.RetrievedCount,
		IsClarification:  reply.IsClarification,
		IsUnknown:        reply.IsUnknown,
		IsSafetyRefusal:  reply.IsSafetyRefusal,
		Timestamp:        time.Now(),
	}

	slog.Info("turn completed",
		"session_id", turn.SessionID,
		"user_message", truncate(turn.UserMessage, 100),
		"source_used", turn.SourceUsed,
		"retrieved_count", turn.RetrievedCount,
		"is_clarification", turn.IsClarification,
		"is_unknown", turn.IsUnknown,
		"is_safety_refusal", turn.IsSafetyRefusal,
	)

	s.metrics.RecordTurn(turn.SessionID, s.citationSource(turn.SourceUsed),
		turn.IsClarification, turn.IsUnknown, turn.IsSafetyRefusal)

	if s.sink != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.sink.LogTurn(ctx, turn); err != nil {
				slog.Error("failed to persist turn log", "error", err)
			}
		}()
	}
}

// citationSource maps a citation string back to the corpus (or corpora) that
// produced it.
func (s *ChatService) citationSource(citation string) domain.SourceType {
	hasDoc := s.cfg.DocSourceName != "" && strings.Contains(citation, s.cfg.DocSourceName)
	hasTabular := s.cfg.TabularSourceName != "" && strings.Contains(citation, s.cfg.TabularSourceName)
	switch {
	case hasDoc && hasTabular:
		return domain.SourceBoth
	case hasDoc:
		return domain.SourceDoc
	case hasTabular:
		return domain.SourceTabular
	default:
		return domain.SourceNone
	}
}

// truncate shortens s to maxLen characters, not bytes, so a multibyte rune
// at the boundary is never split.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
