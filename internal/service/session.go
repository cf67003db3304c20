package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"trialchat/internal/domain"
	"trialchat/internal/lexicon"
	"trialchat/internal/match"
)

const maxHistory = 5

// session holds one conversation's bounded history. The mutex serializes
// concurrent requests for the same session id; requests for different
// sessions never contend on it.
type session struct {
	mu      sync.Mutex
	history []domain.ConversationTurn
}

// SessionStore owns all conversation state, keyed by session id. Sessions
// are created lazily on first reference and live until an explicit reset or
// process restart.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	lex      *lexicon.Lexicon
}

// NewSessionStore creates an empty session table.
func NewSessionStore(lex *lexicon.Lexicon) *SessionStore {
	return &SessionStore{sessions: map[string]*session{}, lex: lex}
}

func (s *SessionStore) get(id string) *session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess
	}
	sess = &session{}
	s.sessions[id] = sess
	return sess
}

// AppendTurn records a completed exchange, evicting the oldest turn once the
// history exceeds its bound.
func (s *SessionStore) AppendTurn(id, userMsg, assistantMsg, sourcesUsed string) {
	sess := s.get(id)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.history = append(sess.history, domain.ConversationTurn{
		Timestamp:        time.Now(),
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		SourcesUsed:      sourcesUsed,
	})
	if len(sess.history) > maxHistory {
		sess.history = sess.history[len(sess.history)-maxHistory:]
	}
}

// History returns a copy of the session's turns, oldest first. An unknown
// session yields nil.
func (s *SessionStore) History(id string) []domain.ConversationTurn {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]domain.ConversationTurn, len(sess.history))
	copy(out, sess.history)
	return out
}

// Reset clears a session's history. Unknown sessions are a no-op.
func (s *SessionStore) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// ResolvePronouns rewrites a pronoun-bearing query to name the drug last
// discussed in this session. Only the most recent turn is consulted; with no
// history, no pronoun, or no known drug in that turn, the query is returned
// unchanged.
func (s *SessionStore) ResolvePronouns(query, id string) string {
	history := s.History(id)
	if len(history) == 0 {
		return query
	}
	if !match.HasToken(query, s.lex.Pronouns) {
		return query
	}

	last := history[len(history)-1]
	referent := strings.ToLower(last.UserMessage + " " + last.AssistantMessage)
	for _, drug := range s.lex.DrugNames {
		if strings.Contains(referent, strings.ToLower(drug)) {
			return fmt.Sprintf("%s (referring to %s)", query, drug)
		}
	}
	return query
}
