package service

import (
	"sync"

	"trialchat/internal/domain"
)

// Metrics accumulates per-turn usage counters, queryable as a snapshot.
type Metrics struct {
	mu             sync.Mutex
	totalTurns     int
	docQueries     int
	tabularQueries int
	bothQueries    int
	unknown        int
	clarifications int
	safetyRefusals int
	sessions       map[string]struct{}
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	TotalTurns  int `json:"total_turns"`
	SourceUsage struct {
		DocOnly     int `json:"doc_only"`
		TabularOnly int `json:"tabular_only"`
		Both        int `json:"both"`
	} `json:"source_usage"`
	UnknownResponses    int `json:"unknown_responses"`
	ClarificationsAsked int `json:"clarifications_asked"`
	SafetyRefusals      int `json:"safety_refusals"`
	UniqueSessions      int `json:"unique_sessions"`
}

// NewMetrics creates a zeroed counter set.
func NewMetrics() *Metrics {
	return &Metrics{sessions: map[string]struct{}{}}
}

// RecordTurn updates the counters for one completed turn. sourceUsed is the
// origin of the answer's grounding (doc, tabular, both, or none).
func (m *Metrics) RecordTurn(sessionID string, sourceUsed domain.SourceType, clarification, unknown, safetyRefusal bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalTurns++
	m.sessions[sessionID] = struct{}{}

	switch sourceUsed {
	case domain.SourceDoc:
		m.docQueries++
	case domain.SourceTabular:
		m.tabularQueries++
	case domain.SourceBoth:
		m.bothQueries++
	}

	if clarification {
		m.clarifications++
	}
	if unknown {
		m.unknown++
	}
	if safetyRefusal {
		m.safetyRefusals++
	}
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var snap MetricsSnapshot
	snap.TotalTurns = m.totalTurns
	snap.SourceUsage.DocOnly = m.docQueries
	snap.SourceUsage.TabularOnly = m.tabularQueries
	snap.SourceUsage.Both = m.bothQueries
	snap.UnknownResponses = m.unknown
	snap.ClarificationsAsked = m.clarifications
	snap.SafetyRefusals = m.safetyRefusals
	snap.UniqueSessions = len(m.sessions)
	return snap
}
