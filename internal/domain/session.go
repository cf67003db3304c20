package domain

import "time"

// ConversationTurn records one completed user/assistant exchange.
type ConversationTurn struct {
	Timestamp        time.Time `json:"timestamp"`
	UserMessage      string    `json:"user_message"`
	AssistantMessage string    `json:"assistant_message"`
	SourcesUsed      string    `json:"sources_used"`
}

// TurnLog is the structured event emitted after every completed turn.
type TurnLog struct {
	SessionID        string    `json:"session_id"`
	UserMessage      string    `json:"user_message"`
	AssistantMessage string    `json:"assistant_message"`
	SourceUsed       string    `json:"source_used"`
	RetrievedCount   int       `json:"retrieved_count"`
	IsClarification  bool      `json:"is_clarification"`
	IsUnknown        bool      `json:"is_unknown"`
	IsSafetyRefusal  bool      `json:"is_safety_refusal"`
	Timestamp        time.Time `json:"timestamp"`
}

// ChatReply is the outcome of one pipeline pass.
type ChatReply struct {
	SessionID       string `json:"session_id"`
	Message         string `json:"assistant_message"`
	SourceCitation  string `json:"source_citation"`
	RetrievedCount  int    `json:"retrieved_count"`
	IsClarification bool   `json:"is_clarification"`
	IsUnknown       bool   `json:"is_unknown"`
	IsSafetyRefusal bool   `json:"is_safety_refusal"`
}
