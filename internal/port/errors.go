package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrEmptyMessage  = errors.New("user message is empty")
	ErrIndexNotReady = errors.New("retrieval index not built")
)
