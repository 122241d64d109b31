package nodes

import (
	"errors"
	"time"

	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidMessage = errors.New("message text is empty")
)

// GraphInput is the raw turn request entering the orchestrator graph.
type GraphInput struct {
	SessionID string
	Text      string
}

// GraphState is the mutable turn context threaded through the graph nodes.
type GraphState struct {
	SessionID string
	Text      string
	Intent    contractx.Intent
	Response  contractx.TurnResponse
	StartedAt time.Time
}

// GraphOutput is the finished turn result leaving the graph.
type GraphOutput struct {
	Response contractx.TurnResponse
}
