package nodes

import (
	"strings"
	"time"
)

// ValidateRequest normalizes the incoming turn and rejects blank input before
// any model or store is touched.
func ValidateRequest(in GraphInput, now func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		StartedAt: now(),
	}, nil
}
