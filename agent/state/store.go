package state

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"
)

var (
	ErrStateNotFound   = errors.New("session state not found")
	ErrNilSessionState = errors.New("session state is nil")
	ErrInvalidSession  = errors.New("session id is empty")
)

// Store is the durable per-session persistence contract used by the
// orchestrator and handlers. Any key-value backend suffices; this repo ships
// a go-redis implementation and an Upstash REST implementation.
type Store interface {
	Load(ctx context.Context, sessionID string) (*SessionState, error)
	Save(ctx context.Context, st *SessionState) error
	Delete(ctx context.Context, sessionID string) error
}

// HistoryStore keeps the ordered conversation transcript per session.
// The company resolver replays it so follow-up questions can resolve
// pronouns against the last-discussed company.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, msg *schema.Message) error
	History(ctx context.Context, sessionID string) ([]*schema.Message, error)
	Clear(ctx context.Context, sessionID string) error
}
