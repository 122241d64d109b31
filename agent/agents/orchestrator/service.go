package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
	nodex "github.com/tanpawarit/Chative-Sales-Assistant/agent/nodes"
	statex "github.com/tanpawarit/Chative-Sales-Assistant/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

// Orchestrator runs one conversation turn end to end: validate, classify,
// dispatch to the intent's handler, record the transcript, finalize. Turns for
// the same session are serialized so concurrent webhook deliveries cannot
// interleave draft updates; turns for different sessions run in parallel.
type Orchestrator struct {
	history  statex.HistoryStore
	handlers contractx.Registry

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

func New(
	history statex.HistoryStore,
	handlers contractx.Registry,
) (*Orchestrator, error) {
	if history == nil {
		return nil, errors.New("history store is required")
	}
	if handlers == nil {
		return nil, errors.New("handler registry is required")
	}

	o := &Orchestrator{
		history:  history,
		handlers: handlers,
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (contractx.TurnResponse, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return contractx.TurnResponse{}, err
	}
	return out.Response, nil
}

func (o *Orchestrator) sessionLock(sessionID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[sessionID] = lock
	}
	return lock
}
