package nodes

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
)

const (
	MsgGreeting = "Hello! I'm Jordan, an automated sales assistant. How can I help you today?"
	MsgGoodbye  = "Goodbye! Feel free to reach out anytime."
	MsgThanks   = "You're welcome! Let me know if you need anything else."
	MsgFallback = "Sorry, I'm just a sales assistant and not trained to answer that."

	MsgApology          = "Sorry, something went wrong while processing your message."
	MsgStoreUnavailable = "Sorry, I'm having trouble accessing our records right now. Please try again shortly."
)

// DispatchHandler runs exactly one handler for the classified intent. Social
// intents answer from fixed strings without touching models or stores. Handler
// failures never escape this node: they collapse to a safe reply so one bad
// turn cannot kill the session.
func DispatchHandler(ctx context.Context, st *GraphState, registry contractx.Registry) (*GraphState, error) {
	switch st.Intent {
	case contractx.IntentGreeting:
		st.Response = contractx.TurnResponse{Text: MsgGreeting}
	case contractx.IntentGoodbye:
		st.Response = contractx.TurnResponse{Text: MsgGoodbye}
	case contractx.IntentThanks:
		st.Response = contractx.TurnResponse{Text: MsgThanks}
	case contractx.IntentOpportunity:
		text, err := registry.Opportunity().Handle(ctx, st.SessionID, st.Text)
		st.Response = recoverReply(st, "opportunity", text, err)
	case contractx.IntentCompanyQuery:
		text, err := registry.Company().Handle(ctx, st.SessionID, st.Text)
		st.Response = recoverReply(st, "company", text, err)
	case contractx.IntentProposal:
		resp, err := registry.Proposal().Handle(ctx, st.SessionID, st.Text)
		if err != nil {
			resp = recoverReply(st, "proposal", "", err)
		}
		st.Response = resp
	default:
		st.Response = contractx.TurnResponse{Text: MsgFallback}
	}
	return st, nil
}

func recoverReply(st *GraphState, handler, text string, err error) contractx.TurnResponse {
	if err == nil {
		return contractx.TurnResponse{Text: text}
	}

	log.Error().Err(err).
		Str("session_id", st.SessionID).
		Str("handler", handler).
		Msg("handler failed")

	if errors.Is(err, contractx.ErrStoreUnavailable) {
		return contractx.TurnResponse{Text: MsgStoreUnavailable}
	}
	return contractx.TurnResponse{Text: MsgApology}
}
