package nodes

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	statex "github.com/tanpawarit/Chative-Sales-Assistant/agent/state"
)

// RecordHistory appends the user message and the reply to the session
// transcript. The reply has already been computed, so a failing append is
// logged and dropped instead of failing the turn.
func RecordHistory(ctx context.Context, st *GraphState, history statex.HistoryStore) (*GraphState, error) {
	if err := history.Append(ctx, st.SessionID, schema.UserMessage(st.Text)); err != nil {
		log.Warn().Err(err).Str("session_id", st.SessionID).Msg("append user message failed")
		return st, nil
	}
	if err := history.Append(ctx, st.SessionID, schema.AssistantMessage(st.Response.Text, nil)); err != nil {
		log.Warn().Err(err).Str("session_id", st.SessionID).Msg("append assistant message failed")
	}
	return st, nil
}
