package nodes

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
)

// FinalizeReply guarantees the turn never leaves with a blank reply.
func FinalizeReply(st *GraphState) (GraphOutput, error) {
	resp := st.Response
	resp.Text = strings.TrimSpace(resp.Text)
	if resp.Text == "" && len(resp.Attachments) == 0 {
		resp = contractx.TurnResponse{Text: MsgApology}
	}

	log.Debug().
		Str("session_id", st.SessionID).
		Str("intent", string(st.Intent)).
		Dur("took", time.Since(st.StartedAt)).
		Msg("turn finished")

	return GraphOutput{Response: resp}, nil
}
