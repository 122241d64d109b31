package opportunity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
	llmx "github.com/tanpawarit/Chative-Sales-Assistant/agent/llm"
	statex "github.com/tanpawarit/Chative-Sales-Assistant/agent/state"
)

const (
	msgRephrase = "I couldn't parse the opportunity details properly. Please try again with a clear message."
	msgReset    = "Okay, the opportunity draft has been cleared. We can start over whenever you're ready."
)

var fieldLabels = map[string]string{
	statex.FieldContactName: "Contact Name",
	statex.FieldCompanyName: "Company Name",
	statex.FieldDealStage:   "Deal Stage",
	statex.FieldAmount:      "Amount",
	statex.FieldCloseDate:   "Close Date",
}

var resetCommands = map[string]struct{}{
	"reset":              {},
	"start over":         {},
	"cancel":             {},
	"cancel opportunity": {},
	"clear draft":        {},
}

// Extractor is the opportunity accumulation state machine. Each turn merges
// newly extracted fields into the session's draft (most-recent-wins) and
// either asks for what is still missing or consumes the completed draft.
type Extractor struct {
	store  statex.Store
	runner compose.Runnable[map[string]any, contractx.OpportunityExtraction]
	now    func() time.Time
}

func NewExtractor(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	store statex.Store,
) (*Extractor, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: opportunity prompt", contractx.ErrPromptMissing)
	}
	if store == nil {
		return nil, errors.New("state store is required")
	}

	runner, err := llmx.CompileStructuredGraph[contractx.OpportunityExtraction](
		ctx, chatModel, systemPrompt, "opportunity.extraction_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile extraction graph: %v", contractx.ErrModelInvoke, err)
	}

	return &Extractor{
		store:  store,
		runner: runner,
		now:    time.Now,
	}, nil
}

func (e *Extractor) Handle(ctx context.Context, sessionID string, input string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", fmt.Errorf("%w: session id is empty", contractx.ErrValidation)
	}

	st, err := e.loadOrCreate(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if isResetCommand(input) {
		st.ResetDraft()
		if err := e.save(ctx, st); err != nil {
			return "", err
		}
		return msgReset, nil
	}

	extracted, err := e.extract(ctx, input, st.Draft)
	if err != nil {
		// Malformed model output and provider failures are both recoverable:
		// the stored draft stays untouched and the user can restate.
		log.Warn().Err(err).Str("session_id", sessionID).Msg("opportunity extraction failed")
		return msgRephrase, nil
	}

	st.Draft.Merge(
		extracted.ContactName,
		extracted.CompanyName,
		extracted.DealStage,
		extracted.Amount,
		extracted.CloseDate,
	)

	missing := st.Draft.Missing()
	if len(missing) > 0 {
		if err := e.save(ctx, st); err != nil {
			return "", err
		}
		return missingFieldsMessage(missing), nil
	}

	summary := completionSummary(st.Draft)
	// Submission consumes the draft: the next turn starts from scratch.
	st.ResetDraft()
	if err := e.save(ctx, st); err != nil {
		return "", err
	}
	return summary, nil
}

func (e *Extractor) extract(
	ctx context.Context,
	input string,
	draft statex.OpportunityDraft,
) (contractx.OpportunityExtraction, error) {
	payload := map[string]any{
		"user_message":  strings.TrimSpace(input),
		"previous_data": draft.Render(),
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return contractx.OpportunityExtraction{}, fmt.Errorf("%w: marshal extraction payload: %v", contractx.ErrValidation, err)
	}

	out, err := e.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return contractx.OpportunityExtraction{}, fmt.Errorf("%w: %v", contractx.ErrExtractionParse, err)
	}
	return out, nil
}

func (e *Extractor) loadOrCreate(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	st, err := e.store.Load(ctx, sessionID)
	if err == nil {
		return st, nil
	}
	if errors.Is(err, statex.ErrStateNotFound) {
		return statex.NewSessionState(sessionID, e.now()), nil
	}
	return nil, fmt.Errorf("%w: load session: %v", contractx.ErrStoreUnavailable, err)
}

func (e *Extractor) save(ctx context.Context, st *statex.SessionState) error {
	st.Touch(e.now())
	if err := e.store.Save(ctx, st); err != nil {
		return fmt.Errorf("%w: save session: %v", contractx.ErrStoreUnavailable, err)
	}
	return nil
}

func isResetCommand(input string) bool {
	_, ok := resetCommands[strings.ToLower(strings.TrimSpace(input))]
	return ok
}

func missingFieldsMessage(missing []string) string {
	return "To complete the opportunity, please provide the following missing details: " +
		strings.Join(missing, ", ") + "."
}

func completionSummary(d statex.OpportunityDraft) string {
	var b strings.Builder
	b.WriteString("Opportunity successfully created!\nDetails:\n")
	values := map[string]string{
		statex.FieldContactName: d.ContactName,
		statex.FieldCompanyName: d.CompanyName,
		statex.FieldDealStage:   d.DealStage,
		statex.FieldAmount:      d.Amount,
		statex.FieldCloseDate:   d.CloseDate,
	}
	for _, field := range statex.FieldOrder {
		fmt.Fprintf(&b, "- %s: %s\n", fieldLabels[field], values[field])
	}
	return strings.TrimRight(b.String(), "\n")
}

var _ contractx.OpportunityHandler = (*Extractor)(nil)
