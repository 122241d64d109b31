package proposal

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Sales-Assistant/agent/state"
)

const (
	msgDraftReady  = "Here's a draft proposal based on your request. Let me know if you'd like any changes."
	msgDraftFailed = "I couldn't draft the proposal right now. Please try again in a moment."
)

// Generator drafts proposal documents. It calls the completion API directly
// rather than through a graph because the outline is free-form prose with no
// structured parse step.
type Generator struct {
	client       openaisdk.Client
	model        string
	systemPrompt string
	store        statex.Store
	renderer     contractx.Renderer
	files        contractx.FileStore
}

func NewGenerator(
	client *openaisdk.Client,
	model string,
	systemPrompt string,
	store statex.Store,
	renderer contractx.Renderer,
	files contractx.FileStore,
) (*Generator, error) {
	if client == nil {
		return nil, errors.New("completion client is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("proposal model is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: proposal prompt", contractx.ErrPromptMissing)
	}
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if renderer == nil {
		renderer = NewMarkdownRenderer()
	}

	return &Generator{
		client:       *client,
		model:        strings.TrimSpace(model),
		systemPrompt: strings.TrimSpace(systemPrompt),
		store:        store,
		renderer:     renderer,
		files:        files,
	}, nil
}

func (g *Generator) Handle(ctx context.Context, sessionID string, input string) (contractx.TurnResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return contractx.TurnResponse{}, fmt.Errorf("%w: session id is empty", contractx.ErrValidation)
	}

	outline, err := g.draftOutline(ctx, sessionID, input)
	if err != nil {
		// Provider failures are recoverable; no state was touched.
		log.Warn().Err(err).Str("session_id", sessionID).Msg("proposal drafting failed")
		return contractx.TurnResponse{Text: msgDraftFailed}, nil
	}

	name, contentType, data, err := g.renderer.Render(outline)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("proposal rendering failed")
		return contractx.TurnResponse{Text: msgDraftFailed}, nil
	}

	attachment := contractx.Attachment{
		Name:        name,
		ContentType: contentType,
		Content:     base64.StdEncoding.EncodeToString(data),
	}
	if g.files != nil {
		url, err := g.files.Upload(ctx, name, contentType, data)
		if err != nil {
			// The inline payload still reaches the user; only the link is lost.
			log.Warn().Err(err).Str("session_id", sessionID).Msg("proposal upload failed")
		} else {
			attachment.ContentURL = url
		}
	}

	return contractx.TurnResponse{
		Text:        msgDraftReady,
		Attachments: []contractx.Attachment{attachment},
	}, nil
}

// draftOutline asks the model for the proposal body. The active company from
// the session, when one is set, is folded into the request so "draft a
// proposal for them" works without restating the name.
func (g *Generator) draftOutline(ctx context.Context, sessionID, input string) (string, error) {
	userMessage := strings.TrimSpace(input)
	if company := g.activeCompany(ctx, sessionID); company != "" {
		userMessage = fmt.Sprintf("%s\n\nActive company context: %s", userMessage, company)
	}

	resp, err := g.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(g.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(g.systemPrompt),
			openaisdk.UserMessage(userMessage),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: proposal completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: proposal completion returned no choices", contractx.ErrSchemaViolation)
	}

	outline := strings.TrimSpace(resp.Choices[0].Message.Content)
	if outline == "" {
		return "", fmt.Errorf("%w: proposal completion returned empty content", contractx.ErrSchemaViolation)
	}
	return outline, nil
}

func (g *Generator) activeCompany(ctx context.Context, sessionID string) string {
	st, err := g.store.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, statex.ErrStateNotFound) {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("load session for proposal context failed")
		}
		return ""
	}
	return st.Company
}

var _ contractx.ProposalHandler = (*Generator)(nil)
