package company

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
	llmx "github.com/tanpawarit/Chative-Sales-Assistant/agent/llm"
	statex "github.com/tanpawarit/Chative-Sales-Assistant/agent/state"
)

const (
	noCompany = "none"

	msgExtractFailed = "I couldn't figure out which company you mean. Could you rephrase with the company name?"
	msgProfileFailed = "I couldn't put together information about that company right now. Please try again."
)

// Telegram-style markdown control characters the model tends to emit.
var markdownChars = regexp.MustCompile("[_\\[\\]()~`>#+\\-=|{}!*]")

// Prompts is the subset of the prompt set the resolver needs.
type Prompts struct {
	Extraction string
	Profile    string
	Chat       string
}

// Resolver answers company questions. Every turn first extracts the company
// name and two flags from the message, then takes exactly one of three paths:
// explicit context switch, profile lookup, or history-aware follow-up chat.
// The switch branch is checked before the query branch so "let's talk about X
// instead, what do they do" lands on the switch.
type Resolver struct {
	store     statex.Store
	history   statex.HistoryStore
	directory contractx.Directory

	extractRunner compose.Runnable[map[string]any, contractx.CompanyExtraction]
	profileRunner compose.Runnable[map[string]any, *schema.Message]
	chatRunner    compose.Runnable[[]*schema.Message, *schema.Message]
	chatPrompt    string

	now func() time.Time
}

func NewResolver(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	prompts Prompts,
	store statex.Store,
	history statex.HistoryStore,
	directory contractx.Directory,
) (*Resolver, error) {
	if strings.TrimSpace(prompts.Extraction) == "" {
		return nil, fmt.Errorf("%w: company extraction prompt", contractx.ErrPromptMissing)
	}
	if strings.TrimSpace(prompts.Profile) == "" {
		return nil, fmt.Errorf("%w: company profile prompt", contractx.ErrPromptMissing)
	}
	if strings.TrimSpace(prompts.Chat) == "" {
		return nil, fmt.Errorf("%w: company chat prompt", contractx.ErrPromptMissing)
	}
	if store == nil || history == nil {
		return nil, errors.New("state and history stores are required")
	}

	extractRunner, err := llmx.CompileStructuredGraph[contractx.CompanyExtraction](
		ctx, chatModel, prompts.Extraction, "company.extraction_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile company extraction graph: %v", contractx.ErrModelInvoke, err)
	}
	profileRunner, err := llmx.CompileTextGraph(ctx, chatModel, prompts.Profile, "company.profile_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile company profile graph: %v", contractx.ErrModelInvoke, err)
	}
	chatRunner, err := llmx.CompileChatGraph(ctx, chatModel, "company.chat_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile company chat graph: %v", contractx.ErrModelInvoke, err)
	}

	return &Resolver{
		store:         store,
		history:       history,
		directory:     directory,
		extractRunner: extractRunner,
		profileRunner: profileRunner,
		chatRunner:    chatRunner,
		chatPrompt:    strings.TrimSpace(prompts.Chat),
		now:           time.Now,
	}, nil
}

func (r *Resolver) Handle(ctx context.Context, sessionID string, input string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", fmt.Errorf("%w: session id is empty", contractx.ErrValidation)
	}

	extracted, err := r.extract(ctx, input)
	if err != nil {
		// Malformed output or a provider failure; nothing has been persisted
		// yet, so the safe move is to ask the user to restate.
		log.Warn().Err(err).Str("session_id", sessionID).Msg("company extraction failed")
		return msgExtractFailed, nil
	}

	candidate := strings.ToLower(strings.TrimSpace(extracted.CompanyName))
	if candidate == "" {
		candidate = noCompany
	}

	switch {
	case extracted.ChangeCompany && candidate != noCompany:
		return r.switchCompany(ctx, sessionID, candidate)
	case extracted.IsCompanyQuery && candidate != noCompany:
		return r.describeCompany(ctx, sessionID, candidate)
	default:
		return r.chat(ctx, sessionID, input)
	}
}

func (r *Resolver) extract(ctx context.Context, input string) (contractx.CompanyExtraction, error) {
	out, err := r.extractRunner.Invoke(ctx, map[string]any{
		"input": strings.TrimSpace(input),
	})
	if err != nil {
		return contractx.CompanyExtraction{}, fmt.Errorf("%w: %v", contractx.ErrExtractionParse, err)
	}
	return out, nil
}

// switchCompany updates the active company and drops the prior transcript so
// follow-ups cannot leak context from the previous company.
func (r *Resolver) switchCompany(ctx context.Context, sessionID, candidate string) (string, error) {
	st, err := r.loadOrCreate(ctx, sessionID)
	if err != nil {
		return "", err
	}
	st.SetCompany(candidate)
	if err := r.save(ctx, st); err != nil {
		return "", err
	}
	if err := r.history.Clear(ctx, sessionID); err != nil {
		return "", fmt.Errorf("%w: clear history: %v", contractx.ErrStoreUnavailable, err)
	}
	return fmt.Sprintf("Company context changed to %s.", titleCase(candidate)), nil
}

// describeCompany records the company as the active context, then answers
// from the known-company dataset when it can and from the model otherwise.
func (r *Resolver) describeCompany(ctx context.Context, sessionID, candidate string) (string, error) {
	st, err := r.loadOrCreate(ctx, sessionID)
	if err != nil {
		return "", err
	}
	st.SetCompany(candidate)
	if err := r.save(ctx, st); err != nil {
		return "", err
	}

	if rec, ok := r.directory.Lookup(candidate); ok {
		return knownCompanySummary(rec), nil
	}

	out, err := r.profileRunner.Invoke(ctx, map[string]any{
		"input": candidate,
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Str("company", candidate).
			Msg("company profile generation failed")
		return msgProfileFailed, nil
	}
	return sanitizeMarkdown(out.Content), nil
}

// chat answers a follow-up question against the session transcript.
func (r *Resolver) chat(ctx context.Context, sessionID, input string) (string, error) {
	past, err := r.history.History(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("%w: load history: %v", contractx.ErrStoreUnavailable, err)
	}

	messages := make([]*schema.Message, 0, len(past)+2)
	messages = append(messages, schema.SystemMessage(r.chatPrompt))
	messages = append(messages, past...)
	messages = append(messages, schema.UserMessage(strings.TrimSpace(input)))

	out, err := r.chatRunner.Invoke(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: company chat: %v", contractx.ErrModelInvoke, err)
	}
	return sanitizeMarkdown(out.Content), nil
}

func (r *Resolver) loadOrCreate(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	st, err := r.store.Load(ctx, sessionID)
	if err == nil {
		return st, nil
	}
	if errors.Is(err, statex.ErrStateNotFound) {
		return statex.NewSessionState(sessionID, r.now()), nil
	}
	return nil, fmt.Errorf("%w: load session: %v", contractx.ErrStoreUnavailable, err)
}

func (r *Resolver) save(ctx context.Context, st *statex.SessionState) error {
	st.Touch(r.now())
	if err := r.store.Save(ctx, st); err != nil {
		return fmt.Errorf("%w: save session: %v", contractx.ErrStoreUnavailable, err)
	}
	return nil
}

func knownCompanySummary(rec contractx.KnownCompanyRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is a known company we've worked with before.\n", titleCase(rec.CompanyName))
	if rec.ProjectDetails != "" {
		fmt.Fprintf(&b, "Project Details: %s\n", rec.ProjectDetails)
	}
	if rec.WorkedWith != "" {
		fmt.Fprintf(&b, "Worked With: %s\n", rec.WorkedWith)
	}
	if len(rec.Contacts) > 0 {
		fmt.Fprintf(&b, "Contacts: %s\n", strings.Join(rec.Contacts, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// sanitizeMarkdown strips markdown control characters so channel clients
// render the reply as plain text.
func sanitizeMarkdown(s string) string {
	return strings.TrimSpace(markdownChars.ReplaceAllString(s, ""))
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var _ contractx.CompanyHandler = (*Resolver)(nil)
