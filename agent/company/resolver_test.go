package company

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Sales-Assistant/agent/state"
)

type fakeChatModel struct {
	responses []*schema.Message
	errs      []error
	idx       int
	inputs    [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	i := f.idx
	f.idx++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	return f.responses[i], nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

type fakeStore struct {
	states  map[string]*statex.SessionState
	loadErr error
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: map[string]*statex.SessionState{}}
}

func (f *fakeStore) Load(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	st, ok := f.states[sessionID]
	if !ok {
		return nil, statex.ErrStateNotFound
	}
	clone := *st
	return &clone, nil
}

func (f *fakeStore) Save(ctx context.Context, st *statex.SessionState) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	clone := *st
	f.states[st.SessionID] = &clone
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error {
	delete(f.states, sessionID)
	return nil
}

type fakeHistory struct {
	messages map[string][]*schema.Message
	histErr  error
	clears   []string
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{messages: map[string][]*schema.Message{}}
}

func (f *fakeHistory) Append(ctx context.Context, sessionID string, msg *schema.Message) error {
	f.messages[sessionID] = append(f.messages[sessionID], msg)
	return nil
}

func (f *fakeHistory) History(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	if f.histErr != nil {
		return nil, f.histErr
	}
	return f.messages[sessionID], nil
}

func (f *fakeHistory) Clear(ctx context.Context, sessionID string) error {
	f.clears = append(f.clears, sessionID)
	f.messages[sessionID] = nil
	return nil
}

func testNow() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func extractionJSON(t *testing.T, ex contractx.CompanyExtraction) string {
	t.Helper()
	raw, err := json.Marshal(ex)
	if err != nil {
		t.Fatalf("marshal extraction: %v", err)
	}
	return string(raw)
}

func testPrompts() Prompts {
	return Prompts{
		Extraction: "extraction prompt",
		Profile:    "profile prompt",
		Chat:       "chat prompt",
	}
}

func newTestResolver(t *testing.T, fake *fakeChatModel, store *fakeStore, history *fakeHistory, dir contractx.Directory) *Resolver {
	t.Helper()
	if dir == nil {
		dir = NewDirectory(nil)
	}
	r, err := NewResolver(context.Background(), fake, testPrompts(), store, history, dir)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return r
}

func TestHandleKnownCompanyQueryUsesDirectory(t *testing.T) {
	t.Parallel()

	dir := NewDirectory([]contractx.KnownCompanyRecord{
		{
			CompanyName:    "acme",
			ProjectDetails: "CRM rollout in 2024",
			WorkedWith:     "IT division",
			Contacts:       []string{"a@acme.com"},
		},
	})
	fake := &fakeChatModel{
		responses: []*schema.Message{
			{Content: extractionJSON(t, contractx.CompanyExtraction{
				CompanyName:    "acme",
				IsCompanyQuery: true,
			})},
		},
	}
	store := newFakeStore()

	r := newTestResolver(t, fake, store, newFakeHistory(), dir)
	reply, err := r.Handle(context.Background(), "s1", "what do you know about Acme?")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if !strings.Contains(reply, "CRM rollout in 2024") || !strings.Contains(reply, "a@acme.com") {
		t.Fatalf("directory record must feed the reply: %q", reply)
	}
	// Exactly one model call: the extraction. The profile path is bypassed.
	if len(fake.inputs) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(fake.inputs))
	}
	if store.states["s1"].Company != "acme" {
		t.Fatalf("active company = %q, want acme", store.states["s1"].Company)
	}
}

func TestHandleUnknownCompanyQueryGeneratesProfile(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{
		responses: []*schema.Message{
			{Content: extractionJSON(t, contractx.CompanyExtraction{
				CompanyName:    "globex",
				IsCompanyQuery: true,
			})},
			{Content: "Globex is a *multinational* corporation [citation]"},
		},
	}
	store := newFakeStore()

	r := newTestResolver(t, fake, store, newFakeHistory(), nil)
	reply, err := r.Handle(context.Background(), "s2", "tell me about Globex")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if strings.ContainsAny(reply, "*[]") {
		t.Fatalf("markdown characters must be stripped: %q", reply)
	}
	if !strings.Contains(reply, "Globex is a multinational corporation") {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if store.states["s2"].Company != "globex" {
		t.Fatalf("active company = %q, want globex", store.states["s2"].Company)
	}
}

func TestHandleChangeCompanyWinsOverQuery(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{
		responses: []*schema.Message{
			{Content: extractionJSON(t, contractx.CompanyExtraction{
				CompanyName:    "initech",
				IsCompanyQuery: true,
				ChangeCompany:  true,
			})},
		},
	}
	store := newFakeStore()
	st := statex.NewSessionState("s3", testNow())
	st.SetCompany("acme")
	store.states["s3"] = st
	history := newFakeHistory()
	history.messages["s3"] = []*schema.Message{schema.UserMessage("about acme")}

	r := newTestResolver(t, fake, store, history, nil)
	reply, err := r.Handle(context.Background(), "s3", "let's talk about Initech instead, what do they do?")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if reply != "Company context changed to Initech." {
		t.Fatalf("reply = %q", reply)
	}
	if store.states["s3"].Company != "initech" {
		t.Fatalf("active company = %q, want initech", store.states["s3"].Company)
	}
	if len(history.clears) != 1 || history.clears[0] != "s3" {
		t.Fatalf("history must be cleared on switch: %#v", history.clears)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("switch must not call profile or chat model, calls = %d", len(fake.inputs))
	}
}

func TestHandleFollowUpUsesHistory(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{
		responses: []*schema.Message{
			{Content: extractionJSON(t, contractx.CompanyExtraction{CompanyName: "none"})},
			{Content: "They were founded in 1999."},
		},
	}
	history := newFakeHistory()
	history.messages["s4"] = []*schema.Message{
		schema.UserMessage("tell me about globex"),
		schema.AssistantMessage("Globex is a multinational corporation", nil),
	}

	r := newTestResolver(t, fake, newFakeStore(), history, nil)
	reply, err := r.Handle(context.Background(), "s4", "when were they founded?")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if reply != "They were founded in 1999." {
		t.Fatalf("reply = %q", reply)
	}

	if len(fake.inputs) != 2 {
		t.Fatalf("expected extraction + chat calls, got %d", len(fake.inputs))
	}
	chatInput := fake.inputs[1]
	if chatInput[0].Role != schema.System {
		t.Fatalf("chat call must start with system prompt, got %v", chatInput[0].Role)
	}
	if len(chatInput) != 4 {
		t.Fatalf("chat call must replay history plus current turn, got %d messages", len(chatInput))
	}
	if chatInput[len(chatInput)-1].Content != "when were they founded?" {
		t.Fatalf("last message must be the current turn: %q", chatInput[len(chatInput)-1].Content)
	}
}

func TestHandleExtractionFailureAsksToRephrase(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{
		responses: []*schema.Message{{Content: "not json at all"}},
	}
	store := newFakeStore()

	r := newTestResolver(t, fake, store, newFakeHistory(), nil)
	reply, err := r.Handle(context.Background(), "s5", "what about acme")
	if err != nil {
		t.Fatalf("Handle() error = %v, parse failures must not fail the turn", err)
	}
	if reply != msgExtractFailed {
		t.Fatalf("reply = %q", reply)
	}
	if len(store.states) != 0 {
		t.Fatalf("no state may be written on parse failure: %#v", store.states)
	}
}

func TestHandleHistoryFailureIsStoreUnavailable(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{
		responses: []*schema.Message{
			{Content: extractionJSON(t, contractx.CompanyExtraction{CompanyName: "none"})},
		},
	}
	history := newFakeHistory()
	history.histErr = errors.New("connection refused")

	r := newTestResolver(t, fake, newFakeStore(), history, nil)
	_, err := r.Handle(context.Background(), "s6", "what did we discuss?")
	if !errors.Is(err, contractx.ErrStoreUnavailable) {
		t.Fatalf("Handle() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestSanitizeMarkdown(t *testing.T) {
	t.Parallel()

	got := sanitizeMarkdown("  _Acme_ [Corp] (est. 1990) #1 supplier! ")
	if strings.ContainsAny(got, "_[]()#!") {
		t.Fatalf("control characters left in: %q", got)
	}
	if !strings.Contains(got, "Acme Corp") {
		t.Fatalf("text content lost: %q", got)
	}
}
