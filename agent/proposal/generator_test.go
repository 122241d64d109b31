package proposal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Sales-Assistant/agent/state"
	openrouterx "github.com/tanpawarit/Chative-Sales-Assistant/pkg/openrouter"
)

type fakeStore struct {
	states  map[string]*statex.SessionState
	loadErr error
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
	clone := *st
	f.states[st.SessionID] = &clone
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error {
	delete(f.states, sessionID)
	return nil
}

type fakeFiles struct {
	uploads []string
	url     string
	err     error
}

func (f *fakeFiles) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	f.uploads = append(f.uploads, name)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func completionServer(t *testing.T, content string, capture *[]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if capture != nil {
			raw, err := io.ReadAll(r.Body)
			if err != nil {
				t.Errorf("read body: %v", err)
			}
			*capture = raw
		}
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "test-model",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
}

func newTestGenerator(t *testing.T, baseURL string, store statex.Store, files contractx.FileStore) *Generator {
	t.Helper()
	client := openrouterx.NewClient(openrouterx.Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
	g, err := NewGenerator(client, "test-model", "proposal prompt", store, nil, files)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

func TestHandleReturnsAttachment(t *testing.T) {
	t.Parallel()

	server := completionServer(t, "## Scope\nBuild the thing.", nil)
	t.Cleanup(server.Close)

	files := &fakeFiles{url: "https://files.example.com/proposal.md"}
	g := newTestGenerator(t, server.URL, newFakeStore(), files)

	resp, err := g.Handle(context.Background(), "s1", "draft a proposal for Acme")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if resp.Text != msgDraftReady {
		t.Fatalf("text = %q", resp.Text)
	}
	if len(resp.Attachments) != 1 {
		t.Fatalf("expected one attachment, got %d", len(resp.Attachments))
	}

	att := resp.Attachments[0]
	if att.ContentType != "text/markdown" {
		t.Fatalf("content type = %q", att.ContentType)
	}
	if att.ContentURL != files.url {
		t.Fatalf("content url = %q", att.ContentURL)
	}
	decoded, err := base64.StdEncoding.DecodeString(att.Content)
	if err != nil {
		t.Fatalf("decode attachment: %v", err)
	}
	if !strings.Contains(string(decoded), "Build the thing.") {
		t.Fatalf("outline missing from document: %q", decoded)
	}
	if len(files.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(files.uploads))
	}
}

func TestHandleProviderFailureReturnsFallback(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	g := newTestGenerator(t, server.URL, newFakeStore(), nil)

	resp, err := g.Handle(context.Background(), "s2", "draft a proposal")
	if err != nil {
		t.Fatalf("Handle() error = %v, provider failures must not fail the turn", err)
	}
	if resp.Text != msgDraftFailed {
		t.Fatalf("text = %q, want fallback", resp.Text)
	}
	if len(resp.Attachments) != 0 {
		t.Fatalf("no attachment expected on failure, got %d", len(resp.Attachments))
	}
}

func TestHandleUploadFailureKeepsInlinePayload(t *testing.T) {
	t.Parallel()

	server := completionServer(t, "Outline body", nil)
	t.Cleanup(server.Close)

	files := &fakeFiles{err: errors.New("bucket gone")}
	g := newTestGenerator(t, server.URL, newFakeStore(), files)

	resp, err := g.Handle(context.Background(), "s3", "draft a proposal")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(resp.Attachments) != 1 {
		t.Fatalf("attachment must survive upload failure, got %d", len(resp.Attachments))
	}
	if resp.Attachments[0].ContentURL != "" {
		t.Fatalf("content url must be empty on upload failure, got %q", resp.Attachments[0].ContentURL)
	}
}

func TestHandleIncludesActiveCompanyContext(t *testing.T) {
	t.Parallel()

	var captured []byte
	server := completionServer(t, "Outline body", &captured)
	t.Cleanup(server.Close)

	store := newFakeStore()
	st := statex.NewSessionState("s4", time.Now())
	st.SetCompany("acme")
	store.states["s4"] = st

	g := newTestGenerator(t, server.URL, store, nil)
	if _, err := g.Handle(context.Background(), "s4", "draft a proposal for them"); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !strings.Contains(string(captured), "Active company context: acme") {
		t.Fatalf("request must carry company context: %s", captured)
	}
}

func TestHandleEmptySessionID(t *testing.T) {
	t.Parallel()

	server := completionServer(t, "Outline body", nil)
	t.Cleanup(server.Close)

	g := newTestGenerator(t, server.URL, newFakeStore(), nil)
	_, err := g.Handle(context.Background(), " ", "draft")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Handle() error = %v, want ErrValidation", err)
	}
}
