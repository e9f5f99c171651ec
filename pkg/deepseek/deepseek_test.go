package deepseek

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type chatRequest struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, status int, reply string, seen *chatRequest) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	var seen chatRequest
	srv := newTestServer(t, http.StatusOK, `{
		"id": "cmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "deepseek-chat",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Pack layers."}}]
	}`, &seen)

	m, err := New(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "deepseek-chat", Temperature: 0.3})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	msg, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("be brief"),
		schema.UserMessage("hi"),
		schema.AssistantMessage("hello", nil),
		schema.UserMessage("what to pack"),
	}, model.WithTemperature(0))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if msg.Content != "Pack layers." || msg.Role != schema.Assistant {
		t.Fatalf("Generate() = %+v", msg)
	}

	if seen.Model != "deepseek-chat" {
		t.Fatalf("model = %q", seen.Model)
	}
	if seen.Temperature == nil || *seen.Temperature != 0 {
		t.Fatalf("temperature = %v, want the per-call override 0", seen.Temperature)
	}
	roles := make([]string, 0, len(seen.Messages))
	for _, m := range seen.Messages {
		roles = append(roles, m.Role)
	}
	want := []string{"system", "user", "assistant", "user"}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v, want %v", roles, want)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("roles = %v, want %v", roles, want)
		}
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, http.StatusInternalServerError, `{"error": {"message": "boom"}}`, nil)
	m, err := New(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "deepseek-chat"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")}); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Model: "deepseek-chat"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := New(Config{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing model")
	}
}
