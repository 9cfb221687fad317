package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIChatSendsSystemPromptFirst(t *testing.T) {
	var got openaiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", auth)
		}

		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"pong"}}]}`))
	}))
	defer server.Close()

	model := newOpenAICompatible("test-key", server.URL, "test-model")

	reply, err := model.Chat(context.Background(), "be brief", []Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
		{Role: "user", Content: "ping"},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if reply != "pong" {
		t.Errorf("expected pong, got %q", reply)
	}

	wantRoles := []string{"system", "user", "assistant", "user"}
	if len(got.Messages) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(got.Messages))
	}
	for i, role := range wantRoles {
		if got.Messages[i].Role != role {
			t.Errorf("message %d: role %s, want %s", i, got.Messages[i].Role, role)
		}
	}

	if got.Messages[0].Content != "be brief" {
		t.Errorf("system message content: %q", got.Messages[0].Content)
	}
}

func TestOpenAIChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	model := newOpenAICompatible("test-key", server.URL, "test-model")

	if _, err := model.Chat(context.Background(), "", []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestOpenAIChatEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	model := newOpenAICompatible("test-key", server.URL, "test-model")

	if _, err := model.Chat(context.Background(), "", []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(Config{Provider: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewKnownProviders(t *testing.T) {
	for _, provider := range []string{"claude", "openai", "kimi", "ollama", "groq", "mistral", "deepseek"} {
		if _, err := New(Config{Provider: provider, APIKey: "k"}); err != nil {
			t.Errorf("New(%s) failed: %v", provider, err)
		}
	}
}
