package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"distill/engine/internal/llm"
)

func TestChatSendsBearerAuth(t *testing.T) {
	var auth string
	var req chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"verdict text"}}]}`))
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, client: server.Client()}
	resp, err := client.Chat(context.Background(), "sk-test", "gpt-5.2", []llm.Message{{Role: "user", Content: "validate"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp != "verdict text" {
		t.Fatalf("unexpected response: %q", resp)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("expected bearer auth, got %q", auth)
	}
	if req.Model != "gpt-5.2" || len(req.Messages) != 1 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestChatMapsStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()
	client := &Client{baseURL: server.URL, client: server.Client()}
	_, err := client.Chat(context.Background(), "bad", "gpt-5.2", []llm.Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, llm.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
