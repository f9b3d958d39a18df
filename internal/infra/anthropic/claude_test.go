package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"docketvoice/internal/application"
	"docketvoice/internal/infra"
	"docketvoice/internal/infra/anthropic"
)

func TestClaudeClient_Complete(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		response := map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "  Chapter 7  "},
			},
			"id":   "msg_1",
			"type": "message",
			"role": "assistant",
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	reply, err := client.Complete(context.Background(), application.ChatRequest{
		System:   "Extract the chapter.",
		Messages: []application.ChatMessage{{Role: application.RoleUser, Content: "the liquidation one"}},
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	if reply != "Chapter 7" {
		t.Errorf("reply: got %q, want Chapter 7", reply)
	}

	if got["model"] != "claude-test" {
		t.Errorf("model: got %v", got["model"])
	}

	system, _ := got["system"].([]any)
	if len(system) != 1 || system[0].(map[string]any)["text"] != "Extract the chapter." {
		t.Errorf("system: got %v", got["system"])
	}

	if got["max_tokens"] != float64(512) {
		t.Errorf("max_tokens: got %v, want default 512", got["max_tokens"])
	}

	if _, ok := got["temperature"]; ok {
		t.Error("temperature should be omitted when unset")
	}
}

func TestClaudeClient_PermanentError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"invalid x-api-key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("bad-key", "", server.URL)

	_, err := client.Complete(context.Background(), application.ChatRequest{
		Messages: []application.ChatMessage{{Role: application.RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	if !infra.IsPermanent(err) {
		t.Errorf("401 should not be retried: %v", err)
	}

	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestClaudeClient_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","content":[]}`))
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "", server.URL)

	if _, err := client.Complete(context.Background(), application.ChatRequest{}); err == nil {
		t.Error("expected error for empty content")
	}

	if client.Name() != "claude" {
		t.Errorf("Name: got %q", client.Name())
	}
}
