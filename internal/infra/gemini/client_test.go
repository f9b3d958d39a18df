package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docketvoice/internal/application"
	"docketvoice/internal/infra/gemini"
)

func TestClient_Complete(t *testing.T) {
	var got struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		SystemInstruction *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"systemInstruction"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"value\":"},{"text":"\"married\"}"}]}}]}`))
	}))
	defer server.Close()

	client := gemini.NewClientWithURL("test-key", "gemini-test", server.URL)

	reply, err := client.Complete(context.Background(), application.ChatRequest{
		System: "Extract the value.",
		Messages: []application.ChatMessage{
			{Role: application.RoleUser, Content: "I got married last year"},
			{Role: application.RoleAssistant, Content: "ok"},
		},
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	if reply != `{"value":"married"}` {
		t.Errorf("reply: got %q", reply)
	}

	if len(got.Contents) != 2 || got.Contents[0].Role != "user" || got.Contents[1].Role != "model" {
		t.Errorf("contents: %+v", got.Contents)
	}

	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "Extract the value." {
		t.Errorf("system instruction: %+v", got.SystemInstruction)
	}
}

func TestClient_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":{"message":"quota exhausted","code":429}}`))
	}))
	defer server.Close()

	client := gemini.NewClientWithURL("test-key", "", server.URL)

	_, err := client.Complete(context.Background(), application.ChatRequest{})
	if err == nil || !strings.Contains(err.Error(), "quota exhausted") {
		t.Errorf("expected quota error, got %v", err)
	}
}
