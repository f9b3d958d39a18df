package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docketvoice/internal/application"
	"docketvoice/internal/infra"
	"docketvoice/internal/infra/openai"
)

func TestWhisperClient_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))

		f, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		assert.Equal(t, "RIFF-audio", string(data))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"chapter seven"}`))
	}))
	defer server.Close()

	client := openai.NewWhisperClientWithURL("test-key", "", server.URL)
	text, err := client.Transcribe(context.Background(), []byte("RIFF-audio"))
	require.NoError(t, err)
	assert.Equal(t, "chapter seven", text)
}

func TestWhisperClient_BadRequestIsPermanent(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":{"message":"Invalid file format."}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := openai.NewWhisperClientWithURL("test-key", "en", server.URL)
	_, err := client.Transcribe(context.Background(), []byte("not audio"))
	require.Error(t, err)
	assert.True(t, infra.IsPermanent(err))
	assert.Equal(t, 1, calls)
}

func TestWhisperClient_NamesUploadByContainer(t *testing.T) {
	tests := []struct {
		name     string
		clip     []byte
		filename string
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), "audio.wav"},
		{"mp3 with tag", []byte("ID3\x04\x00\x00\x00\x00\x00\x00frames"), "audio.mp3"},
		{"bare mp3 frame", []byte{0xFF, 0xFB, 0x90, 0x64, 0x00}, "audio.mp3"},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F, 0x42, 0x86, 0x81}, "audio.webm"},
		{"m4a", []byte("\x00\x00\x00\x20ftypM4A \x00\x00\x00\x00M4A isom"), "audio.m4a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, header, err := r.FormFile("file"); assert.NoError(t, err) {
					got = header.Filename
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"text":"ok"}`))
			}))
			defer server.Close()

			client := openai.NewWhisperClientWithURL("test-key", "en", server.URL)
			_, err := client.Transcribe(context.Background(), tt.clip)
			require.NoError(t, err)
			assert.Equal(t, tt.filename, got)
		})
	}
}

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-test",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestChatClient_Complete(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxCompletionTokens int `json:"max_completion_tokens"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse(" OK \n"))
	}))
	defer server.Close()

	client := openai.NewChatClientWithURL("test-key", "gpt-test", server.URL)
	reply, err := client.Complete(context.Background(), application.ChatRequest{
		System:    "Be brief.",
		Messages:  []application.ChatMessage{{Role: application.RoleUser, Content: "ping"}},
		MaxTokens: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "OK", reply)
	assert.Equal(t, "openai", client.Name())

	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, 5, got.MaxCompletionTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Be brief.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestChatClient_UnauthorizedIsPermanent(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	client := openai.NewChatClientWithURL("bad-key", "", server.URL)
	_, err := client.Complete(context.Background(), application.ChatRequest{
		Messages: []application.ChatMessage{{Role: application.RoleUser, Content: "ping"}},
	})
	require.Error(t, err)
	assert.True(t, infra.IsPermanent(err))
	assert.Equal(t, 1, calls)
}
