package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"docketvoice/internal/infra"
)

// WhisperClient transcribes recorded clips with whisper-1.
type WhisperClient struct {
	client   openai.Client
	language string
}

func NewWhisperClient(apiKey, language string) *WhisperClient {
	return NewWhisperClientWithURL(apiKey, language, "")
}

func NewWhisperClientWithURL(apiKey, language, baseURL string) *WhisperClient {
	if language == "" {
		language = "en"
	}
	return &WhisperClient{
		client:   openai.NewClient(clientOptions(apiKey, baseURL)...),
		language: language,
	}
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	name, contentType := clipFile(audio)

	var text string
	err := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		// The reader is consumed per attempt.
		params := openai.AudioTranscriptionNewParams{
			File:     openai.File(bytes.NewReader(audio), name, contentType),
			Model:    openai.AudioModelWhisper1,
			Language: openai.String(c.language),
		}
		resp, err := c.client.Audio.Transcriptions.New(ctx, params)
		if err != nil {
			return classify(err)
		}
		text = resp.Text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return text, nil
}

// clipFile names an upload after its container so the API decodes it
// correctly. Unknown data is sent as WAV.
func clipFile(audio []byte) (string, string) {
	switch ct := http.DetectContentType(audio); {
	case strings.HasPrefix(ct, "audio/mpeg"), isMP3Frame(audio):
		return "audio.mp3", "audio/mpeg"
	case strings.HasPrefix(ct, "video/webm"), strings.HasPrefix(ct, "audio/webm"):
		return "audio.webm", "audio/webm"
	case strings.HasPrefix(ct, "video/mp4"), strings.HasPrefix(ct, "audio/mp4"),
		len(audio) >= 8 && string(audio[4:8]) == "ftyp":
		return "audio.m4a", "audio/mp4"
	}
	return "audio.wav", "audio/wav"
}

// isMP3Frame reports an MPEG audio frame sync with no ID3 tag in front.
func isMP3Frame(b []byte) bool {
	return len(b) > 1 && b[0] == 0xFF && b[1]&0xE0 == 0xE0
}

func clientOptions(apiKey, baseURL string) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return opts
}
