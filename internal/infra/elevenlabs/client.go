package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"docketvoice/internal/application"
	"docketvoice/internal/infra"
)

const (
	baseURL = "https://api.elevenlabs.io/v1"

	DefaultModel = "eleven_multilingual_v2"
	// DefaultVoice is the stock "Rachel" voice.
	DefaultVoice = "21m00Tcm4TlvDq8ikWAM"

	defaultStability       = 0.5
	defaultSimilarityBoost = 0.75

	pcmFormat = "pcm_24000"
	mp3Format = "mp3_44100_128"
)

var ErrEmptyText = errors.New("text is empty")

// Client synthesizes speech as raw 24 kHz 16-bit mono PCM. Accounts whose
// plan rejects PCM output get mp3 instead, and later calls go straight to
// mp3.
type Client struct {
	apiKey     string
	baseURL    string
	voice      string
	model      string
	httpClient *http.Client
	mp3Only    atomic.Bool
}

var outputs = map[string]application.AudioFormat{
	pcmFormat: {SampleRate: 24000, Channels: 1, BitDepth: 16, Encoding: application.EncodingPCM},
	mp3Format: {SampleRate: 44100, Channels: 1, Encoding: application.EncodingMP3},
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func WithVoice(voice string) Option {
	return func(c *Client) {
		if voice != "" {
			c.voice = voice
		}
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		voice:      DefaultVoice,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id,omitempty"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, application.AudioFormat, error) {
	if text == "" {
		return nil, outputs[pcmFormat], ErrEmptyText
	}

	bodyBytes, err := json.Marshal(request{
		Text:    text,
		ModelID: c.model,
		VoiceSettings: &voiceSettings{
			Stability:       defaultStability,
			SimilarityBoost: defaultSimilarityBoost,
		},
	})
	if err != nil {
		return nil, outputs[pcmFormat], fmt.Errorf("marshaling request: %w", err)
	}

	if !c.mp3Only.Load() {
		data, err := c.synthesize(ctx, bodyBytes, pcmFormat)
		if err == nil || !formatRejected(err) {
			return data, outputs[pcmFormat], err
		}
		c.mp3Only.Store(true)
	}

	data, err := c.synthesize(ctx, bodyBytes, mp3Format)
	return data, outputs[mp3Format], err
}

func (c *Client) synthesize(ctx context.Context, body []byte, outputFormat string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", c.baseURL, c.voice, outputFormat)

	var audio []byte
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("xi-api-key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return infra.StatusError("elevenlabs", resp.StatusCode, respBody)
		}

		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading audio: %w", err)
		}
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return audio, nil
}

// formatRejected reports whether the API refused the requested output
// format rather than the key or the text.
func formatRejected(err error) bool {
	var apiErr *infra.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
