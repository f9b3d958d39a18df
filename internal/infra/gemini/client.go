package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docketvoice/internal/application"
	"docketvoice/internal/infra"
)

type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewClient(apiKey, model string) *Client {
	return NewClientWithURL(apiKey, model, "https://generativelanguage.googleapis.com/v1beta")
}

func NewClientWithURL(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
	}
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type request struct {
	Contents         []content        `json:"contents"`
	SystemInstruct   *content         `json:"systemInstruction,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *Client) Name() string {
	return "gemini"
}

// Complete maps chat roles onto Gemini's user/model turns.
func (c *Client) Complete(ctx context.Context, chat application.ChatRequest) (string, error) {
	reqBody := request{
		GenerationConfig: generationConfig{
			MaxOutputTokens: chat.MaxTokens,
			Temperature:     chat.Temperature,
		},
	}
	if reqBody.GenerationConfig.MaxOutputTokens <= 0 {
		reqBody.GenerationConfig.MaxOutputTokens = 512
	}
	if chat.System != "" {
		reqBody.SystemInstruct = &content{Parts: []part{{Text: chat.System}}}
	}
	for _, m := range chat.Messages {
		role := "user"
		if m.Role == application.RoleAssistant {
			role = "model"
		}
		reqBody.Contents = append(reqBody.Contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var result response
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return infra.StatusError("gemini", resp.StatusCode, respBody)
		}

		if err = json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		return nil
	})

	if retryErr != nil {
		return "", retryErr
	}

	if result.Error != nil {
		return "", fmt.Errorf("gemini error: %s", result.Error.Message)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var b strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String()), nil
}
