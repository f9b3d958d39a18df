package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"docketvoice/internal/application"
	"docketvoice/internal/infra"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 512
)

// ClaudeClient is a ChatModel backed by the Messages API.
type ClaudeClient struct {
	client anthropic.Client
	model  string
}

func NewClaudeClient(apiKey, model string) *ClaudeClient {
	return NewClaudeClientWithURL(apiKey, model, "")
}

// NewClaudeClientWithURL points the client at baseURL, which the SDK
// extends with /v1/messages.
func NewClaudeClientWithURL(apiKey, model, baseURL string) *ClaudeClient {
	if model == "" {
		model = defaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &ClaudeClient{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (c *ClaudeClient) Name() string {
	return "claude"
}

func (c *ClaudeClient) Complete(ctx context.Context, chat application.ChatRequest) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: defaultMaxTokens,
		Messages:  buildMessages(chat.Messages),
	}
	if chat.MaxTokens > 0 {
		params.MaxTokens = int64(chat.MaxTokens)
	}
	if chat.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: chat.System}}
	}
	if chat.Temperature > 0 {
		params.Temperature = anthropic.Float(chat.Temperature)
	}

	var reply string
	err := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return classify(err)
		}

		var parts []string
		for _, block := range msg.Content {
			if block.Type == "text" {
				parts = append(parts, block.Text)
			}
		}
		if len(parts) == 0 {
			return infra.Permanent(fmt.Errorf("empty response from claude"))
		}
		reply = strings.Join(parts, "")
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("claude completion: %w", err)
	}

	return strings.TrimSpace(reply), nil
}

func buildMessages(msgs []application.ChatMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == application.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
			continue
		}
		out = append(out, anthropic.NewUserMessage(block))
	}
	return out
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && !infra.IsRetryableHTTPStatus(apiErr.StatusCode) {
		return infra.Permanent(err)
	}
	return err
}
