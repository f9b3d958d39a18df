package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"docketvoice/internal/application"
	"docketvoice/internal/infra"
)

const defaultChatModel = "gpt-4o-mini"

// ChatClient completes chats through the official SDK. SDK retries are
// disabled so the shared retry policy applies.
type ChatClient struct {
	client openai.Client
	model  string
}

func NewChatClient(apiKey, model string) *ChatClient {
	return NewChatClientWithURL(apiKey, model, "")
}

func NewChatClientWithURL(apiKey, model, baseURL string) *ChatClient {
	if model == "" {
		model = defaultChatModel
	}
	return &ChatClient{
		client: openai.NewClient(clientOptions(apiKey, baseURL)...),
		model:  model,
	}
}

func (c *ChatClient) Name() string {
	return "openai"
}

func (c *ChatClient) Complete(ctx context.Context, req application.ChatRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: buildMessages(req),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	var reply string
	err := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return infra.Permanent(fmt.Errorf("empty response from openai"))
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	return strings.TrimSpace(reply), nil
}

func buildMessages(req application.ChatRequest) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case application.RoleAssistant:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(m.Content),
					},
				},
			})
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// classify marks SDK errors with non-retryable statuses as permanent.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && !infra.IsRetryableHTTPStatus(apiErr.StatusCode) {
		return infra.Permanent(err)
	}
	return err
}
