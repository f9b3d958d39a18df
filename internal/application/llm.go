package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string
	Content string
}

type ChatRequest struct {
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatModel is a single-turn chat completion backend.
type ChatModel interface {
	Name() string
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Extraction asks a model to pull one field value out of a spoken answer.
type Extraction struct {
	Field    string
	Question string
	Answer   string
	Options  []string
}

// AnswerExtractor is consulted when rule-based parsing of an answer fails.
// ok is false when the model could not find a value either.
type AnswerExtractor interface {
	Extract(ctx context.Context, e Extraction) (value string, ok bool, err error)
}

// Advisor answers free-form questions asked in emergency mode.
type Advisor interface {
	Answer(ctx context.Context, question string) (string, error)
}

// FallbackChat tries each model in order, the way the voice backends do.
type FallbackChat struct {
	models []ChatModel
	logger *slog.Logger
}

func NewFallbackChat(logger *slog.Logger, models ...ChatModel) *FallbackChat {
	return &FallbackChat{models: models, logger: logger}
}

func (f *FallbackChat) Name() string {
	names := make([]string, 0, len(f.models))
	for _, m := range f.models {
		names = append(names, m.Name())
	}
	return strings.Join(names, ",")
}

func (f *FallbackChat) Complete(ctx context.Context, req ChatRequest) (string, error) {
	var errs []error
	for _, m := range f.models {
		out, err := m.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		f.logger.Warn("chat model failed, trying next", "model", m.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", m.Name(), err))
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("no chat model configured")
	}
	return "", fmt.Errorf("all chat models failed: %w", errors.Join(errs...))
}
