package llm

import (
	"context"
	"fmt"
	"strings"

	"docketvoice/internal/application"
)

const advisorSystemPrompt = `You are the emergency helper inside a voice assistant that collects bankruptcy intake information.
The person paused the interview because they need help right now.
Answer in two or three short spoken sentences, plain words, no lists or markdown.
Give general information only, never legal advice, and tell them to call their attorney for anything about their specific case.
If they describe a crisis or danger, tell them to call 911 or their local emergency number.`

const fallbackAnswer = "I'm not able to answer that right now. Please call your attorney directly."

// Advisor answers questions asked from the emergency pause menu.
type Advisor struct {
	model application.ChatModel
}

func NewAdvisor(model application.ChatModel) *Advisor {
	return &Advisor{model: model}
}

func (a *Advisor) Answer(ctx context.Context, question string) (string, error) {
	reply, err := a.model.Complete(ctx, application.ChatRequest{
		System:      advisorSystemPrompt,
		Messages:    []application.ChatMessage{{Role: application.RoleUser, Content: question}},
		MaxTokens:   200,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("answering question: %w", err)
	}

	reply = strings.TrimSpace(strings.ReplaceAll(reply, "*", ""))
	if reply == "" {
		return fallbackAnswer, nil
	}
	return reply, nil
}
