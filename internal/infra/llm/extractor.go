package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"docketvoice/internal/application"
)

const extractSystemPrompt = `You help a voice intake assistant understand spoken answers for a bankruptcy petition.
You are given the question that was asked, the field being filled, and the transcript of what the person said.
Speech-to-text may have garbled words; use common sense.

Respond ONLY with valid JSON (no markdown, no backticks):
{"value": "the normalized answer", "understood": true}

If the answer does not contain a value for the field, respond {"value": "", "understood": false}.`

// Extractor pulls a single field value out of a free-form answer.
type Extractor struct {
	model application.ChatModel
}

func NewExtractor(model application.ChatModel) *Extractor {
	return &Extractor{model: model}
}

type extraction struct {
	Value      string `json:"value"`
	Understood bool   `json:"understood"`
}

func (e *Extractor) Extract(ctx context.Context, x application.Extraction) (string, bool, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Field: %s\n", x.Field)
	fmt.Fprintf(&b, "Question: %s\n", x.Question)
	fmt.Fprintf(&b, "Answer: %s\n", x.Answer)
	if len(x.Options) > 0 {
		fmt.Fprintf(&b, "The value must be exactly one of: %s\n", strings.Join(x.Options, ", "))
	}
	if x.Field == "amount" {
		b.WriteString("Give the amount as a plain number of dollars, like 2500.\n")
	}

	reply, err := e.model.Complete(ctx, application.ChatRequest{
		System:    extractSystemPrompt,
		Messages:  []application.ChatMessage{{Role: application.RoleUser, Content: b.String()}},
		MaxTokens: 128,
	})
	if err != nil {
		return "", false, fmt.Errorf("extracting %s: %w", x.Field, err)
	}

	var out extraction
	if err := json.Unmarshal([]byte(stripFences(reply)), &out); err != nil {
		return "", false, fmt.Errorf("parsing extraction JSON (%s): %w", reply, err)
	}

	value := strings.TrimSpace(out.Value)
	if !out.Understood || value == "" {
		return "", false, nil
	}
	if len(x.Options) > 0 && !oneOf(value, x.Options) {
		return "", false, nil
	}
	return value, true, nil
}

func oneOf(v string, options []string) bool {
	for _, o := range options {
		if strings.EqualFold(v, o) {
			return true
		}
	}
	return false
}

// stripFences removes the markdown code fence models sometimes wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
