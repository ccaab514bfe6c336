package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Generator produces text from a prompt. *gemini.Client satisfies it.
type Generator interface {
	Configured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

const llmPrompt = `Analyze this text for toxicity. Return ONLY valid JSON:
{
  "isUnsafe": boolean,
  "confidence": number between 0.0 and 1.0,
  "categories": ["harassment", "hate", "sexual", "violence", etc if applicable]
}

Text: %q`

// LLM asks a general-purpose language model for a toxicity judgement. It is
// the last provider in the cascade.
type LLM struct {
	gen    Generator
	source Source
}

// NewLLM wraps gen as a stage reporting source.
func NewLLM(gen Generator, source Source) *LLM {
	return &LLM{gen: gen, source: source}
}

func (l *LLM) Name() Source { return l.source }

type llmReply struct {
	IsUnsafe   bool     `json:"isUnsafe"`
	Confidence float64  `json:"confidence"`
	Categories []string `json:"categories"`
}

// Check implements Stage.
func (l *LLM) Check(ctx context.Context, text string) (*Verdict, error) {
	if l.gen == nil || !l.gen.Configured() {
		return nil, nil
	}
	out, err := l.gen.Generate(ctx, fmt.Sprintf(llmPrompt, text))
	if err != nil {
		return nil, err
	}

	var reply llmReply
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &reply); err != nil {
		return nil, fmt.Errorf("%s: parse reply: %w", l.source, err)
	}
	return &Verdict{
		IsUnsafe:     reply.IsUnsafe,
		Confidence:   reply.Confidence,
		Categories:   reply.Categories,
		FlaggedWords: []string{},
		Source:       l.source,
	}, nil
}

// stripCodeFence removes a surrounding ```json ... ``` block.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
