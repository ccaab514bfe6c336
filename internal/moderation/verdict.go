package moderation

import (
	"context"
	"sort"
)

// Source identifies which evaluator produced a verdict.
type Source string

const (
	SourceLocal       Source = "local"
	SourcePerspective Source = "perspective"
	SourceOpenAI      Source = "openai"
	SourceGemini      Source = "gemini"
	SourceNone        Source = "none"
)

// Categories emitted by the local filter. Providers report their own labels.
const (
	CategoryProfanity  = "profanity"
	CategoryHarassment = "harassment"
)

// LanguageUnknown is reported when no language could be identified.
const LanguageUnknown = "unknown"

// Verdict is the outcome of moderating one text.
type Verdict struct {
	IsUnsafe     bool     `json:"isUnsafe"`
	Confidence   float64  `json:"confidence"`
	Categories   []string `json:"categories"`
	FlaggedWords []string `json:"flaggedWords"`
	Language     string   `json:"language"`
	Source       Source   `json:"source"`
}

// Moderator is implemented by anything that can turn text into a Verdict:
// the in-process Cascade, or a remote moderation service.
type Moderator interface {
	Moderate(ctx context.Context, text string) Verdict
}

// normalized returns a copy with confidence clamped to [0,1], the unsafe flag
// derived from threshold, and categories and flagged words deduplicated.
func (v Verdict) normalized(threshold float64) Verdict {
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	v.IsUnsafe = v.IsUnsafe || v.Confidence >= threshold
	v.Categories = dedupeSorted(v.Categories)
	v.FlaggedWords = dedupe(v.FlaggedWords)
	return v
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func dedupeSorted(in []string) []string {
	out := dedupe(in)
	sort.Strings(out)
	return out
}
