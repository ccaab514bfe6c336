// Package moderation screens forum posts and comments before they are
// published. A fast local lexical filter runs first; when it stays silent the
// text is handed down a cascade of external classifiers, and the first one
// that answers decides whether the submission is published or held for review.
package moderation

import (
	"context"
	"strings"
	"unicode"

	"github.com/cloudflare/ahocorasick"
)

// minSubstringLen is the shortest term matched inside the letters-only
// concatenation. Shorter terms only match whole tokens.
const minSubstringLen = 4

// Filter is the local lexical filter. It is immutable after construction and
// safe for concurrent use.
type Filter struct {
	tokens   map[string]string // normalized token -> term
	squeezed map[string]string // run-squeezed token -> term

	substr        *ahocorasick.Matcher
	substrTerms   []string
	squeezedSub   *ahocorasick.Matcher
	squeezedTerms []string

	clean map[string]bool // allowlisted tokens, excluded from substring matching

	lexicon Lexicon
}

// NewFilter builds a filter over lex.
func NewFilter(lex Lexicon) *Filter {
	f := &Filter{
		tokens:   make(map[string]string),
		squeezed: make(map[string]string),
		clean:    make(map[string]bool),
		lexicon:  lex,
	}

	var compacts, squeezedCompacts []string
	seen := make(map[string]bool)
	inMatcher := make(map[string]bool)
	for _, raw := range lex.Words {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true

		compact := lettersOnly(Normalize(term))
		if compact == "" {
			continue
		}
		single := !strings.Contains(term, " ")
		if _, taken := f.tokens[compact]; single && !taken {
			f.tokens[compact] = term
		}
		if len(compact) < minSubstringLen {
			continue
		}
		// Only terms without doubled letters get a squeezed variant; squeezing
		// "saale" to "sale" would flag ordinary words.
		squeezable := squeeze(compact) == compact
		if squeezable && single {
			f.squeezed[compact] = term
		}
		if inMatcher[compact] {
			continue
		}
		inMatcher[compact] = true
		compacts = append(compacts, compact)
		f.substrTerms = append(f.substrTerms, term)
		if squeezable {
			squeezedCompacts = append(squeezedCompacts, compact)
			f.squeezedTerms = append(f.squeezedTerms, term)
		}
	}

	for _, w := range lex.Allow {
		tok := lettersOnly(Normalize(w))
		if _, banned := f.tokens[tok]; tok != "" && !banned {
			f.clean[tok] = true
		}
	}

	f.substr = ahocorasick.NewStringMatcher(compacts)
	f.squeezedSub = ahocorasick.NewStringMatcher(squeezedCompacts)
	return f
}

// Stage adapts the filter to the cascade. The local stage can only end the
// cascade with an unsafe verdict; its silence never proves a text is safe.
func (f *Filter) Stage() Stage { return localStage{f} }

type localStage struct{ f *Filter }

func (s localStage) Name() Source     { return SourceLocal }
func (s localStage) UnsafeOnly() bool { return true }

func (s localStage) Check(_ context.Context, text string) (*Verdict, error) {
	return s.f.Check(text), nil
}

// Check returns an unsafe verdict when text matches the denylist or a
// harassment pattern, and nil otherwise. nil means "no verdict", not "safe".
func (f *Filter) Check(text string) *Verdict {
	normalized := Normalize(text)

	var flagged []string
	found := make(map[string]bool)
	add := func(term string) {
		if !found[term] {
			found[term] = true
			flagged = append(flagged, term)
		}
	}

	tokens := tokenize(normalized)
	for _, tok := range tokens {
		if term, ok := f.tokens[tok]; ok {
			add(term)
			continue
		}
		if len(tok) >= minSubstringLen {
			if term, ok := f.squeezed[squeeze(tok)]; ok {
				add(term)
			}
		}
	}

	for _, compact := range f.compacts(tokens) {
		for _, i := range f.substr.MatchThreadSafe([]byte(compact)) {
			add(f.substrTerms[i])
		}
		for _, i := range f.squeezedSub.MatchThreadSafe([]byte(squeeze(compact))) {
			add(f.squeezedTerms[i])
		}
	}

	patterns := 0
	for _, p := range f.lexicon.Patterns {
		if p.MatchString(text) || p.MatchString(normalized) {
			patterns++
		}
	}

	if len(flagged) == 0 && patterns == 0 {
		return nil
	}

	confidence := 0.5 + 0.15*float64(len(flagged)) + 0.2*float64(patterns)
	if confidence > 1 {
		confidence = 1
	}

	category := CategoryProfanity
	if patterns > 0 {
		category = CategoryHarassment
	}

	if flagged == nil {
		flagged = []string{}
	}
	return &Verdict{
		IsUnsafe:     true,
		Confidence:   confidence,
		Categories:   []string{category},
		FlaggedWords: flagged,
		Source:       SourceLocal,
	}
}

// compacts joins tokens into letters-only runs for substring matching. With
// no allowlisted token the result is the single letters-only form of the
// text; an allowlisted token is dropped and splits the run around it.
func (f *Filter) compacts(tokens []string) []string {
	var (
		out []string
		b   strings.Builder
	)
	for _, tok := range tokens {
		if f.clean[tok] {
			if b.Len() > 0 {
				out = append(out, b.String())
				b.Reset()
			}
			continue
		}
		b.WriteString(tok)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// tokenize splits s on every non-letter rune.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// lettersOnly drops every non-letter rune, so "f u c k" and "f-u-c-k"
// both become "fuck".
func lettersOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
