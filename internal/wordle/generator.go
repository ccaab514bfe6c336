package wordle

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusnest/forum/internal/calendar"
)

// Word sources recorded on DailyWord.Source.
const (
	SourceGemini   = "gemini"
	SourceFallback = "fallback"
	SourceAdmin    = "admin"
)

// maxHintRunes caps the length of a generated hint.
const maxHintRunes = 50

// DailyWord is the secret for one calendar day.
type DailyWord struct {
	Day       calendar.Day `json:"day"`
	Word      string       `json:"word"`
	Hint      string       `json:"hint"`
	Source    string       `json:"source"`
	CreatedBy *uuid.UUID   `json:"created_by"`
	CreatedAt time.Time    `json:"created_at"`
}

// HintValid reports whether hint can be shown alongside word.
func HintValid(word, hint string) bool {
	return hint == "" || !strings.Contains(strings.ToUpper(hint), Canonical(word))
}

// TextGenerator produces text from a prompt. *gemini.Client satisfies it.
type TextGenerator interface {
	Configured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

var fallbackWords = []string{
	// academics
	"STUDY", "LEARN", "BOOKS", "CLASS", "NOTES", "EXAMS", "GRADE", "MARKS",
	"TEACH", "BRAIN", "SMART", "THINK", "WRITE", "PAPER", "ESSAY", "TOPIC",
	// campus life
	"DORMS", "ROOMS", "BUDDY", "SQUAD", "CROWD", "PARTY",
	"CLUBS", "FESTS", "MUSIC", "DANCE", "STAGE", "GAMES", "SPORT", "FIELD",
	// tech
	"CODES", "LOGIC", "DEBUG", "STACK", "LINUX", "REACT", "LOOPS", "ARRAY",
	"ROBOT", "CYBER", "CLOUD", "NODES", "QUERY", "PIXEL", "BYTES", "INPUT",
	// canteen
	"FOODS", "MEALS", "SNACK", "PIZZA", "JUICE", "BEANS", "BREAD", "SPICE",
	// student life
	"SLEEP", "TIRED", "CHILL", "RELAX", "HAPPY", "PEACE", "DREAM", "GOALS",
	"FOCUS", "GRIND", "BREAK", "NIGHT", "EARLY", "PRIME",
	// places
	"BLOCK", "TOWER", "PLAZA", "LAWNS", "COURT", "TRACK", "BENCH",
	// misc
	"BATCH", "MAJOR", "MINOR", "GROUP", "TEAMS", "LEADS", "SKILL",
	"INTRO", "FINAL", "TERMS", "SCALE", "POINT", "RANGE", "LEVEL", "PRIZE",
}

// FallbackWords returns the curated list used when generation fails. It is
// never empty.
func FallbackWords() []string {
	return append([]string(nil), fallbackWords...)
}

const wordPrompt = `Generate exactly ONE 5-letter English word related to college student life, university campus, academics, technology, engineering, hostels, or student activities.

Requirements:
- EXACTLY 5 letters (no more, no less)
- Common English word (not obscure)
- Related to student/college life themes like: studying, exams, coding, hostel life, friends, food, campus, fests, clubs, sports, technology, programming
- Easy to medium difficulty for a word guessing game

Examples of good words: STUDY, EXAMS, CODES, PIZZA, SLEEP, GAMES, BOOKS, NOTES, CLASS, PARTY

Return ONLY the single 5-letter word in uppercase, nothing else.`

const hintPrompt = `Give a very short, cryptic hint (max 5 words) for the word %q without revealing the word itself. The hint should be related to college/student life context. Return ONLY the hint, nothing else.`

// Generator picks daily words, asking a language model first and falling
// back to the curated list.
type Generator struct {
	llm      TextGenerator
	fallback []string
	pick     func(n int) int
	log      *zap.SugaredLogger
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithFallbackWords replaces the curated list. Invalid entries are dropped;
// an empty result keeps the built-in list.
func WithFallbackWords(words []string) GeneratorOption {
	return func(g *Generator) {
		var valid []string
		for _, w := range words {
			if w = Canonical(w); ValidFormat(w) {
				valid = append(valid, w)
			}
		}
		if len(valid) > 0 {
			g.fallback = valid
		}
	}
}

// WithPicker replaces the random index source (tests).
func WithPicker(pick func(n int) int) GeneratorOption {
	return func(g *Generator) { g.pick = pick }
}

// WithGeneratorLogger sets the logger.
func WithGeneratorLogger(l *zap.SugaredLogger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGenerator creates a Generator. llm may be nil.
func NewGenerator(llm TextGenerator, opts ...GeneratorOption) *Generator {
	g := &Generator{
		llm:      llm,
		fallback: FallbackWords(),
		pick:     rand.IntN,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) llmReady() bool {
	return g.llm != nil && g.llm.Configured()
}

// Word returns a new secret and where it came from. It never fails.
func (g *Generator) Word(ctx context.Context) (word, source string) {
	if g.llmReady() {
		out, err := g.llm.Generate(ctx, wordPrompt)
		if err != nil {
			g.log.Warnw("[wordle] word generation failed, using fallback", "error", err)
		} else if w := Canonical(strings.Trim(out, " \t\r\n.\"'`")); ValidFormat(w) {
			return w, SourceGemini
		} else {
			g.log.Warnw("[wordle] generated word rejected, using fallback", "word", out)
		}
	}
	return g.fallback[g.pick(len(g.fallback))], SourceFallback
}

// Hint asks the model for a short hint. It returns "" when no model is
// configured, the call fails or the hint gives the word away.
func (g *Generator) Hint(ctx context.Context, word string) string {
	if !g.llmReady() {
		return ""
	}
	out, err := g.llm.Generate(ctx, fmt.Sprintf(hintPrompt, word))
	if err != nil {
		g.log.Warnw("[wordle] hint generation failed", "error", err)
		return ""
	}
	hint := strings.TrimSpace(out)
	if !HintValid(word, hint) {
		return ""
	}
	if utf8.RuneCountInString(hint) > maxHintRunes {
		hint = string([]rune(hint)[:maxHintRunes])
	}
	return hint
}
