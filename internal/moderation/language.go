package moderation

import (
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

// minDetectRunes is the shortest text for which a language is guessed.
const minDetectRunes = 10

// LanguageDetector returns an ISO 639-1 code for text, or LanguageUnknown.
type LanguageDetector interface {
	Detect(text string) string
}

// WhatlangDetector detects languages with whatlanggo trigram profiles.
type WhatlangDetector struct {
	// MinConfidence rejects low-confidence guesses. Zero accepts any.
	MinConfidence float64
}

// Detect implements LanguageDetector.
func (d WhatlangDetector) Detect(text string) string {
	if utf8.RuneCountInString(text) < minDetectRunes {
		return LanguageUnknown
	}
	info := whatlanggo.Detect(text)
	if d.MinConfidence > 0 && info.Confidence < d.MinConfidence {
		return LanguageUnknown
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return LanguageUnknown
	}
	return code
}
