// Package wordle implements the forum's daily five-letter word game: the
// guess evaluator, the per-user per-day attempt state machine, streak
// bookkeeping, the valid-word dictionary and generation of the day's word.
package wordle

import (
	"fmt"
	"strings"
)

const (
	// WordLength is the length of every secret and every guess.
	WordLength = 5
	// MaxAttempts is the number of guesses a player gets per day.
	MaxAttempts = 6
)

// Status is the mark given to one letter of a guess.
type Status string

const (
	StatusCorrect Status = "correct"
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Result holds one Status per guess position.
type Result [WordLength]Status

// Won reports whether every position is correct.
func (r Result) Won() bool {
	for _, s := range r {
		if s != StatusCorrect {
			return false
		}
	}
	return true
}

// Evaluate scores guess against secret. Both must be WordLength uppercase
// ASCII letters.
//
// Letters are marked in two passes over a count of the secret's letters:
// exact matches first, then present/absent left to right while copies of the
// letter remain. A letter is never marked more often than it occurs in the
// secret.
func Evaluate(guess, secret string) (Result, error) {
	var res Result
	if !ValidFormat(guess) {
		return res, fmt.Errorf("%w: %q", ErrInvalidGuess, guess)
	}
	if !ValidFormat(secret) {
		return res, fmt.Errorf("wordle: invalid secret %q", secret)
	}

	var remaining [26]int
	for i := 0; i < WordLength; i++ {
		remaining[secret[i]-'A']++
	}

	for i := 0; i < WordLength; i++ {
		if guess[i] == secret[i] {
			res[i] = StatusCorrect
			remaining[guess[i]-'A']--
		}
	}

	for i := 0; i < WordLength; i++ {
		if res[i] != "" {
			continue
		}
		if c := guess[i] - 'A'; remaining[c] > 0 {
			res[i] = StatusPresent
			remaining[c]--
		} else {
			res[i] = StatusAbsent
		}
	}
	return res, nil
}

// ValidFormat reports whether w is exactly WordLength uppercase ASCII letters.
func ValidFormat(w string) bool {
	if len(w) != WordLength {
		return false
	}
	for i := 0; i < len(w); i++ {
		if w[i] < 'A' || w[i] > 'Z' {
			return false
		}
	}
	return true
}

// Canonical trims and uppercases user input.
func Canonical(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}
