package wordle

import "errors"

// Validation errors: the input was rejected and no attempt was consumed.
var (
	ErrInvalidGuess  = errors.New("wordle: guess must be exactly 5 letters")
	ErrInvalidWord   = errors.New("wordle: not a valid word")
	ErrInvalidSecret = errors.New("wordle: word must be exactly 5 letters")
	ErrInvalidHint   = errors.New("wordle: hint must not contain the word")
	ErrInvalidDay    = errors.New("wordle: invalid day")
)

// State conflicts: the request was well formed but the game state forbids it.
var (
	ErrAlreadyCompleted     = errors.New("wordle: already completed today")
	ErrAttemptLimitExceeded = errors.New("wordle: no attempts left today")
)

// ErrNotFound is returned by stores for missing daily words and attempts.
var ErrNotFound = errors.New("wordle: not found")

// IsValidation reports whether err is an input validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidGuess) ||
		errors.Is(err, ErrInvalidWord) ||
		errors.Is(err, ErrInvalidSecret) ||
		errors.Is(err, ErrInvalidHint) ||
		errors.Is(err, ErrInvalidDay)
}

// IsConflict reports whether err is a game state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyCompleted) || errors.Is(err, ErrAttemptLimitExceeded)
}
