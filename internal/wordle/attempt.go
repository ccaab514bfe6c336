package wordle

import (
	"time"

	"github.com/google/uuid"

	"github.com/campusnest/forum/internal/calendar"
)

// State is the lifecycle position of an Attempt.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateWon        State = "won"
	StateLost       State = "lost"
)

// Guess is one accepted guess and its marks.
type Guess struct {
	Guess  string `json:"guess"`
	Result Result `json:"result"`
}

// Attempt is one user's play-through of one day's word. Word is the secret
// as it was when the attempt was created; later admin changes to the day's
// word do not affect it.
type Attempt struct {
	UserID        uuid.UUID    `json:"user_id"`
	Day           calendar.Day `json:"day"`
	Word          string       `json:"-"`
	Guesses       []Guess      `json:"guesses"`
	Completed     bool         `json:"completed"`
	Won           bool         `json:"won"`
	AttemptsCount int          `json:"attempts"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewAttempt starts an attempt for user on day against word.
func NewAttempt(user uuid.UUID, day calendar.Day, word string) *Attempt {
	return &Attempt{
		UserID:  user,
		Day:     day,
		Word:    word,
		Guesses: []Guess{},
	}
}

// State derives the lifecycle state from the attempt's fields.
func (a *Attempt) State() State {
	switch {
	case a == nil || a.AttemptsCount == 0:
		return StateNotStarted
	case a.Won:
		return StateWon
	case a.Completed:
		return StateLost
	default:
		return StateInProgress
	}
}

// Remaining returns the number of guesses left.
func (a *Attempt) Remaining() int {
	return MaxAttempts - a.AttemptsCount
}

// Apply validates guess and, if accepted, appends it. guess must already be
// canonical (see Canonical). The secret itself is always accepted even when
// dict does not list it.
//
// State conflicts are checked before the guess, whatever was typed: a won
// game reports ErrAlreadyCompleted even when the win came on the last guess,
// and six misses report ErrAttemptLimitExceeded. A rejected guess leaves the
// attempt untouched.
func (a *Attempt) Apply(guess string, dict Dictionary) (Guess, error) {
	if a.Won {
		return Guess{}, ErrAlreadyCompleted
	}
	if a.AttemptsCount >= MaxAttempts {
		return Guess{}, ErrAttemptLimitExceeded
	}
	if a.Completed {
		return Guess{}, ErrAlreadyCompleted
	}
	if !ValidFormat(guess) {
		return Guess{}, ErrInvalidGuess
	}
	if guess != a.Word && (dict == nil || !dict.IsValidWord(guess)) {
		return Guess{}, ErrInvalidWord
	}

	res, err := Evaluate(guess, a.Word)
	if err != nil {
		return Guess{}, err
	}

	g := Guess{Guess: guess, Result: res}
	a.Guesses = append(a.Guesses, g)
	a.AttemptsCount = len(a.Guesses)
	switch {
	case guess == a.Word:
		a.Completed = true
		a.Won = true
	case a.AttemptsCount >= MaxAttempts:
		a.Completed = true
	}
	return g, nil
}

// Clone returns a deep copy.
func (a *Attempt) Clone() *Attempt {
	if a == nil {
		return nil
	}
	c := *a
	c.Guesses = append([]Guess{}, a.Guesses...)
	return &c
}
