package wordle

import (
	"context"

	"github.com/google/uuid"

	"github.com/campusnest/forum/internal/calendar"
)

// PlayFunc mutates a user's attempt and streak inside Store.Play. Returning
// an error discards both changes.
type PlayFunc func(a *Attempt, s *StreakState) error

// LeaderboardEntry is one row of the streak leaderboard.
type LeaderboardEntry struct {
	UserID uuid.UUID   `json:"user_id"`
	Streak StreakState `json:"streak"`
}

// Store persists daily words, attempts and streaks.
type Store interface {
	// GetDailyWord returns ErrNotFound when day has no word.
	GetDailyWord(ctx context.Context, day calendar.Day) (*DailyWord, error)
	// CreateDailyWord inserts w unless its day already has a word, and
	// returns whichever word is stored afterwards.
	CreateDailyWord(ctx context.Context, w *DailyWord) (*DailyWord, error)
	// PutDailyWord inserts or replaces the word for w.Day.
	PutDailyWord(ctx context.Context, w *DailyWord) (*DailyWord, error)
	// DeleteDailyWord returns ErrNotFound when day has no word.
	DeleteDailyWord(ctx context.Context, day calendar.Day) error
	// ListDailyWords returns the most recent words first.
	ListDailyWords(ctx context.Context, limit int) ([]DailyWord, error)

	// GetAttempt returns ErrNotFound when the user has not played day.
	GetAttempt(ctx context.Context, user uuid.UUID, day calendar.Day) (*Attempt, error)
	// GetStreak returns the zero StreakState for users who never finished a game.
	GetStreak(ctx context.Context, user uuid.UUID) (StreakState, error)

	// Play loads or creates the (user, day) attempt, snapshotting word on
	// creation, and the user's streak, calls fn, and persists both if fn
	// succeeds. Calls for the same user are serialized.
	Play(ctx context.Context, user uuid.UUID, day calendar.Day, word string, fn PlayFunc) (*Attempt, StreakState, error)

	// CountGames returns how many attempts the user has and how many were won.
	CountGames(ctx context.Context, user uuid.UUID) (total, wins int, err error)
	// TopStreaks returns users with a current streak above zero, longest first.
	TopStreaks(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}
