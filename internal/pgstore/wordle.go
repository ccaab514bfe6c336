package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/campusnest/forum/internal/calendar"
	"github.com/campusnest/forum/internal/wordle"
)

// WordleStore implements wordle.Store in PostgreSQL.
type WordleStore struct {
	db *sql.DB
}

var _ wordle.Store = (*WordleStore)(nil)

// NewWordleStore creates a store backed by the given database handle.
func NewWordleStore(db *sql.DB) *WordleStore {
	return &WordleStore{db: db}
}

const dailyWordColumns = `day, word, hint, source, created_by, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDailyWord(row rowScanner) (*wordle.DailyWord, error) {
	var (
		w         wordle.DailyWord
		createdBy uuid.NullUUID
	)
	if err := row.Scan(&w.Day, &w.Word, &w.Hint, &w.Source, &createdBy, &w.CreatedAt); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		id := createdBy.UUID
		w.CreatedBy = &id
	}
	return &w, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (s *WordleStore) GetDailyWord(ctx context.Context, day calendar.Day) (*wordle.DailyWord, error) {
	const query = `SELECT ` + dailyWordColumns + ` FROM daily_words WHERE day = $1`

	w, err := scanDailyWord(s.db.QueryRowContext(ctx, query, day))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wordle.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: get daily word: %w", err)
	}
	return w, nil
}

// CreateDailyWord inserts w if its day is free. A concurrent insert for the
// same day wins and its row is returned instead.
func (s *WordleStore) CreateDailyWord(ctx context.Context, w *wordle.DailyWord) (*wordle.DailyWord, error) {
	const query = `
		INSERT INTO daily_words (day, word, hint, source, created_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (day) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query, w.Day, w.Word, w.Hint, w.Source, nullUUID(w.CreatedBy)); err != nil {
		return nil, fmt.Errorf("pgstore: create daily word: %w", err)
	}
	return s.GetDailyWord(ctx, w.Day)
}

func (s *WordleStore) PutDailyWord(ctx context.Context, w *wordle.DailyWord) (*wordle.DailyWord, error) {
	const query = `
		INSERT INTO daily_words (day, word, hint, source, created_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (day) DO UPDATE
		SET word = EXCLUDED.word,
		    hint = EXCLUDED.hint,
		    source = EXCLUDED.source,
		    created_by = EXCLUDED.created_by,
		    created_at = NOW()
		RETURNING ` + dailyWordColumns

	stored, err := scanDailyWord(s.db.QueryRowContext(ctx, query, w.Day, w.Word, w.Hint, w.Source, nullUUID(w.CreatedBy)))
	if err != nil {
		return nil, fmt.Errorf("pgstore: put daily word: %w", err)
	}
	return stored, nil
}

func (s *WordleStore) DeleteDailyWord(ctx context.Context, day calendar.Day) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM daily_words WHERE day = $1`, day)
	if err != nil {
		return fmt.Errorf("pgstore: delete daily word: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgstore: delete daily word: %w", err)
	}
	if n == 0 {
		return wordle.ErrNotFound
	}
	return nil
}

func (s *WordleStore) ListDailyWords(ctx context.Context, limit int) ([]wordle.DailyWord, error) {
	const query = `SELECT ` + dailyWordColumns + ` FROM daily_words ORDER BY day DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list daily words: %w", err)
	}
	defer rows.Close()

	var out []wordle.DailyWord
	for rows.Next() {
		w, err := scanDailyWord(rows)
		if err != nil {
			return nil, fmt.Errorf("pgstore: scan daily word: %w", err)
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

const attemptColumns = `word, guesses, completed, won, attempts, created_at, updated_at`

func scanAttempt(row rowScanner, user uuid.UUID, day calendar.Day) (*wordle.Attempt, error) {
	a := &wordle.Attempt{UserID: user, Day: day}
	var guesses []byte
	if err := row.Scan(&a.Word, &guesses, &a.Completed, &a.Won, &a.AttemptsCount, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(guesses, &a.Guesses); err != nil {
		return nil, fmt.Errorf("decode guesses: %w", err)
	}
	if a.Guesses == nil {
		a.Guesses = []wordle.Guess{}
	}
	return a, nil
}

func (s *WordleStore) GetAttempt(ctx context.Context, user uuid.UUID, day calendar.Day) (*wordle.Attempt, error) {
	const query = `SELECT ` + attemptColumns + ` FROM wordle_attempts WHERE user_id = $1 AND day = $2`

	a, err := scanAttempt(s.db.QueryRowContext(ctx, query, user, day), user, day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wordle.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: get attempt: %w", err)
	}
	return a, nil
}

const streakColumns = `current_streak, max_streak, last_played, total_wins`

func scanStreak(row rowScanner) (wordle.StreakState, error) {
	var (
		st   wordle.StreakState
		last calendar.Day
	)
	if err := row.Scan(&st.Current, &st.Max, &last, &st.TotalWins); err != nil {
		return wordle.StreakState{}, err
	}
	if !last.IsZero() {
		st.LastPlayed = &last
	}
	return st, nil
}

func lastPlayedArg(st wordle.StreakState) any {
	if st.LastPlayed == nil {
		return nil
	}
	return *st.LastPlayed
}

func (s *WordleStore) GetStreak(ctx context.Context, user uuid.UUID) (wordle.StreakState, error) {
	const query = `SELECT ` + streakColumns + ` FROM wordle_streaks WHERE user_id = $1`

	st, err := scanStreak(s.db.QueryRowContext(ctx, query, user))
	if errors.Is(err, sql.ErrNoRows) {
		return wordle.StreakState{}, nil
	}
	if err != nil {
		return wordle.StreakState{}, fmt.Errorf("pgstore: get streak: %w", err)
	}
	return st, nil
}

// Play runs fn inside one transaction. The streak row is locked before the
// attempt row so that every Play for a user takes locks in the same order.
func (s *WordleStore) Play(ctx context.Context, user uuid.UUID, day calendar.Day, word string, fn wordle.PlayFunc) (*wordle.Attempt, wordle.StreakState, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wordle.StreakState{}, fmt.Errorf("pgstore: begin play: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wordle_streaks (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, user); err != nil {
		return nil, wordle.StreakState{}, fmt.Errorf("pgstore: ensure streak: %w", err)
	}
	streak, err := scanStreak(tx.QueryRowContext(ctx,
		`SELECT `+streakColumns+` FROM wordle_streaks WHERE user_id = $1 FOR UPDATE`, user))
	if err != nil {
		return nil, wordle.StreakState{}, fmt.Errorf("pgstore: lock streak: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wordle_attempts (user_id, day, word)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, day) DO NOTHING`, user, day, word); err != nil {
		return nil, wordle.StreakState{}, fmt.Errorf("pgstore: ensure attempt: %w", err)
	}
	a, err := scanAttempt(tx.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM wordle_attempts WHERE user_id = $1 AND day = $2 FOR UPDATE`, user, day), user, day)
	if err != nil {
		return nil, wordle.StreakState{}, fmt.Errorf("pgstore: lock attempt: %w", err)
	}

	if err := fn(a, &streak); err != nil {
		return nil, wordle.StreakState{}, err
	}

	guesses, err := json.Marshal(a.Guesses)
	if err != nil {
		return nil, wordle.StreakState{}, fmt.Errorf("pgstore: encode guesses: %w", err)
	}
	err = tx.QueryRowContext(ctx, `
		UPDATE wordle_attempts
		SET guesses = $3, completed = $4, won = $5, attempts = $6, updated_at = NOW()
		WHERE user_id = $1 AND day = $2
		RETURNING updated_at`,
		user, day, guesses, a.Completed, a.Won, a.AttemptsCount,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return nil, wordle.StreakState{}, fmt.Errorf("pgstore: update attempt: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wordle_streaks
		SET current_streak = $2, max_streak = $3, last_played = $4, total_wins = $5, updated_at = NOW()
		WHERE user_id = $1`,
		user, streak.Current, streak.Max, lastPlayedArg(streak), streak.TotalWins); err != nil {
		return nil, wordle.StreakState{}, fmt.Errorf("pgstore: update streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wordle.StreakState{}, fmt.Errorf("pgstore: commit play: %w", err)
	}
	return a, streak, nil
}

func (s *WordleStore) CountGames(ctx context.Context, user uuid.UUID) (int, int, error) {
	const query = `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE won)
		FROM wordle_attempts
		WHERE user_id = $1`

	var total, wins int
	if err := s.db.QueryRowContext(ctx, query, user).Scan(&total, &wins); err != nil {
		return 0, 0, fmt.Errorf("pgstore: count games: %w", err)
	}
	return total, wins, nil
}

func (s *WordleStore) TopStreaks(ctx context.Context, limit int) ([]wordle.LeaderboardEntry, error) {
	const query = `
		SELECT user_id, ` + streakColumns + `
		FROM wordle_streaks
		WHERE current_streak > 0
		ORDER BY current_streak DESC, user_id
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgstore: top streaks: %w", err)
	}
	defer rows.Close()

	var out []wordle.LeaderboardEntry
	for rows.Next() {
		var (
			e    wordle.LeaderboardEntry
			last calendar.Day
		)
		if err := rows.Scan(&e.UserID, &e.Streak.Current, &e.Streak.Max, &last, &e.Streak.TotalWins); err != nil {
			return nil, fmt.Errorf("pgstore: scan streak: %w", err)
		}
		if !last.IsZero() {
			e.Streak.LastPlayed = &last
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
