package wordle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusnest/forum/internal/calendar"
	"github.com/campusnest/forum/internal/metrics"
)

const (
	// LeaderboardSize is the number of users on the streak leaderboard.
	LeaderboardSize = 10
	// AdminListSize is the number of recent words shown to admins.
	AdminListSize = 30

	// SubjectCompleted is where finished games are announced.
	SubjectCompleted = "wordle.completed"

	generationLockTTL = 30 * time.Second
)

// Locker serializes work across processes.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// WordCache is a read-through cache of daily words. A miss is (nil, nil).
type WordCache interface {
	Get(ctx context.Context, day calendar.Day) (*DailyWord, error)
	Set(ctx context.Context, w *DailyWord) error
	Delete(ctx context.Context, day calendar.Day) error
}

// Publisher announces game events.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Service runs the daily word game on top of a Store.
type Service struct {
	store Store
	dict  Dictionary
	gen   *Generator

	locker    Locker
	cache     WordCache
	publisher Publisher

	loc *time.Location
	now func() time.Time
	log *zap.SugaredLogger
}

// Option customizes a Service.
type Option func(*Service)

// WithLocker serializes daily word generation across instances.
func WithLocker(l Locker) Option { return func(s *Service) { s.locker = l } }

// WithCache caches daily words.
func WithCache(c WordCache) Option { return func(s *Service) { s.cache = c } }

// WithPublisher announces completed games.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.publisher = p } }

// WithLocation sets the zone in which "today" is computed. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates a Service.
func NewService(store Store, dict Dictionary, gen *Generator, opts ...Option) *Service {
	if gen == nil {
		gen = NewGenerator(nil)
	}
	s := &Service{
		store: store,
		dict:  dict,
		gen:   gen,
		loc:   time.UTC,
		now:   time.Now,
		log:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current game day.
func (s *Service) Today() calendar.Day {
	return calendar.TodayAt(s.now(), s.loc)
}

// EnsureWord returns the word for day, generating and storing one if the day
// has none yet.
func (s *Service) EnsureWord(ctx context.Context, day calendar.Day) (*DailyWord, error) {
	if w := s.cached(ctx, day); w != nil {
		return w, nil
	}

	w, err := s.store.GetDailyWord(ctx, day)
	if err == nil {
		s.remember(ctx, w)
		return w, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("wordle: get daily word: %w", err)
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "wordle:generate:"+day.String(), generationLockTTL)
		if err != nil {
			// Generation is idempotent at the store; the lock only saves
			// duplicate model calls.
			s.log.Warnw("[wordle] generation lock unavailable", "day", day, "error", err)
		} else {
			defer unlock()
			if w, err := s.store.GetDailyWord(ctx, day); err == nil {
				s.remember(ctx, w)
				return w, nil
			}
		}
	}

	word, source := s.gen.Word(ctx)
	candidate := &DailyWord{
		Day:    day,
		Word:   word,
		Hint:   s.gen.Hint(ctx, word),
		Source: source,
	}
	stored, err := s.store.CreateDailyWord(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("wordle: create daily word: %w", err)
	}
	if stored.Word == candidate.Word && stored.Source == candidate.Source {
		metrics.WordGeneration.WithLabelValues(source).Inc()
		s.log.Infow("[wordle] daily word created", "day", day, "source", source)
	}
	s.remember(ctx, stored)
	return stored, nil
}

func (s *Service) cached(ctx context.Context, day calendar.Day) *DailyWord {
	if s.cache == nil {
		return nil
	}
	w, err := s.cache.Get(ctx, day)
	if err != nil {
		s.log.Warnw("[wordle] cache get failed", "day", day, "error", err)
		return nil
	}
	return w
}

func (s *Service) remember(ctx context.Context, w *DailyWord) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, w); err != nil {
		s.log.Warnw("[wordle] cache set failed", "day", w.Day, "error", err)
	}
}

func (s *Service) forget(ctx context.Context, day calendar.Day) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, day); err != nil {
		s.log.Warnw("[wordle] cache delete failed", "day", day, "error", err)
	}
}

// Outcome is the result of one accepted guess.
type Outcome struct {
	Guess         string       `json:"guess"`
	Result        Result       `json:"result"`
	AttemptsCount int          `json:"attempts"`
	Completed     bool         `json:"completed"`
	Won           bool         `json:"won"`
	Word          string       `json:"correct_word,omitempty"`
	Streak        *StreakState `json:"streak"`
}

// CompletedEvent is published on SubjectCompleted.
type CompletedEvent struct {
	UserID   uuid.UUID    `json:"user_id"`
	Day      calendar.Day `json:"day"`
	Won      bool         `json:"won"`
	Attempts int          `json:"attempts"`
	Streak   StreakState  `json:"streak"`
}

// SubmitGuess plays guess for user on today's word. The streak is advanced
// in the same store operation that completes the attempt.
func (s *Service) SubmitGuess(ctx context.Context, user uuid.UUID, guess string) (*Outcome, error) {
	guess = Canonical(guess)
	day := s.Today()

	dw, err := s.EnsureWord(ctx, day)
	if err != nil {
		return nil, err
	}

	var accepted Guess
	attempt, streak, err := s.store.Play(ctx, user, day, dw.Word, func(a *Attempt, st *StreakState) error {
		g, err := a.Apply(guess, s.dict)
		if err != nil {
			return err
		}
		accepted = g
		if a.Completed {
			*st = Advance(*st, day, a.Won)
		}
		return nil
	})
	if err != nil {
		metrics.WordleGuesses.WithLabelValues(guessOutcome(err)).Inc()
		return nil, err
	}
	metrics.WordleGuesses.WithLabelValues("accepted").Inc()

	out := &Outcome{
		Guess:         accepted.Guess,
		Result:        accepted.Result,
		AttemptsCount: attempt.AttemptsCount,
		Completed:     attempt.Completed,
		Won:           attempt.Won,
	}
	if attempt.Completed {
		out.Word = attempt.Word
		out.Streak = &streak
		s.completed(user, day, attempt, streak)
	}
	return out, nil
}

func (s *Service) completed(user uuid.UUID, day calendar.Day, a *Attempt, streak StreakState) {
	result := "lost"
	if a.Won {
		result = "won"
	}
	metrics.WordleCompletions.WithLabelValues(result).Inc()
	s.log.Infow("[wordle] game completed", "user", user, "day", day, "result", result, "attempts", a.AttemptsCount)

	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(CompletedEvent{
		UserID:   user,
		Day:      day,
		Won:      a.Won,
		Attempts: a.AttemptsCount,
		Streak:   streak,
	})
	if err != nil {
		s.log.Errorw("[wordle] marshal completed event", "error", err)
		return
	}
	if err := s.publisher.Publish(SubjectCompleted, data); err != nil {
		s.log.Warnw("[wordle] publish completed event", "error", err)
	}
}

func guessOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInvalidGuess):
		return "invalid_guess"
	case errors.Is(err, ErrInvalidWord):
		return "invalid_word"
	case errors.Is(err, ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, ErrAttemptLimitExceeded):
		return "limit"
	default:
		return "error"
	}
}

// AttemptView is an attempt as shown to its player. The secret is absent
// until the game is over.
type AttemptView struct {
	Guesses   []Guess `json:"guesses"`
	Completed bool    `json:"completed"`
	Won       bool    `json:"won"`
	Attempts  int     `json:"attempts"`
	Word      string  `json:"correct_word,omitempty"`
}

// TodayView is the state of today's game for one user.
type TodayView struct {
	Available   bool         `json:"available"`
	Day         calendar.Day `json:"day"`
	Hint        string       `json:"hint,omitempty"`
	WordLength  int          `json:"word_length"`
	MaxAttempts int          `json:"max_attempts"`
	Attempt     *AttemptView `json:"attempt"`
	Streak      StreakState  `json:"streak"`
}

// TodayFor returns today's game state for user, creating the day's word if
// needed.
func (s *Service) TodayFor(ctx context.Context, user uuid.UUID) (*TodayView, error) {
	day := s.Today()
	dw, err := s.EnsureWord(ctx, day)
	if err != nil {
		return nil, err
	}

	view := &TodayView{
		Available:   true,
		Day:         day,
		Hint:        dw.Hint,
		WordLength:  WordLength,
		MaxAttempts: MaxAttempts,
	}

	a, err := s.store.GetAttempt(ctx, user, day)
	switch {
	case err == nil:
		view.Attempt = &AttemptView{
			Guesses:   a.Guesses,
			Completed: a.Completed,
			Won:       a.Won,
			Attempts:  a.AttemptsCount,
		}
		if a.Completed {
			view.Attempt.Word = a.Word
		}
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("wordle: get attempt: %w", err)
	}

	if view.Streak, err = s.store.GetStreak(ctx, user); err != nil {
		return nil, fmt.Errorf("wordle: get streak: %w", err)
	}
	return view, nil
}

// Stats summarizes a user's games.
type Stats struct {
	Streak     StreakState `json:"streak"`
	TotalGames int         `json:"total_games"`
	Wins       int         `json:"wins"`
	WinRate    int         `json:"win_rate"`
}

// Stats returns the user's totals. WinRate is a rounded percentage.
func (s *Service) Stats(ctx context.Context, user uuid.UUID) (*Stats, error) {
	streak, err := s.store.GetStreak(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("wordle: get streak: %w", err)
	}
	total, wins, err := s.store.CountGames(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("wordle: count games: %w", err)
	}
	st := &Stats{Streak: streak, TotalGames: total, Wins: wins}
	if total > 0 {
		st.WinRate = int(math.Round(float64(wins) / float64(total) * 100))
	}
	return st, nil
}

// Leaderboard returns the users with the longest current streaks.
func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	entries, err := s.store.TopStreaks(ctx, LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("wordle: top streaks: %w", err)
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	return entries, nil
}

// SetWord stores word for day on behalf of admin, replacing any existing
// word. A zero day means today. Attempts already started keep their secret.
func (s *Service) SetWord(ctx context.Context, admin uuid.UUID, day calendar.Day, word, hint string) (*DailyWord, error) {
	word = Canonical(word)
	if !ValidFormat(word) {
		return nil, ErrInvalidSecret
	}
	if !HintValid(word, hint) {
		return nil, ErrInvalidHint
	}
	if day.IsZero() {
		day = s.Today()
	}

	by := admin
	w, err := s.store.PutDailyWord(ctx, &DailyWord{
		Day:       day,
		Word:      word,
		Hint:      hint,
		Source:    SourceAdmin,
		CreatedBy: &by,
	})
	if err != nil {
		return nil, fmt.Errorf("wordle: put daily word: %w", err)
	}
	metrics.WordGeneration.WithLabelValues(SourceAdmin).Inc()
	s.remember(ctx, w)
	s.log.Infow("[wordle] daily word set", "day", day, "admin", admin)
	return w, nil
}

// ListWords returns the most recent daily words.
func (s *Service) ListWords(ctx context.Context) ([]DailyWord, error) {
	words, err := s.store.ListDailyWords(ctx, AdminListSize)
	if err != nil {
		return nil, fmt.Errorf("wordle: list daily words: %w", err)
	}
	if words == nil {
		words = []DailyWord{}
	}
	return words, nil
}

// DeleteWord removes the word for day.
func (s *Service) DeleteWord(ctx context.Context, day calendar.Day) error {
	if day.IsZero() {
		return ErrInvalidDay
	}
	s.forget(ctx, day)
	if err := s.store.DeleteDailyWord(ctx, day); err != nil {
		return fmt.Errorf("wordle: delete daily word: %w", err)
	}
	s.forget(ctx, day)
	return nil
}

// Regenerate replaces today's word with a freshly generated one, recorded as
// created by admin.
func (s *Service) Regenerate(ctx context.Context, admin uuid.UUID) (*DailyWord, error) {
	day := s.Today()
	word, source := s.gen.Word(ctx)
	by := admin
	w, err := s.store.PutDailyWord(ctx, &DailyWord{
		Day:       day,
		Word:      word,
		Hint:      s.gen.Hint(ctx, word),
		Source:    source,
		CreatedBy: &by,
	})
	if err != nil {
		return nil, fmt.Errorf("wordle: put daily word: %w", err)
	}
	metrics.WordGeneration.WithLabelValues(source).Inc()
	s.remember(ctx, w)
	s.log.Infow("[wordle] daily word regenerated", "day", day, "admin", admin, "source", source)
	return w, nil
}
