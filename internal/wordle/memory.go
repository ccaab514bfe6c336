package wordle

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusnest/forum/internal/calendar"
)

type attemptKey struct {
	user uuid.UUID
	day  calendar.Day
}

// keyedMutex hands out one mutex per key. Entries are never removed; the
// key space is users, which is bounded.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func (k *keyedMutex) lock(key uuid.UUID) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// MemoryStore is a Store kept in process memory. It backs tests and
// single-instance deployments without Postgres.
type MemoryStore struct {
	users keyedMutex

	mu       sync.RWMutex
	words    map[calendar.Day]DailyWord
	attempts map[attemptKey]*Attempt
	streaks  map[uuid.UUID]StreakState
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		words:    make(map[calendar.Day]DailyWord),
		attempts: make(map[attemptKey]*Attempt),
		streaks:  make(map[uuid.UUID]StreakState),
		now:      time.Now,
	}
}

func (s *MemoryStore) GetDailyWord(_ context.Context, day calendar.Day) (*DailyWord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.words[day]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (s *MemoryStore) CreateDailyWord(_ context.Context, w *DailyWord) (*DailyWord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.words[w.Day]; ok {
		return &existing, nil
	}
	stored := *w
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.words[w.Day] = stored
	return &stored, nil
}

func (s *MemoryStore) PutDailyWord(_ context.Context, w *DailyWord) (*DailyWord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *w
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.words[w.Day] = stored
	return &stored, nil
}

func (s *MemoryStore) DeleteDailyWord(_ context.Context, day calendar.Day) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[day]; !ok {
		return ErrNotFound
	}
	delete(s.words, day)
	return nil
}

func (s *MemoryStore) ListDailyWords(_ context.Context, limit int) ([]DailyWord, error) {
	s.mu.RLock()
	out := make([]DailyWord, 0, len(s.words))
	for _, w := range s.words {
		out = append(out, w)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Day.After(out[j].Day) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) GetAttempt(_ context.Context, user uuid.UUID, day calendar.Day) (*Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[attemptKey{user, day}]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

func (s *MemoryStore) GetStreak(_ context.Context, user uuid.UUID) (StreakState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneStreak(s.streaks[user]), nil
}

// Play holds the user's lock for the whole read-modify-write, so concurrent
// guesses by one user are applied one after another.
func (s *MemoryStore) Play(ctx context.Context, user uuid.UUID, day calendar.Day, word string, fn PlayFunc) (*Attempt, StreakState, error) {
	unlock := s.users.lock(user)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, StreakState{}, err
	}

	s.mu.RLock()
	key := attemptKey{user, day}
	a, ok := s.attempts[key]
	if ok {
		a = a.Clone()
	} else {
		a = NewAttempt(user, day, word)
		a.CreatedAt = s.now()
	}
	streak := cloneStreak(s.streaks[user])
	s.mu.RUnlock()

	if err := fn(a, &streak); err != nil {
		return nil, StreakState{}, err
	}
	a.UpdatedAt = s.now()

	s.mu.Lock()
	s.attempts[key] = a.Clone()
	s.streaks[user] = cloneStreak(streak)
	s.mu.Unlock()
	return a, streak, nil
}

func (s *MemoryStore) CountGames(_ context.Context, user uuid.UUID) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total, wins int
	for k, a := range s.attempts {
		if k.user != user {
			continue
		}
		total++
		if a.Won {
			wins++
		}
	}
	return total, wins, nil
}

func (s *MemoryStore) TopStreaks(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	s.mu.RLock()
	var out []LeaderboardEntry
	for u, st := range s.streaks {
		if st.Current > 0 {
			out = append(out, LeaderboardEntry{UserID: u, Streak: cloneStreak(st)})
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Streak.Current != out[j].Streak.Current {
			return out[i].Streak.Current > out[j].Streak.Current
		}
		return out[i].UserID.String() < out[j].UserID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneStreak(s StreakState) StreakState {
	if s.LastPlayed != nil {
		d := *s.LastPlayed
		s.LastPlayed = &d
	}
	return s
}
