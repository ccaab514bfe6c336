package wordle

import "github.com/campusnest/forum/internal/calendar"

// StreakState is a user's running game record.
type StreakState struct {
	Current    int           `json:"current"`
	Max        int           `json:"max"`
	LastPlayed *calendar.Day `json:"last_played"`
	TotalWins  int           `json:"total_wins"`
}

// Advance returns the streak after a game finished on today. It must be
// called once per completed attempt.
//
// A win continues the streak when the last game was yesterday (or there was
// none), keeps it when the last game was today, and restarts it at 1
// otherwise. A loss resets it to 0.
func Advance(prior StreakState, today calendar.Day, won bool) StreakState {
	next := prior

	if won {
		switch {
		case prior.LastPlayed == nil || today.IsConsecutiveAfter(*prior.LastPlayed):
			next.Current = prior.Current + 1
		case !prior.LastPlayed.Equal(today):
			next.Current = 1
		}
		next.TotalWins = prior.TotalWins + 1
		if next.Current > next.Max {
			next.Max = next.Current
		}
	} else {
		next.Current = 0
	}

	d := today
	next.LastPlayed = &d
	return next
}
