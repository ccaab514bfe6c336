package wordle

import (
	"testing"

	"github.com/campusnest/forum/internal/calendar"
)

func dayPtr(d calendar.Day) *calendar.Day { return &d }

func TestAdvance(t *testing.T) {
	today := calendar.Date(2025, 3, 10)

	tests := []struct {
		name  string
		prior StreakState
		won   bool
		want  StreakState
	}{
		{
			name:  "first ever win",
			prior: StreakState{},
			won:   true,
			want:  StreakState{Current: 1, Max: 1, TotalWins: 1},
		},
		{
			name:  "consecutive win",
			prior: StreakState{Current: 3, Max: 5, LastPlayed: dayPtr(today.AddDays(-1)), TotalWins: 9},
			won:   true,
			want:  StreakState{Current: 4, Max: 5, TotalWins: 10},
		},
		{
			name:  "consecutive win sets max",
			prior: StreakState{Current: 5, Max: 5, LastPlayed: dayPtr(today.AddDays(-1)), TotalWins: 5},
			won:   true,
			want:  StreakState{Current: 6, Max: 6, TotalWins: 6},
		},
		{
			name:  "win after gap",
			prior: StreakState{Current: 3, Max: 3, LastPlayed: dayPtr(today.AddDays(-3)), TotalWins: 3},
			won:   true,
			want:  StreakState{Current: 1, Max: 3, TotalWins: 4},
		},
		{
			name:  "win after loss yesterday",
			prior: StreakState{Current: 0, Max: 4, LastPlayed: dayPtr(today.AddDays(-1)), TotalWins: 4},
			won:   true,
			want:  StreakState{Current: 1, Max: 4, TotalWins: 5},
		},
		{
			name:  "win same day keeps current",
			prior: StreakState{Current: 2, Max: 2, LastPlayed: dayPtr(today), TotalWins: 2},
			won:   true,
			want:  StreakState{Current: 2, Max: 2, TotalWins: 3},
		},
		{
			name:  "loss breaks streak",
			prior: StreakState{Current: 7, Max: 7, LastPlayed: dayPtr(today.AddDays(-1)), TotalWins: 7},
			won:   false,
			want:  StreakState{Current: 0, Max: 7, TotalWins: 7},
		},
		{
			name:  "first ever loss",
			prior: StreakState{},
			won:   false,
			want:  StreakState{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advance(tt.prior, today, tt.won)
			if got.Current != tt.want.Current || got.Max != tt.want.Max || got.TotalWins != tt.want.TotalWins {
				t.Errorf("Advance = %+v, want %+v", got, tt.want)
			}
			if got.LastPlayed == nil || !got.LastPlayed.Equal(today) {
				t.Errorf("LastPlayed = %v, want %v", got.LastPlayed, today)
			}
		})
	}
}

func TestAdvance_DoesNotAliasPrior(t *testing.T) {
	yesterday := calendar.Date(2025, 3, 9)
	prior := StreakState{Current: 1, LastPlayed: &yesterday}
	Advance(prior, calendar.Date(2025, 3, 10), true)
	if !prior.LastPlayed.Equal(calendar.Date(2025, 3, 9)) || prior.Current != 1 {
		t.Errorf("Advance mutated its input: %+v", prior)
	}
}

func TestAdvance_AcrossMonthAndYear(t *testing.T) {
	prior := StreakState{Current: 10, Max: 10, LastPlayed: dayPtr(calendar.Date(2024, 12, 31))}
	got := Advance(prior, calendar.Date(2025, 1, 1), true)
	if got.Current != 11 {
		t.Errorf("Current = %d, want 11", got.Current)
	}
}
