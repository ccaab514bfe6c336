// Package calendar provides a date-only value type used wherever the forum
// reasons about "the same day" or "the next day": daily words, word game
// attempts and streaks. A Day carries no time of day and no zone once built.
package calendar

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Layout is the wire and storage format of a Day.
const Layout = "2006-01-02"

// Day is a calendar date. The zero value is the "no day" sentinel.
type Day struct {
	t time.Time // always 00:00 UTC of the date
}

// Of returns the calendar date of t as observed in t's own location.
func Of(t time.Time) Day {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Date builds a Day from its components. Out-of-range values normalize the
// same way time.Date does (Jan 32 becomes Feb 1).
func Date(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date in loc. A nil loc means UTC.
func Today(loc *time.Location) Day {
	return TodayAt(time.Now(), loc)
}

// TodayAt is Today with an explicit clock reading.
func TodayAt(now time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return Of(now.In(loc))
}

// Parse reads a Day in Layout form.
func Parse(s string) (Day, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Day{}, fmt.Errorf("calendar: parse %q: %w", s, err)
	}
	return Of(t), nil
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool { return d.t.IsZero() }

// Equal reports whether d and o are the same date.
func (d Day) Equal(o Day) bool { return d.t.Equal(o.t) }

// Before reports whether d is strictly earlier than o.
func (d Day) Before(o Day) bool { return d.t.Before(o.t) }

// After reports whether d is strictly later than o.
func (d Day) After(o Day) bool { return d.t.After(o.t) }

// AddDays returns d shifted by n days.
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// IsConsecutiveAfter reports whether d is exactly one day after prev.
func (d Day) IsConsecutiveAfter(prev Day) bool {
	if d.IsZero() || prev.IsZero() {
		return false
	}
	return prev.AddDays(1).Equal(d)
}

// DaysSince returns the number of whole days from o to d.
func (d Day) DaysSince(o Day) int {
	return int(d.t.Sub(o.t).Hours() / 24)
}

// Time returns midnight UTC of the date.
func (d Day) Time() time.Time { return d.t }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields the
// zero Day.
func (d *Day) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer for DATE columns.
func (d Day) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.t, nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Day) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Day{}
		return nil
	case time.Time:
		*d = Date(v.Year(), v.Month(), v.Day())
		return nil
	case []byte:
		return d.UnmarshalText(v)
	case string:
		return d.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("calendar: cannot scan %T into Day", src)
	}
}
