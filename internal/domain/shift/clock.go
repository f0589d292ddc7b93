package shift

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Clock is a wall-clock time of day stored as the offset since midnight.
type Clock time.Duration

const day = Clock(24 * time.Hour)

func NewClock(hour, minute, second int) Clock {
	return Clock(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second)
}

// ClockOf returns the time of day of t in t's own location.
func ClockOf(t time.Time) Clock {
	h, m, s := t.Clock()
	return NewClock(h, m, s) + Clock(t.Nanosecond())
}

// ParseClock accepts "15:04" and "15:04:05".
func ParseClock(s string) (Clock, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q, use HH:MM", s)
}

func (c Clock) Duration() time.Duration { return time.Duration(c) }

func (c Clock) String() string {
	d := time.Duration(c)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// On returns the instant at which this time of day occurs on date's calendar day.
func (c Clock) On(date time.Time) time.Time {
	y, mo, d := date.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, date.Location()).Add(time.Duration(c))
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ScanTime implements pgtype.TimeScanner.
func (c *Clock) ScanTime(v pgtype.Time) error {
	if !v.Valid {
		return fmt.Errorf("cannot scan NULL into Clock")
	}
	*c = Clock(time.Duration(v.Microseconds) * time.Microsecond)
	return nil
}

// TimeValue implements pgtype.TimeValuer.
func (c Clock) TimeValue() (pgtype.Time, error) {
	if c < 0 || c >= day {
		return pgtype.Time{}, fmt.Errorf("time of day %s out of range", time.Duration(c))
	}
	return pgtype.Time{Microseconds: time.Duration(c).Microseconds(), Valid: true}, nil
}

// Window is a half-open [Start, End) range within a day.
type Window struct {
	Start Clock
	End   Clock
}

func (w Window) Contains(c Clock) bool {
	return w.Start <= c && c < w.End
}

// Overlap returns the length of the intersection of two windows, zero when disjoint.
func (w Window) Overlap(o Window) time.Duration {
	start := max(w.Start, o.Start)
	end := min(w.End, o.End)
	if end <= start {
		return 0
	}
	return time.Duration(end - start)
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}
