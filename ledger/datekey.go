package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE KEY - Calendar day identifier (no time component)
// =============================================================================

// DateKey is an ISO calendar-day key ("2006-01-02").
// ISO keys order lexicographically, so string comparison is date comparison.
type DateKey string

const dateKeyLayout = "2006-01-02"

func NewDateKey(year int, month time.Month, day int) DateKey {
	return DateKey(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(dateKeyLayout))
}

// DateKeyOf converts a wall-clock time to the calendar day it falls on.
func DateKeyOf(t time.Time) DateKey {
	return DateKey(t.Format(dateKeyLayout))
}

// ParseDateKey validates and normalizes a raw day string.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(dateKeyLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDateKey, s)
	}
	return DateKeyOf(t), nil
}

func Today() DateKey { return DateKeyOf(time.Now()) }

func (d DateKey) Valid() bool {
	_, err := time.Parse(dateKeyLayout, string(d))
	return err == nil
}

func (d DateKey) Time() time.Time {
	t, _ := time.Parse(dateKeyLayout, string(d))
	return t
}

// Comparison
func (d DateKey) Before(other DateKey) bool        { return d < other }
func (d DateKey) After(other DateKey) bool         { return d > other }
func (d DateKey) BeforeOrEqual(other DateKey) bool { return d <= other }
func (d DateKey) AfterOrEqual(other DateKey) bool  { return d >= other }

// Arithmetic
func (d DateKey) AddDays(n int) DateKey { return DateKeyOf(d.Time().AddDate(0, 0, n)) }
func (d DateKey) Next() DateKey         { return d.AddDays(1) }

func (d DateKey) Weekday() Weekday { return WeekdayOf(d.Time().Weekday()) }

// DateRange returns every day in [from, to], in chronological order.
// Returns nil when from is after to.
func DateRange(from, to DateKey) []DateKey {
	var days []DateKey
	for d := from; d.BeforeOrEqual(to); d = d.Next() {
		days = append(days, d)
	}
	return days
}

// =============================================================================
// WEEKDAY - Persisted short-name weekday ("Sun".."Sat")
// =============================================================================

// Weekday is the persisted weekday tag used by task schedules.
type Weekday string

const (
	Sun Weekday = "Sun"
	Mon Weekday = "Mon"
	Tue Weekday = "Tue"
	Wed Weekday = "Wed"
	Thu Weekday = "Thu"
	Fri Weekday = "Fri"
	Sat Weekday = "Sat"
)

// AllWeekdays is ordered Sunday-first to match time.Weekday.
var AllWeekdays = []Weekday{Sun, Mon, Tue, Wed, Thu, Fri, Sat}

func WeekdayOf(wd time.Weekday) Weekday { return AllWeekdays[int(wd)] }

func (w Weekday) Valid() bool {
	for _, known := range AllWeekdays {
		if w == known {
			return true
		}
	}
	return false
}
