package models

import "time"

// Clock supplies "now" in the application's timezone.
type Clock interface {
	Now() time.Time
}

type SystemClock struct {
	Location *time.Location
}

func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return SystemClock{Location: loc}
}

func (c SystemClock) Now() time.Time { return time.Now().In(c.Location) }

// FixedClock always reports the same instant. habitctl uses it for --date.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// Today is the calendar date of c.Now().
func Today(c Clock) Day { return DayOf(c.Now()) }
