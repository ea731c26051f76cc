package utils

import "time"

// Clock supplies the current time.  Validators take a Clock instead of
// calling time.Now so that "today" and "now" can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock and converts it to Location, the time
// zone the restaurant operates in.  A nil Location means time.Local.
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }
