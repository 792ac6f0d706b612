package domain

import "time"

// Clock supplies the current time. Injected into every component that
// makes billing decisions so tests can pin "now".
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
