package inspect

import "time"

// Clock supplies wall-clock readings for elapsed-time measurement.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }
