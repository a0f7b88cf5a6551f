// Package clock abstracts wall time and timers so that timer-driven behaviour
// in alertpop can be exercised deterministically.
//
// Production code uses [Real]. Tests use [Fake], a manual clock whose timers
// fire only when [Fake.Advance] moves time past their deadline.
package clock

import "time"

// Clock provides the current time and one-shot timers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for the duration to elapse and then calls f.
	// The returned Timer can be used to cancel the call.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable one-shot timer created by [Clock.AfterFunc].
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// has already fired or been stopped.
	Stop() bool
}

type realClock struct{}

// Real returns a [Clock] backed by the time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
