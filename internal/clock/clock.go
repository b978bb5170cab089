package clock

import "time"

// Clock supplies wall time. Components take a Clock instead of calling
// time.Now directly so tests can pin the calendar.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by the OS wall clock, normalised to UTC.
func System() Clock { return systemClock{} }

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// Fixed returns a Clock frozen at t.
func Fixed(t time.Time) Clock { return Func(func() time.Time { return t }) }
