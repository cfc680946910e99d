// Package clock abstracts wall-clock time so that window arithmetic can be
// driven by a fixed clock in tests.
package clock

import "time"

// Clock supplies the current time. All time comparisons in the access
// subsystem go through a Clock instance.
type Clock interface {
	Now() time.Time
}

// System reads the real wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed is a manually advanced clock for tests.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
