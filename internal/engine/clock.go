package engine

import "time"

// Clock supplies the current timestamp. The host guarantees it is
// non-decreasing across calls; tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// RealClock returns a Clock backed by the system time, in UTC.
func RealClock() Clock { return realClock{} }
