package gyre

import "time"

// Clock abstracts the time source used for trace timestamps and
// time-budget accounting. Inject a custom Clock to test time budgets
// without sleeping.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
