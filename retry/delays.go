package retry

import "time"

// DelayFn produces the delays between attempts, one per call. A false second
// return value ends the sequence: the caller must stop trying and ignore the
// returned delay.
//
// The first call precedes the very first attempt and must return true,
// normally with a zero delay.
type DelayFn func() (delay time.Duration, ok bool)

// Config defines retry intervals.
type Config interface {
	// Delays returns a fresh, independent sequence of delays
	Delays() DelayFn
}

// FixedConfig retries at a fixed interval
type FixedConfig struct {
	// RetryAfter is the delay before each attempt after the first one
	RetryAfter time.Duration

	// MaxAttempts is the maximum number of attempts taken; 0 = unlimited
	MaxAttempts int
}

// Delays implements interface Config
func (c FixedConfig) Delays() DelayFn {
	attempts := 0
	return func() (time.Duration, bool) {
		attempts++
		switch {
		case attempts == 1:
			return 0, true
		case c.MaxAttempts != 0 && attempts > c.MaxAttempts:
			return 0, false
		default:
			return c.RetryAfter, true
		}
	}
}

// ExpConfig retries with exponentially growing intervals, starting at Min
// and multiplying by Scale up to Max
type ExpConfig struct {
	Min   time.Duration
	Max   time.Duration
	Scale float64

	// MaxAttempts is the maximum number of attempts taken; 0 = unlimited
	MaxAttempts int
}

// DefaultExpConfig is a suggested configuration
var DefaultExpConfig = ExpConfig{
	Min:         10 * time.Millisecond,
	Max:         5 * time.Second,
	Scale:       2.0,
	MaxAttempts: 5,
}

// Delays implements interface Config
func (c ExpConfig) Delays() DelayFn {
	attempts := 0
	next := c.Min
	return func() (time.Duration, bool) {
		attempts++
		switch {
		case attempts == 1:
			return 0, true
		case c.MaxAttempts != 0 && attempts > c.MaxAttempts:
			return 0, false
		}
		delay := next
		next = time.Duration(float64(next) * c.Scale)
		if next > c.Max {
			next = c.Max
		}
		return delay, true
	}
}
