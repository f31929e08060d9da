// Package backoff computes the delay between probes of one target.
package backoff

import (
	"math/rand/v2"
	"time"
)

const (
	MaxMultiplier = 8
	DefaultJitter = 0.1
	MinSleep      = 100 * time.Millisecond
)

// Policy is the exponential backoff applied after failed probes.
// Rand returns a value in [0,1); 0.5 means no jitter.
type Policy struct {
	Max    int
	Jitter float64
	Floor  time.Duration
	Rand   func() float64
}

func Default() Policy {
	return Policy{Max: MaxMultiplier, Jitter: DefaultJitter, Floor: MinSleep, Rand: rand.Float64}
}

// Next returns the multiplier after an attempt: success resets to 1, failure doubles up to Max.
func (p Policy) Next(multiplier int, success bool) int {
	if success || multiplier < 1 {
		return 1
	}
	next := multiplier * 2
	if next > p.max() {
		next = p.max()
	}
	return next
}

// Sleep returns interval*multiplier with uniform jitter of +/-Jitter, never below Floor,
// including at multiplier 0.
func (p Policy) Sleep(interval time.Duration, multiplier int) time.Duration {
	if multiplier < 0 {
		multiplier = 0
	}
	if multiplier > p.max() {
		multiplier = p.max()
	}
	base := float64(interval) * float64(multiplier)

	r := 0.5
	if p.Rand != nil {
		r = p.Rand()
	}
	d := time.Duration(base * (1 + p.Jitter*(2*r-1)))
	if d < p.Floor {
		d = p.Floor
	}
	return d
}

func (p Policy) max() int {
	if p.Max < 1 {
		return MaxMultiplier
	}
	return p.Max
}
