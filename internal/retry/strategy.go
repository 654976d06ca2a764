package retry

import (
	"math"
	"math/rand"
	"time"

	"golang.org/x/exp/constraints"
)

// Strategy reports how long to wait before retry number n and whether the
// retry budget is exhausted.
type Strategy interface {
	Sleep(n uint) (time.Duration, bool)
}

type never struct{}

func NewNever() Strategy {
	return never{}
}

func (never) Sleep(uint) (time.Duration, bool) {
	return 0, true
}

type Entropy func(int64) int64

type exponentialBackOff struct {
	base          time.Duration
	max           time.Duration
	maxRetryCount uint
	entropy       Entropy
}

// NewExponentialBackOff uses full jitter: the wait is a random value below
// min(base*2^n, max). A nil entropy uses math/rand.
func NewExponentialBackOff(base time.Duration, max time.Duration, maxRetryCount uint, entropy Entropy) Strategy {
	if entropy == nil {
		entropy = jitter
	}
	return &exponentialBackOff{
		base:          base,
		max:           max,
		maxRetryCount: maxRetryCount,
		entropy:       entropy,
	}
}

func jitter(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return rand.Int63n(n)
}

func (eb *exponentialBackOff) Sleep(n uint) (time.Duration, bool) {
	if n >= eb.maxRetryCount {
		return 0, true
	}
	ceiling := int64(eb.max)
	if n < 63 {
		if delay, ok := mulInt64(int64(1)<<n, int64(eb.base)); ok {
			ceiling = lower(delay, ceiling)
		}
	}
	return time.Duration(eb.entropy(ceiling)), false
}

func lower[T constraints.Ordered](l T, r T) T {
	if l > r {
		return r
	}
	return l
}

func mulInt64(l int64, r int64) (int64, bool) {
	if l == 0 || r == 0 {
		return 0, true
	}
	if l > math.MaxInt64/r {
		return 0, false
	}
	return l * r, true
}
