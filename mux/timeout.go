package mux

import (
	"math"
	"time"
)

// timeoutMillis converts a wait timeout to the millisecond resolution of the
// OS call. Negative means block indefinitely (-1). Positive durations round
// up, so a 1ns timeout still waits rather than spinning, and saturate at
// MaxInt32.
func timeoutMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}
