package mux

import (
	"math"
	"testing"
	"time"
)

func TestTimeoutMillis(t *testing.T) {
	for _, tc := range [...]struct {
		in   time.Duration
		want int
	}{
		{-1, -1},
		{-time.Hour, -1},
		{0, 0},
		{time.Nanosecond, 1},
		{time.Millisecond, 1},
		{time.Millisecond + 1, 2},
		{1500 * time.Microsecond, 2},
		{time.Second, 1000},
		{time.Duration(math.MaxInt64), math.MaxInt32},
	} {
		if got := timeoutMillis(tc.in); got != tc.want {
			t.Errorf("timeoutMillis(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
