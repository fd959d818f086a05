//go:build linux

package mux

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// signalDuring runs wait on a goroutine locked to its OS thread, and sends
// that thread SIGURG until wait returns. The Go runtime ignores SIGURG beyond
// using it for preemption, but it still interrupts a blocking syscall.
func signalDuring(t *testing.T, wait func()) time.Duration {
	t.Helper()
	tids := make(chan int, 1)
	done := make(chan struct{})
	var elapsed time.Duration
	go func() {
		defer close(done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		tids <- unix.Gettid()
		start := time.Now()
		wait()
		elapsed = time.Since(start)
	}()
	pid, tid := unix.Getpid(), <-tids
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return elapsed
		case <-ticker.C:
			if err := unix.Tgkill(pid, tid, unix.SIGURG); err != nil && err != unix.ESRCH {
				require.NoError(t, err)
			}
		}
	}
}

func TestPoller_PollInterruptibleSignal(t *testing.T) {
	p := newTestPoller(t)
	events := NewEvents(4)

	var err error
	elapsed := signalDuring(t, func() {
		err = p.PollInterruptible(events, 10*time.Second)
	})
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.True(t, events.IsEmpty())
	assert.Less(t, elapsed, 5*time.Second)
}

func TestPoller_PollResumesAfterSignal(t *testing.T) {
	p := newTestPoller(t)
	events := NewEvents(4)

	const timeout = 200 * time.Millisecond
	var err error
	elapsed := signalDuring(t, func() {
		err = p.Poll(events, timeout)
	})
	require.NoError(t, err)
	assert.True(t, events.IsEmpty())
	assert.GreaterOrEqual(t, elapsed, timeout-10*time.Millisecond)
}

func TestPoller_PollResumesAndDelivers(t *testing.T) {
	p := newTestPoller(t)
	w, err := NewWaker(p.Registry(), 3)
	require.NoError(t, err)
	defer w.Close()

	go func() {
		time.Sleep(100 * time.Millisecond)
		assert.NoError(t, w.Wake())
	}()

	events := NewEvents(4)
	var pollErr error
	signalDuring(t, func() {
		pollErr = p.Poll(events, -1)
	})
	require.NoError(t, pollErr)
	require.Equal(t, 1, events.Len())
	for ev := range events.All() {
		assert.Equal(t, Token(3), ev.Token())
	}
}
