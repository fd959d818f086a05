//go:build linux || darwin

package mux

import (
	"encoding/binary"
	"errors"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// wakeValue is the 8 byte counter increment an eventfd requires; on a pipe it
// is simply 8 bytes of payload.
var wakeValue = func() (b [8]byte) {
	binary.NativeEndian.PutUint64(b[:], 1)
	return
}()

// Waker injects a readable event for its token into a [Poller], from any
// goroutine. Each Wake produces a fresh edge, even if earlier wakes were not
// yet observed.
//
// Wake may be called concurrently with itself, but not concurrently with
// Close.
type Waker struct {
	registry *Registry
	token    Token
	rfd      int
	wfd      int
	closed   atomic.Bool
}

// NewWaker creates a wake descriptor and registers it readable under token.
func NewWaker(r *Registry, token Token) (*Waker, error) {
	rfd, wfd, err := createWakeFd()
	if err != nil {
		return nil, os.NewSyscallError("wakefd", err)
	}
	if err := r.Register(rfd, token, Readable); err != nil {
		_ = closeFDs(rfd, wfd)
		return nil, err
	}
	return &Waker{registry: r, token: token, rfd: rfd, wfd: wfd}, nil
}

// Token returns the token the waker was registered with.
func (w *Waker) Token() Token { return w.token }

// Wake triggers a readable event for the waker's token.
func (w *Waker) Wake() error {
	if w.closed.Load() {
		return ErrClosed
	}
	var drained bool
	for {
		_, err := writeFD(w.wfd, wakeValue[:])
		switch {
		case err == nil:
			return nil
		case err == unix.EAGAIN && !drained:
			// counter (or pipe) is full, reset it and produce a new edge
			w.drain()
			drained = true
		default:
			return os.NewSyscallError("write", err)
		}
	}
}

// drain empties the wake descriptor.
func (w *Waker) drain() {
	var buf [64]byte
	for {
		if _, err := readFD(w.rfd, buf[:]); err != nil {
			return
		}
	}
}

// Close deregisters and closes the wake descriptor. It is idempotent.
func (w *Waker) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	err := w.registry.Deregister(w.rfd)
	if errors.Is(err, ErrClosed) {
		// the poller is gone, and took the registration with it
		err = nil
	}
	if cerr := closeFDs(w.rfd, w.wfd); err == nil {
		err = cerr
	}
	return err
}
