//go:build linux

package mux

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// selector is the epoll(7) backend.
//
// Control calls hold mu shared, and close holds it exclusively, so that epfd
// is never used after its number may have been recycled. The wait runs
// without mu, and must not overlap close.
type selector struct {
	raw    []unix.EpollEvent // owned by the single waiter
	mu     sync.RWMutex
	epfd   int
	closed atomic.Bool
}

func newSelector() (*selector, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	return &selector{epfd: epfd}, nil
}

func (s *selector) register(fd int, token Token, interest Interest) error {
	return s.ctl(unix.EPOLL_CTL_ADD, fd, token, interest)
}

func (s *selector) reregister(fd int, token Token, interest Interest) error {
	return s.ctl(unix.EPOLL_CTL_MOD, fd, token, interest)
}

func (s *selector) deregister(fd int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return ErrClosed
	}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return ctlError(err)
	}
	return nil
}

func (s *selector) ctl(op int, fd int, token Token, interest Interest) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return ErrClosed
	}
	ev := unix.EpollEvent{Events: interestToEpoll(interest)}
	setEpollToken(&ev, token)
	if err := unix.EpollCtl(s.epfd, op, fd, &ev); err != nil {
		return ctlError(err)
	}
	return nil
}

func (s *selector) wait(events *Events, timeout time.Duration) (interrupted bool, err error) {
	events.Clear()
	if s.closed.Load() {
		return false, ErrClosed
	}

	if len(s.raw) < events.Capacity() {
		s.raw = make([]unix.EpollEvent, events.Capacity())
	}
	raw := s.raw[:events.Capacity()]

	n, err := unix.EpollWait(s.epfd, raw, timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return true, nil
		}
		return false, os.NewSyscallError("epoll_wait", err)
	}

	for i := 0; i < n; i++ {
		events.push(epollToEvent(&raw[i]))
	}
	return false, nil
}

func (s *selector) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Swap(true) {
		return nil
	}
	return unix.Close(s.epfd)
}

func ctlError(err error) error {
	serr := os.NewSyscallError("epoll_ctl", err)
	switch err {
	case unix.EEXIST:
		return fmt.Errorf("%w: %w", ErrAlreadyRegistered, serr)
	case unix.ENOENT:
		return fmt.Errorf("%w: %w", ErrNotRegistered, serr)
	}
	return serr
}

// interestToEpoll converts an Interest to edge-triggered epoll flags.
func interestToEpoll(interest Interest) uint32 {
	events := uint32(unix.EPOLLET)
	if interest.IsReadable() {
		events |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if interest.IsWritable() {
		events |= unix.EPOLLOUT
	}
	return events
}

// epollToEvent converts a raw epoll event to an Event.
func epollToEvent(ev *unix.EpollEvent) Event {
	var flags eventFlags
	if ev.Events&unix.EPOLLIN != 0 {
		flags |= flagReadable
	}
	if ev.Events&unix.EPOLLOUT != 0 {
		flags |= flagWritable
	}
	if ev.Events&unix.EPOLLERR != 0 {
		flags |= flagError
	}
	if ev.Events&unix.EPOLLHUP != 0 {
		flags |= flagReadClosed | flagWriteClosed
	}
	if ev.Events&unix.EPOLLRDHUP != 0 {
		flags |= flagReadClosed
	}
	if ev.Events&unix.EPOLLPRI != 0 {
		flags |= flagPriority
	}
	return Event{token: epollToken(ev), flags: flags}
}

// The 64-bit epoll data word is exposed by x/sys as the Fd and Pad halves.
// The kernel hands it back untouched, so the split only has to be consistent.

func setEpollToken(ev *unix.EpollEvent, token Token) {
	ev.Fd = int32(uint32(token))
	ev.Pad = int32(uint32(token >> 32))
}

func epollToken(ev *unix.EpollEvent) Token {
	return Token(uint32(ev.Fd)) | Token(uint32(ev.Pad))<<32
}
