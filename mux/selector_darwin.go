//go:build darwin

package mux

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// initialFDs is the starting size of the fd table, which grows on demand.
const initialFDs = 1024

// maxFDLimit is the maximum fd value we support for dynamic growth.
const maxFDLimit = 100000000

// fdInfo stores per-fd registration state. kqueue identifies events by fd,
// the token lives here.
type fdInfo struct {
	token    Token
	interest Interest
	active   bool
}

// selector is the kqueue(2) backend.
//
// The fd table is guarded by fdMu, which is held across the kevent change
// call so that concurrent register/deregister on the same fd are ordered, and
// so that close never releases kq under a change call. The wait itself runs
// without the lock, and must not overlap close.
type selector struct { // betteralign:ignore
	raw    []unix.Kevent_t // owned by the single waiter
	fds    []fdInfo
	fdMu   sync.RWMutex
	kq     int
	closed atomic.Bool
}

func newSelector() (*selector, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, os.NewSyscallError("kqueue", err)
	}
	unix.CloseOnExec(kq)
	return &selector{kq: kq, fds: make([]fdInfo, initialFDs)}, nil
}

func (s *selector) register(fd int, token Token, interest Interest) error {
	if fd >= maxFDLimit {
		return ErrBadFd
	}

	s.fdMu.Lock()
	defer s.fdMu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}

	if fd >= len(s.fds) {
		newSize := min(fd*2+1, maxFDLimit+1)
		fds := make([]fdInfo, newSize)
		copy(fds, s.fds)
		s.fds = fds
	}

	if s.fds[fd].active {
		return fmt.Errorf("%w: %w", ErrAlreadyRegistered, os.NewSyscallError("kevent", unix.EEXIST))
	}

	if err := s.change(interestToKevents(fd, interest, unix.EV_ADD|unix.EV_CLEAR)); err != nil {
		return err
	}
	s.fds[fd] = fdInfo{token: token, interest: interest, active: true}
	return nil
}

func (s *selector) reregister(fd int, token Token, interest Interest) error {

	s.fdMu.Lock()
	defer s.fdMu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}

	if fd >= len(s.fds) || !s.fds[fd].active {
		return fmt.Errorf("%w: %w", ErrNotRegistered, os.NewSyscallError("kevent", unix.ENOENT))
	}

	if removed := s.fds[fd].interest &^ interest; removed != 0 {
		_ = s.change(interestToKevents(fd, removed, unix.EV_DELETE)) // already gone is fine
	}
	if err := s.change(interestToKevents(fd, interest, unix.EV_ADD|unix.EV_CLEAR)); err != nil {
		return err
	}
	s.fds[fd] = fdInfo{token: token, interest: interest, active: true}
	return nil
}

func (s *selector) deregister(fd int) error {

	s.fdMu.Lock()
	defer s.fdMu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}

	if fd >= len(s.fds) || !s.fds[fd].active {
		return fmt.Errorf("%w: %w", ErrNotRegistered, os.NewSyscallError("kevent", unix.ENOENT))
	}

	_ = s.change(interestToKevents(fd, s.fds[fd].interest, unix.EV_DELETE)) // closed fds drop their filters
	s.fds[fd] = fdInfo{}
	return nil
}

func (s *selector) change(changes []unix.Kevent_t) error {
	if len(changes) == 0 {
		return nil
	}
	if _, err := unix.Kevent(s.kq, changes, nil, nil); err != nil {
		return os.NewSyscallError("kevent", err)
	}
	return nil
}

func (s *selector) wait(events *Events, timeout time.Duration) (interrupted bool, err error) {
	events.Clear()
	if s.closed.Load() {
		return false, ErrClosed
	}

	if len(s.raw) < events.Capacity() {
		s.raw = make([]unix.Kevent_t, events.Capacity())
	}
	raw := s.raw[:events.Capacity()]

	var ts *unix.Timespec
	if ms := timeoutMillis(timeout); ms >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(ms / 1000),
			Nsec: int64((ms % 1000) * 1000000),
		}
	}

	n, err := unix.Kevent(s.kq, nil, raw, ts)
	if err != nil {
		if err == unix.EINTR {
			return true, nil
		}
		return false, os.NewSyscallError("kevent", err)
	}

	s.fdMu.RLock()
	defer s.fdMu.RUnlock()
	for i := 0; i < n; i++ {
		fd := int(raw[i].Ident)
		if fd < 0 || fd >= len(s.fds) || !s.fds[fd].active {
			// deregistered while the wait was in flight
			continue
		}
		events.push(Event{token: s.fds[fd].token, flags: keventToFlags(&raw[i])})
	}
	return false, nil
}

func (s *selector) close() error {
	s.fdMu.Lock()
	defer s.fdMu.Unlock()
	if s.closed.Swap(true) {
		return nil
	}
	return unix.Close(s.kq)
}

// interestToKevents converts an Interest to kqueue change entries.
func interestToKevents(fd int, interest Interest, flags uint16) []unix.Kevent_t {
	var kevents []unix.Kevent_t
	if interest.IsReadable() {
		kevents = append(kevents, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_READ,
			Flags:  flags,
		})
	}
	if interest.IsWritable() {
		kevents = append(kevents, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_WRITE,
			Flags:  flags,
		})
	}
	return kevents
}

// keventToFlags converts a kqueue event to event flags.
func keventToFlags(kev *unix.Kevent_t) eventFlags {
	var flags eventFlags
	switch kev.Filter {
	case unix.EVFILT_READ:
		flags |= flagReadable
		if kev.Flags&unix.EV_EOF != 0 {
			flags |= flagReadClosed
		}
	case unix.EVFILT_WRITE:
		flags |= flagWritable
		if kev.Flags&unix.EV_EOF != 0 {
			flags |= flagWriteClosed
		}
	}
	if kev.Flags&unix.EV_ERROR != 0 || (kev.Flags&unix.EV_EOF != 0 && kev.Fflags != 0) {
		flags |= flagError
	}
	return flags
}
