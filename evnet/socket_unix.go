//go:build linux || darwin

package evnet

import (
	"errors"
	"net"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/go-evpoll"
)

// IsWouldBlock reports whether err indicates the operation would block, and
// should be retried after the next readiness event.
func IsWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

// socket is the descriptor shared by every socket type.
type socket struct {
	mu sync.RWMutex
	fd int
}

// do runs f with the descriptor, failing with net.ErrClosed once closed.
func (s *socket) do(f func(fd int) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fd < 0 {
		return net.ErrClosed
	}
	return f(s.fd)
}

func (s *socket) evented() (e evpoll.EventedFd, err error) {
	err = s.do(func(fd int) (err error) {
		e, err = evpoll.NewEventedFd(fd)
		return
	})
	return
}

func (s *socket) Register(p *evpoll.Poll, token evpoll.Token, interest evpoll.Ready, opts evpoll.PollOpt) error {
	e, err := s.evented()
	if err != nil {
		return err
	}
	return e.Register(p, token, interest, opts)
}

func (s *socket) Reregister(p *evpoll.Poll, token evpoll.Token, interest evpoll.Ready, opts evpoll.PollOpt) error {
	e, err := s.evented()
	if err != nil {
		return err
	}
	return e.Reregister(p, token, interest, opts)
}

func (s *socket) Deregister(p *evpoll.Poll) error {
	e, err := s.evented()
	if err != nil {
		return err
	}
	return e.Deregister(p)
}

// Close closes the descriptor. It does not deregister it, though the OS
// drops registrations of closed descriptors.
func (s *socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fd < 0 {
		return net.ErrClosed
	}
	fd := s.fd
	s.fd = -1
	if err := unix.Close(fd); err != nil {
		return os.NewSyscallError("close", err)
	}
	return nil
}

func (s *socket) localSockaddr() (sa unix.Sockaddr, err error) {
	err = s.do(func(fd int) error {
		sa, err = unix.Getsockname(fd)
		if err != nil {
			return os.NewSyscallError("getsockname", err)
		}
		return nil
	})
	return
}

func (s *socket) peerSockaddr() (sa unix.Sockaddr, err error) {
	err = s.do(func(fd int) error {
		sa, err = unix.Getpeername(fd)
		if err != nil {
			return os.NewSyscallError("getpeername", err)
		}
		return nil
	})
	return
}

func (s *socket) setBool(level, opt int, v bool) error {
	var i int
	if v {
		i = 1
	}
	return s.setInt(level, opt, i)
}

func (s *socket) getBool(level, opt int) (bool, error) {
	i, err := s.getInt(level, opt)
	return i != 0, err
}

func (s *socket) setInt(level, opt, v int) error {
	return s.do(func(fd int) error {
		return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, level, opt, v))
	})
}

func (s *socket) getInt(level, opt int) (v int, err error) {
	err = s.do(func(fd int) (err error) {
		v, err = unix.GetsockoptInt(fd, level, opt)
		return os.NewSyscallError("getsockopt", err)
	})
	return
}

// takeError returns and clears the pending socket error, if any.
func (s *socket) takeError() error {
	v, err := s.getInt(unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if v != 0 {
		return unix.Errno(v)
	}
	return nil
}

// retry repeats f while it fails with EINTR.
func retry[T any](f func() (T, error)) (T, error) {
	for {
		v, err := f()
		if err != unix.EINTR {
			return v, err
		}
	}
}
