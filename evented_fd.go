package evpoll

import (
	"strconv"

	"github.com/joeycumines/go-evpoll/mux"
)

// EventedFd registers a raw descriptor with a [Poll]. It does not own the
// descriptor: the caller keeps it open while registered, and closes it.
type EventedFd struct {
	fd int
}

var _ Evented = EventedFd{}

// NewEventedFd wraps fd, which must not be negative.
func NewEventedFd(fd int) (EventedFd, error) {
	if fd < 0 {
		return EventedFd{}, ErrInvalidInput
	}
	return EventedFd{fd: fd}, nil
}

// Fd returns the wrapped descriptor.
func (x EventedFd) Fd() int { return x.fd }

func (x EventedFd) Register(p *Poll, token Token, interest Ready, opts PollOpt) error {
	i, err := validateArgs(interest, opts)
	if err != nil {
		return err
	}
	return p.withRegistry(func(r *mux.Registry) error {
		return mux.SourceFd(x.fd).Register(r, mux.Token(token), i)
	})
}

func (x EventedFd) Reregister(p *Poll, token Token, interest Ready, opts PollOpt) error {
	i, err := validateArgs(interest, opts)
	if err != nil {
		return err
	}
	return p.withRegistry(func(r *mux.Registry) error {
		return mux.SourceFd(x.fd).Reregister(r, mux.Token(token), i)
	})
}

func (x EventedFd) Deregister(p *Poll) error {
	return p.withRegistry(func(r *mux.Registry) error {
		return mux.SourceFd(x.fd).Deregister(r)
	})
}

func (x EventedFd) String() string {
	return "EventedFd(" + strconv.Itoa(x.fd) + ")"
}
