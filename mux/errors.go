package mux

import (
	"errors"
)

// Standard errors.
var (
	ErrAlreadyRegistered = errors.New("mux: fd already registered")
	ErrNotRegistered     = errors.New("mux: fd not registered")
	ErrClosed            = errors.New("mux: poller closed")
	ErrEmptyInterest     = errors.New("mux: empty or unknown interest")
	ErrBadFd             = errors.New("mux: fd out of range")
	ErrUnsupported       = errors.New("mux: platform not supported")

	// ErrInterrupted is returned by [Poller.PollInterruptible] when the wait
	// was interrupted by a signal.
	ErrInterrupted = errors.New("mux: wait interrupted")
)
