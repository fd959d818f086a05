package evpoll

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for arguments the core cannot act on: empty
	// or unknown interest, unsupported options, a readiness without
	// [Readable] given to a [SetReadiness].
	ErrInvalidInput = errors.New("evpoll: invalid input")

	// ErrWrongMode is returned when waiting on a [Poll] that borrows its
	// registry, or closing one.
	ErrWrongMode = errors.New("evpoll: operation not supported by a borrowed poll")

	// ErrClosed is returned by every operation on a closed [Poll].
	ErrClosed = errors.New("evpoll: poll closed")
)

// OptionError reports a [PollOpt] that is not exactly [Edge].
type OptionError struct {
	Opts PollOpt
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("evpoll: unsupported poll options %s: only Edge is supported", e.Opts)
}

// Is matches [ErrInvalidInput].
func (e *OptionError) Is(target error) bool {
	return target == ErrInvalidInput
}
