package mux

import (
	"time"
)

// Poller owns an OS multiplexer instance.
//
// Poll and PollInterruptible must not be called concurrently with each other
// (the raw event buffer is reused), but they may run concurrently with any
// Registry operation, and Registry operations may run concurrently with each
// other. Close may run concurrently with Registry operations, but not with a
// wait.
type Poller struct {
	sel      *selector
	registry Registry
}

// New creates a new Poller.
func New() (*Poller, error) {
	sel, err := newSelector()
	if err != nil {
		return nil, err
	}
	p := &Poller{sel: sel}
	p.registry.sel = sel
	return p, nil
}

// Registry returns the handle used to register sources with this Poller. It
// stays valid (but fails with ErrClosed) after Close.
func (p *Poller) Registry() *Registry {
	return &p.registry
}

// Poll blocks until at least one registered source is ready or the timeout
// elapses, filling events. A negative timeout blocks indefinitely, zero
// returns immediately. Signal interruptions resume the wait with whatever
// time remains.
func (p *Poller) Poll(events *Events, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		interrupted, err := p.sel.wait(events, timeout)
		if err != nil || !interrupted {
			return err
		}
		switch {
		case timeout == 0:
			return nil
		case timeout > 0:
			if timeout = time.Until(deadline); timeout <= 0 {
				return nil
			}
		}
	}
}

// PollInterruptible behaves like Poll, except that it returns ErrInterrupted
// (with events empty) as soon as the wait is interrupted by a signal.
func (p *Poller) PollInterruptible(events *Events, timeout time.Duration) error {
	interrupted, err := p.sel.wait(events, timeout)
	if err == nil && interrupted {
		err = ErrInterrupted
	}
	return err
}

// Close releases the OS multiplexer. Registered descriptors are not closed.
// Registry operations racing with Close either complete or fail with
// ErrClosed.
func (p *Poller) Close() error {
	return p.sel.close()
}
