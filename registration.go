package evpoll

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/go-evpoll/mux"
)

type (
	// Registration is a software event source, registered with a [Poll]
	// like any other [Evented]. Readiness is driven by the paired
	// [SetReadiness].
	Registration struct {
		inner *registrationInner
	}

	// SetReadiness asserts the readiness of its [Registration]. It may be
	// copied and used from any number of goroutines.
	SetReadiness struct {
		inner *registrationInner
	}

	registrationInner struct {
		// readiness is the last value set, retained across registrations.
		readiness atomic.Uint32
		slot      *wakerSlot
	}

	// wakerSlot is the registered state. It must not reference the
	// registrationInner, see NewRegistration.
	wakerSlot struct {
		mu       sync.RWMutex
		waker    *mux.Waker
		token    Token
		interest Ready
		metrics  *pollMetrics
		logger   *pollLogger
	}
)

var _ Evented = (*Registration)(nil)

// NewRegistration creates a linked Registration and SetReadiness pair. The
// pair starts unregistered, with empty readiness.
func NewRegistration() (*Registration, *SetReadiness) {
	inner := &registrationInner{slot: new(wakerSlot)}
	// releases the waker once both handles are unreachable
	runtime.AddCleanup(inner, func(s *wakerSlot) { _ = s.clear() }, inner.slot)
	return &Registration{inner: inner}, &SetReadiness{inner: inner}
}

// Register installs a waker bound to token. The interest must include
// [Readable]. Readiness set before the call, and matching interest, is
// delivered by the next wait.
func (x *Registration) Register(p *Poll, token Token, interest Ready, opts PollOpt) error {
	return x.inner.register(p, token, interest, opts, true)
}

// Reregister replaces the waker with one bound to token.
func (x *Registration) Reregister(p *Poll, token Token, interest Ready, opts PollOpt) error {
	return x.inner.register(p, token, interest, opts, false)
}

// Deregister removes the waker. The readiness is retained, and further
// [SetReadiness.SetReadiness] calls succeed without producing events.
func (x *Registration) Deregister(*Poll) error {
	return x.inner.slot.clear()
}

// Close deregisters the Registration from whichever Poll it is registered
// with, if any.
func (x *Registration) Close() error {
	return x.inner.slot.clear()
}

func (x *Registration) String() string {
	x.inner.slot.mu.RLock()
	defer x.inner.slot.mu.RUnlock()
	if x.inner.slot.waker == nil {
		return "Registration{unregistered}"
	}
	return "Registration{" + x.inner.slot.token.String() + ", " + x.inner.slot.interest.String() + "}"
}

// Readiness returns the last readiness set.
func (x *SetReadiness) Readiness() Ready {
	return Ready(x.inner.readiness.Load())
}

// SetReadiness stores ready, then wakes the registered Poll if ready
// intersects the registered interest. The value must include [Readable].
func (x *SetReadiness) SetReadiness(ready Ready) error {
	if !ready.valid() || !ready.IsReadable() {
		return ErrInvalidInput
	}
	x.inner.readiness.Store(uint32(ready))
	return x.inner.slot.wake(ready)
}

func (x *registrationInner) register(p *Poll, token Token, interest Ready, opts PollOpt, reassert bool) error {
	if err := validateOpts(opts); err != nil {
		return err
	}
	if !interest.valid() || !interest.IsReadable() {
		return ErrInvalidInput
	}

	var waker *mux.Waker
	if err := p.withRegistry(func(r *mux.Registry) (err error) {
		waker, err = mux.NewWaker(r, mux.Token(token))
		return
	}); err != nil {
		return err
	}

	s := x.slot
	s.mu.Lock()
	old := s.waker
	s.waker = waker
	s.token = token
	s.interest = interest
	s.metrics = p.metrics
	s.logger = p.logger
	s.mu.Unlock()

	// no reader can hold old, any wake after the swap observes the new waker
	if old != nil {
		_ = old.Close()
	}

	if reassert {
		// a SetReadiness that missed the new waker stored its value first
		if ready := Ready(x.readiness.Load()); ready&interest != 0 {
			return s.wake(ready)
		}
	}
	return nil
}

// wake triggers the waker if ready intersects the interest.
func (s *wakerSlot) wake(ready Ready) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.waker == nil || ready&s.interest == 0 {
		return nil
	}
	if err := s.waker.Wake(); err != nil {
		s.logger.wakeError(s.token, err)
		return err
	}
	s.metrics.recordWakeup()
	return nil
}

// clear closes and removes the waker, if any.
func (s *wakerSlot) clear() error {
	s.mu.Lock()
	waker := s.waker
	s.waker = nil
	s.token = 0
	s.interest = 0
	s.metrics = nil
	s.logger = nil
	s.mu.Unlock()
	if waker == nil {
		return nil
	}
	return waker.Close()
}
