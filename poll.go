package evpoll

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-evpoll/mux"
)

// NoTimeout may be passed to [Poll.Poll] to block until an event arrives.
const NoTimeout time.Duration = -1

// closeToken tags the internal waker Close uses to interrupt a wait. Its
// events are never delivered, since they only occur once the Poll is closed.
const closeToken mux.Token = math.MaxUint64

// Poll waits for readiness events on registered [Evented] sources.
//
// A Poll either owns its multiplexer ([New]) or borrows the registry of an
// enclosing reactor (see [AsSource]). Only an owning Poll can wait.
//
// Registration methods may be called from any goroutine, including while
// another goroutine is blocked in Poll. Concurrent calls to Poll and
// PollInterruptible are serialized: a second caller blocks until the first
// returns.
type Poll struct {
	backend backend
	logger  *pollLogger
	metrics *pollMetrics

	// waitMu serializes waiters, and guards raw.
	waitMu sync.Mutex
	raw    *mux.Events
}

// backend is the mode specific half of a Poll.
type backend interface {
	// withRegistry calls f with the registry, for as long as the backend is
	// open.
	withRegistry(f func(r *mux.Registry) error) error
	wait(events *mux.Events, timeout time.Duration, interruptible bool) error
	mode() string
}

// New creates a Poll that owns a new OS multiplexer.
func New(opts ...Option) (*Poll, error) {
	cfg, err := resolvePollOptions(opts)
	if err != nil {
		return nil, err
	}
	poller, err := mux.New()
	if err != nil {
		return nil, fmt.Errorf("evpoll: create multiplexer: %w", err)
	}
	closer, err := mux.NewWaker(poller.Registry(), closeToken)
	if err != nil {
		_ = poller.Close()
		return nil, fmt.Errorf("evpoll: create close waker: %w", err)
	}
	p := &Poll{
		backend: &ownedBackend{poller: poller, closer: closer},
		logger:  newPollLogger(cfg.logger, cfg.logRates),
	}
	if cfg.metricsEnabled {
		p.metrics = new(pollMetrics)
	}
	return p, nil
}

// newBorrowedPoll wraps a registry owned elsewhere.
func newBorrowedPoll(r *mux.Registry) *Poll {
	return &Poll{backend: borrowedBackend{registry: r}}
}

// Register starts delivering events for source, tagged with token, whenever
// it becomes ready for something in interest. The interest must not be empty,
// and opts must be exactly [Edge].
func (p *Poll) Register(source Evented, token Token, interest Ready, opts PollOpt) error {
	err := p.register(source, token, interest, opts)
	p.logger.registryOp("register", token, interest, err)
	return err
}

func (p *Poll) register(source Evented, token Token, interest Ready, opts PollOpt) error {
	if _, err := validateArgs(interest, opts); err != nil {
		return err
	}
	if source == nil {
		return ErrInvalidInput
	}
	if err := source.Register(p, token, interest, opts); err != nil {
		return err
	}
	p.metrics.recordRegister()
	return nil
}

// Reregister replaces the token and interest of a registered source. An
// empty interest deregisters it.
func (p *Poll) Reregister(source Evented, token Token, interest Ready, opts PollOpt) error {
	if err := validateOpts(opts); err != nil {
		p.logger.registryOp("reregister", token, interest, err)
		return err
	}
	if interest.valid() && interest.IsEmpty() {
		return p.Deregister(source)
	}
	err := p.reregister(source, token, interest, opts)
	p.logger.registryOp("reregister", token, interest, err)
	return err
}

func (p *Poll) reregister(source Evented, token Token, interest Ready, opts PollOpt) error {
	if _, err := validateArgs(interest, opts); err != nil {
		return err
	}
	if source == nil {
		return ErrInvalidInput
	}
	if err := source.Reregister(p, token, interest, opts); err != nil {
		return err
	}
	p.metrics.recordReregister()
	return nil
}

// Deregister stops delivering events for source. An event already dequeued
// by a wait in flight on another goroutine may still be returned by it.
func (p *Poll) Deregister(source Evented) error {
	var err error
	if source == nil {
		err = ErrInvalidInput
	} else if err = source.Deregister(p); err == nil {
		p.metrics.recordDeregister()
	}
	p.logger.deregister(err)
	return err
}

// Poll clears events, then blocks until at least one registered source is
// ready or timeout elapses, returning the number of events received. A
// negative timeout ([NoTimeout]) blocks indefinitely, zero returns
// immediately. At most events.Capacity() events are returned per call.
//
// A signal interrupting the wait resumes it with the time remaining.
func (p *Poll) Poll(events *Events, timeout time.Duration) (int, error) {
	return p.poll(events, timeout, false)
}

// PollInterruptible behaves like [Poll.Poll], except that it returns early,
// with no events and a nil error, if the wait is interrupted by a signal.
func (p *Poll) PollInterruptible(events *Events, timeout time.Duration) (int, error) {
	return p.poll(events, timeout, true)
}

func (p *Poll) poll(events *Events, timeout time.Duration, interruptible bool) (int, error) {
	if events == nil {
		return 0, ErrInvalidInput
	}
	events.Clear()

	if _, ok := p.backend.(borrowedBackend); ok {
		return 0, ErrWrongMode
	}

	p.waitMu.Lock()
	defer p.waitMu.Unlock()

	if p.raw == nil || p.raw.Capacity() != events.Capacity() {
		p.raw = mux.NewEvents(events.Capacity())
	}

	start := time.Now()
	err := p.backend.wait(p.raw, timeout, interruptible)
	var interrupted bool
	if errors.Is(err, mux.ErrInterrupted) {
		interrupted = true
		err = nil
	}
	if err != nil {
		p.metrics.recordPollError()
		if !errors.Is(err, ErrClosed) {
			p.logger.pollError(err)
		}
		return 0, err
	}

	for ev := range p.raw.All() {
		events.push(Event{token: Token(ev.Token()), ready: eventToReady(ev)})
	}
	n := len(events.list)
	p.metrics.recordPoll(n, interrupted, time.Since(start))
	return n, nil
}

// Close releases the multiplexer. A goroutine blocked in Poll is woken, and
// returns ErrClosed; Close waits for it to do so. Registration calls made
// once Close has started fail with ErrClosed. Only an owning Poll may be
// closed. Registered descriptors are not closed.
func (p *Poll) Close() error {
	b, ok := p.backend.(*ownedBackend)
	if !ok {
		return ErrWrongMode
	}
	if b.closed.Swap(true) {
		return ErrClosed
	}
	wakeErr := b.closer.Wake()
	if wakeErr != nil {
		wakeErr = fmt.Errorf("evpoll: wake waiter: %w", wakeErr)
	}
	p.waitMu.Lock()
	defer p.waitMu.Unlock()
	return errors.Join(wakeErr, b.release())
}

// Metrics returns a snapshot of the runtime metrics, or the zero value if the
// Poll was not created with [WithMetrics].
func (p *Poll) Metrics() Metrics {
	return p.metrics.snapshot()
}

func (p *Poll) String() string {
	return fmt.Sprintf("Poll{mode: %s}", p.backend.mode())
}

// withRegistry gives [Evented] implementations access to the registry.
func (p *Poll) withRegistry(f func(r *mux.Registry) error) error {
	return p.backend.withRegistry(f)
}

type ownedBackend struct {
	poller *mux.Poller
	closer *mux.Waker
	// mu guards the poller handle, shared for registry access, exclusive
	// for release. Waits are ordered against release by Poll.waitMu.
	mu     sync.RWMutex
	closed atomic.Bool
}

func (x *ownedBackend) withRegistry(f func(r *mux.Registry) error) error {
	if x.closed.Load() {
		return ErrClosed
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed.Load() {
		return ErrClosed
	}
	return f(x.poller.Registry())
}

func (x *ownedBackend) wait(events *mux.Events, timeout time.Duration, interruptible bool) error {
	if x.closed.Load() {
		return ErrClosed
	}
	var err error
	if interruptible {
		err = x.poller.PollInterruptible(events, timeout)
	} else {
		err = x.poller.Poll(events, timeout)
	}
	if x.closed.Load() {
		events.Clear()
		return ErrClosed
	}
	return err
}

// release closes the multiplexer, once in-flight registry calls are done.
// The caller must hold Poll.waitMu.
func (x *ownedBackend) release() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return errors.Join(x.closer.Close(), x.poller.Close())
}

func (x *ownedBackend) mode() string { return "owned" }

type borrowedBackend struct {
	registry *mux.Registry
}

func (x borrowedBackend) withRegistry(f func(r *mux.Registry) error) error {
	return f(x.registry)
}

func (borrowedBackend) wait(*mux.Events, time.Duration, bool) error { return ErrWrongMode }

func (borrowedBackend) mode() string { return "borrowed" }

// AsSource adapts an Evented to the multiplexer's [mux.Source], so that a
// reactor driving its own [mux.Poller] can register it directly. The
// Evented sees a Poll that borrows the reactor's registry.
func AsSource(e Evented) mux.Source {
	return sourceAdapter{e}
}

type sourceAdapter struct {
	e Evented
}

func (x sourceAdapter) Register(r *mux.Registry, token mux.Token, interest mux.Interest) error {
	return x.e.Register(newBorrowedPoll(r), Token(token), interestToReady(interest), Edge)
}

func (x sourceAdapter) Reregister(r *mux.Registry, token mux.Token, interest mux.Interest) error {
	return x.e.Reregister(newBorrowedPoll(r), Token(token), interestToReady(interest), Edge)
}

func (x sourceAdapter) Deregister(r *mux.Registry) error {
	return x.e.Deregister(newBorrowedPoll(r))
}
