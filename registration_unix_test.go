//go:build linux || darwin

package evpoll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRegistration_SetBeforeRegister(t *testing.T) {
	p := newTestPoll(t)
	reg, set := NewRegistration()
	defer reg.Close()

	require.NoError(t, set.SetReadiness(Readable))
	assert.Equal(t, Readable, set.Readiness())

	require.NoError(t, p.Register(reg, 42, Readable, Edge))
	assert.Equal(t, []Event{NewEvent(Readable, 42)}, pollOnce(t, p, time.Second))
	assert.Empty(t, pollOnce(t, p, 20*time.Millisecond))
}

func TestRegistration_SetAfterRegister(t *testing.T) {
	p := newTestPoll(t)
	reg, set := NewRegistration()
	defer reg.Close()

	require.NoError(t, p.Register(reg, 1, Readable|Writable, Edge))
	assert.Empty(t, pollOnce(t, p, 0))

	require.NoError(t, set.SetReadiness(Readable|Writable))
	assert.Equal(t, []Event{NewEvent(Readable, 1)}, pollOnce(t, p, time.Second))
	assert.Equal(t, Readable|Writable, set.Readiness())
}

func TestRegistration_Deregister(t *testing.T) {
	p := newTestPoll(t)
	reg, set := NewRegistration()
	defer reg.Close()

	require.NoError(t, p.Register(reg, 1, Readable, Edge))
	require.NoError(t, p.Deregister(reg))
	assert.Equal(t, "Registration{unregistered}", reg.String())

	for range 3 {
		require.NoError(t, set.SetReadiness(Readable))
	}
	assert.Empty(t, pollOnce(t, p, 20*time.Millisecond))
	assert.Equal(t, Readable, set.Readiness())

	// the retained readiness is re-asserted
	require.NoError(t, p.Register(reg, 2, Readable, Edge))
	assert.Equal(t, []Event{NewEvent(Readable, 2)}, pollOnce(t, p, time.Second))
}

func TestRegistration_TokenFollowsLatestRegistration(t *testing.T) {
	p := newTestPoll(t)
	reg, set := NewRegistration()
	defer reg.Close()

	require.NoError(t, p.Register(reg, 1, Readable, Edge))
	require.NoError(t, p.Reregister(reg, 2, Readable, Edge))
	assert.Equal(t, "Registration{Token(2), Readable}", reg.String())

	for i := range 5 {
		require.NoError(t, set.SetReadiness(Readable))
		events := pollOnce(t, p, time.Second)
		require.Len(t, events, 1, i)
		assert.Equal(t, Token(2), events[0].Token())
	}

	require.NoError(t, p.Reregister(reg, 3, Readable, Edge))
	require.NoError(t, set.SetReadiness(Readable))
	assert.Equal(t, []Event{NewEvent(Readable, 3)}, pollOnce(t, p, time.Second))
}

func TestRegistration_InvalidInput(t *testing.T) {
	p := newTestPoll(t)
	reg, set := NewRegistration()
	defer reg.Close()

	assert.ErrorIs(t, p.Register(reg, 1, Writable, Edge), ErrInvalidInput)
	assert.ErrorIs(t, reg.Register(p, 1, Writable, Edge), ErrInvalidInput)
	assert.ErrorIs(t, p.Register(reg, 1, Readable, Level), ErrInvalidInput)
	assert.ErrorIs(t, reg.Register(p, 1, Readable, Edge|Oneshot), ErrInvalidInput)
	assert.ErrorIs(t, reg.Reregister(p, 1, Readable, Urgent), ErrInvalidInput)
	assert.Equal(t, "Registration{unregistered}", reg.String())

	assert.ErrorIs(t, set.SetReadiness(Writable), ErrInvalidInput)
	assert.ErrorIs(t, set.SetReadiness(0), ErrInvalidInput)
	assert.ErrorIs(t, set.SetReadiness(Readable|Ready(1<<4)), ErrInvalidInput)
	assert.True(t, set.Readiness().IsEmpty())

	// still unregistered, readiness is only stored
	require.NoError(t, set.SetReadiness(Readable))
	assert.Empty(t, pollOnce(t, p, 20*time.Millisecond))
}

func TestRegistration_Close(t *testing.T) {
	p := newTestPoll(t)
	reg, set := NewRegistration()

	require.NoError(t, p.Register(reg, 1, Readable, Edge))
	require.NoError(t, reg.Close())
	require.NoError(t, reg.Close())

	require.NoError(t, set.SetReadiness(Readable))
	assert.Empty(t, pollOnce(t, p, 20*time.Millisecond))
}

func TestRegistration_PollClosed(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	reg, set := NewRegistration()
	require.NoError(t, p.Register(reg, 1, Readable, Edge))
	require.NoError(t, p.Close())

	require.NoError(t, set.SetReadiness(Readable))
	require.NoError(t, reg.Close())
}

func TestRegistration_ConcurrentProducers(t *testing.T) {
	const producers = 64

	p := newTestPoll(t)
	reg, set := NewRegistration()
	defer reg.Close()
	require.NoError(t, p.Register(reg, 7, Readable, Edge))

	type result struct {
		events []Event
		err    error
	}
	first := make(chan result, 1)
	go func() {
		events := NewEvents(8)
		_, err := p.Poll(events, NoTimeout)
		var r result
		r.err = err
		for ev := range events.All() {
			r.events = append(r.events, ev)
		}
		first <- r
	}()
	time.Sleep(10 * time.Millisecond)

	g, _ := errgroup.WithContext(context.Background())
	for range producers {
		g.Go(func() error {
			for range 100 {
				if err := set.SetReadiness(Readable); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	select {
	case r := <-first:
		require.NoError(t, r.err)
		require.NotEmpty(t, r.events)
		for _, ev := range r.events {
			assert.Equal(t, NewEvent(Readable, 7), ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not observe readiness")
	}

	// coalesced, at most a trailing edge remains
	assert.LessOrEqual(t, len(pollOnce(t, p, 20*time.Millisecond)), 1)
}

func TestRegistration_ConcurrentRegister(t *testing.T) {
	p := newTestPoll(t)
	reg, set := NewRegistration()
	defer reg.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for ctx.Err() == nil {
			if err := set.SetReadiness(Readable); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		for i := range 200 {
			if err := p.Reregister(reg, Token(i), Readable, Edge); err != nil {
				return err
			}
			if err := p.Deregister(reg); err != nil {
				return err
			}
		}
		return p.Register(reg, 1000, Readable, Edge)
	})
	require.NoError(t, g.Wait())

	// drain whatever stale tokens were in flight, then the last registration wins
	_ = pollOnce(t, p, 20*time.Millisecond)
	require.NoError(t, set.SetReadiness(Readable))
	assert.Equal(t, []Event{NewEvent(Readable, 1000)}, pollOnce(t, p, time.Second))
}
