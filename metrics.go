// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package evpoll

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics is a point-in-time snapshot of a [Poll]'s runtime counters,
// available when it was created with [WithMetrics].
//
// Example:
//
//	p, _ := New(WithMetrics(true))
//	// ...
//	m := p.Metrics()
//	fmt.Printf("polls: %d, P99 wait: %v\n", m.Polls, m.WaitLatency.P99)
type Metrics struct {
	// Polls counts completed waits, including those that timed out.
	Polls uint64
	// EmptyPolls counts waits that returned no events.
	EmptyPolls uint64
	// Events counts delivered events.
	Events uint64
	// Interrupts counts waits cut short by a signal.
	Interrupts uint64
	// PollErrors counts waits that failed.
	PollErrors uint64

	Registrations   uint64
	Reregistrations uint64
	Deregistrations uint64

	// Wakeups counts software readiness notifications that reached a
	// registered Registration.
	Wakeups uint64

	// WaitLatency is the distribution of time spent blocked per wait.
	WaitLatency LatencySnapshot
}

// LatencySnapshot holds percentiles computed over the most recent samples.
type LatencySnapshot struct {
	Samples int

	P50 time.Duration
	P90 time.Duration
	P95 time.Duration
	P99 time.Duration
	Max time.Duration

	Mean time.Duration
}

// pollMetrics is the live, concurrently updated form of Metrics. A nil
// *pollMetrics records nothing.
type pollMetrics struct {
	polls           atomic.Uint64
	emptyPolls      atomic.Uint64
	events          atomic.Uint64
	interrupts      atomic.Uint64
	pollErrors      atomic.Uint64
	registrations   atomic.Uint64
	reregistrations atomic.Uint64
	deregistrations atomic.Uint64
	wakeups         atomic.Uint64
	latency         latencyMetrics
}

func (m *pollMetrics) recordPoll(n int, interrupted bool, wait time.Duration) {
	if m == nil {
		return
	}
	m.polls.Add(1)
	if n == 0 {
		m.emptyPolls.Add(1)
	}
	m.events.Add(uint64(n))
	if interrupted {
		m.interrupts.Add(1)
	}
	m.latency.Record(wait)
}

func (m *pollMetrics) recordPollError() {
	if m != nil {
		m.pollErrors.Add(1)
	}
}

func (m *pollMetrics) recordRegister() {
	if m != nil {
		m.registrations.Add(1)
	}
}

func (m *pollMetrics) recordReregister() {
	if m != nil {
		m.reregistrations.Add(1)
	}
}

func (m *pollMetrics) recordDeregister() {
	if m != nil {
		m.deregistrations.Add(1)
	}
}

func (m *pollMetrics) recordWakeup() {
	if m != nil {
		m.wakeups.Add(1)
	}
}

func (m *pollMetrics) snapshot() Metrics {
	if m == nil {
		return Metrics{}
	}
	return Metrics{
		Polls:           m.polls.Load(),
		EmptyPolls:      m.emptyPolls.Load(),
		Events:          m.events.Load(),
		Interrupts:      m.interrupts.Load(),
		PollErrors:      m.pollErrors.Load(),
		Registrations:   m.registrations.Load(),
		Reregistrations: m.reregistrations.Load(),
		Deregistrations: m.deregistrations.Load(),
		Wakeups:         m.wakeups.Load(),
		WaitLatency:     m.latency.Sample(),
	}
}

// sampleSize is the maximum number of latency samples to retain.
const sampleSize = 1000

// latencyMetrics keeps a rolling buffer of samples.
type latencyMetrics struct {
	mu          sync.Mutex
	sampleIdx   int
	sampleCount int
	samples     [sampleSize]time.Duration
	sum         time.Duration
}

// Record records a latency sample, replacing the oldest once full.
func (l *latencyMetrics) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sampleCount >= sampleSize {
		l.sum -= l.samples[l.sampleIdx]
	}

	l.samples[l.sampleIdx] = d
	l.sum += d
	l.sampleIdx++
	if l.sampleIdx >= sampleSize {
		l.sampleIdx = 0
	}
	if l.sampleCount < sampleSize {
		l.sampleCount++
	}
}

// Sample computes percentiles over the retained samples.
func (l *latencyMetrics) Sample() LatencySnapshot {
	l.mu.Lock()
	count := l.sampleCount
	if count == 0 {
		l.mu.Unlock()
		return LatencySnapshot{}
	}
	sorted := make([]time.Duration, count)
	copy(sorted, l.samples[:count])
	sum := l.sum
	l.mu.Unlock()

	slices.Sort(sorted)

	return LatencySnapshot{
		Samples: count,
		P50:     sorted[percentileIndex(count, 50)],
		P90:     sorted[percentileIndex(count, 90)],
		P95:     sorted[percentileIndex(count, 95)],
		P99:     sorted[percentileIndex(count, 99)],
		Max:     sorted[count-1],
		Mean:    sum / time.Duration(count),
	}
}

// percentileIndex computes the index for a given percentile (0-100).
func percentileIndex(n, p int) int {
	index := (p * n) / 100
	if index >= n {
		return n - 1
	}
	return index
}
