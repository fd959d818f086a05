// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package evpoll

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/joeycumines/logiface"
)

// pollOptions holds configuration options for Poll creation.
type pollOptions struct {
	logger         *logiface.Logger[logiface.Event]
	logRates       map[time.Duration]int
	metricsEnabled bool
}

// Option configures a [Poll] instance.
type Option interface {
	applyPoll(*pollOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyPollFunc func(*pollOptions) error
}

func (o *optionImpl) applyPoll(opts *pollOptions) error {
	return o.applyPollFunc(opts)
}

// WithLogger attaches a structured logger. Registration changes are logged
// at debug level, failed waits at error level. A nil logger disables
// logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *pollOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithLogRateLimit limits warning and error logs, per category and
// operation, to at most count events per window, for every window in rates.
// Each longer window must allow more events, at a lower rate, than every
// shorter window.
//
// Example:
//
//	evpoll.WithLogRateLimit(map[time.Duration]int{
//		time.Second: 5,
//		time.Minute: 60,
//	})
func WithLogRateLimit(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *pollOptions) error {
		if err := validateLogRates(rates); err != nil {
			return err
		}
		opts.logRates = maps.Clone(rates)
		return nil
	}}
}

func validateLogRates(rates map[time.Duration]int) error {
	windows := slices.Sorted(maps.Keys(rates))
	for i, window := range windows {
		count := rates[window]
		if window <= 0 || count <= 0 {
			return fmt.Errorf("%w: log rate %d per %s", ErrInvalidInput, count, window)
		}
		if i == 0 {
			continue
		}
		prev := windows[i-1]
		if count <= rates[prev] || float64(count)/float64(window) >= float64(rates[prev])/float64(prev) {
			return fmt.Errorf("%w: log rate %d per %s is redundant with %d per %s", ErrInvalidInput, count, window, rates[prev], prev)
		}
	}
	return nil
}

// WithMetrics enables runtime metrics collection, see [Poll.Metrics].
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(opts *pollOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// resolvePollOptions applies Option instances to pollOptions.
func resolvePollOptions(opts []Option) (*pollOptions, error) {
	cfg := &pollOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyPoll(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
