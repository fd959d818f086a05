package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/joeycumines/go-evpoll"
	"github.com/joeycumines/go-evpoll/evpollprom"
)

// result summarizes a run.
type result struct {
	notifications int
	events        int
	elapsed       time.Duration
	metrics       evpoll.Metrics
}

func run(ctx context.Context, cfg config, logger *logiface.Logger[logiface.Event]) error {
	p, err := evpoll.New(
		evpoll.WithLogger(logger),
		evpoll.WithMetrics(true),
		evpoll.WithLogRateLimit(map[time.Duration]int{
			time.Second: 10,
			time.Minute: 100,
		}),
	)
	if err != nil {
		return err
	}
	defer p.Close()

	if cfg.metricsAddr != "" {
		stop := serveMetrics(cfg.metricsAddr, p, logger)
		defer stop()
	}

	res, err := stress(ctx, p, cfg)
	if err != nil {
		return err
	}

	logger.Info().
		Int("producers", cfg.producers).
		Int("notifications", res.notifications).
		Int("events", res.events).
		Uint64("wakeups", res.metrics.Wakeups).
		Uint64("polls", res.metrics.Polls).
		Dur("elapsed", res.elapsed).
		Dur("wait_p99", res.metrics.WaitLatency.P99).
		Log("done")

	if cfg.linger > 0 && cfg.metricsAddr != "" {
		select {
		case <-ctx.Done():
		case <-time.After(cfg.linger):
		}
	}
	return nil
}

func serveMetrics(addr string, p *evpoll.Poll, logger *logiface.Logger[logiface.Event]) (stop func()) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		evpollprom.NewCollector(p, "evpollstress"),
		collectors.NewGoCollector(),
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Err().Err(err).Log("metrics server failed")
		}
	}()
	logger.Info().Str("addr", addr).Log("serving metrics")
	return func() { _ = srv.Close() }
}

// stress runs the producers against one Registration, while a consumer
// counts the events that reach p.
func stress(ctx context.Context, p *evpoll.Poll, cfg config) (res result, err error) {
	reg, set := evpoll.NewRegistration()
	defer reg.Close()
	const token evpoll.Token = 1
	if err := p.Register(reg, token, evpoll.Readable, evpoll.Edge); err != nil {
		return res, err
	}

	done := make(chan struct{})
	consumerErr := make(chan error, 1)
	go func() {
		events := evpoll.NewEvents(cfg.capacity)
		for {
			select {
			case <-done:
				consumerErr <- nil
				return
			default:
			}
			if _, err := p.Poll(events, cfg.pollTimeout); err != nil {
				consumerErr <- err
				return
			}
			for ev := range events.All() {
				if ev.Token() == token {
					res.events++
				}
			}
		}
	}()

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := range cfg.producers {
		g.Go(func() error {
			for range cfg.iterations {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := set.SetReadiness(evpoll.Readable); err != nil {
					return fmt.Errorf("producer %d: %w", i, err)
				}
			}
			return nil
		})
	}
	err = g.Wait()
	res.elapsed = time.Since(start)

	// one last edge, so the consumer observes every producer's effect
	if err == nil {
		err = set.SetReadiness(evpoll.Readable)
	}
	close(done)
	if cerr := <-consumerErr; err == nil {
		err = cerr
	}
	if err != nil {
		return res, err
	}

	res.notifications = cfg.producers * cfg.iterations
	res.metrics = p.Metrics()
	return res, nil
}
