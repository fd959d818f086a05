package evpoll

import (
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// Log categories, set as the "category" field of every event.
const (
	categoryRegistry = "registry"
	categoryPoll     = "poll"
	categoryWaker    = "waker"
)

// pollLogger wraps the configured logger. Warnings and errors are rate
// limited per category and operation, when a limiter is configured. The zero
// value and a nil *pollLogger log nothing.
type pollLogger struct {
	logger  *logiface.Logger[logiface.Event]
	limiter *catrate.Limiter
}

type logRateKey struct {
	category string
	op       string
}

func newPollLogger(logger *logiface.Logger[logiface.Event], rates map[time.Duration]int) *pollLogger {
	if logger == nil {
		return nil
	}
	x := &pollLogger{logger: logger}
	if len(rates) != 0 {
		x.limiter = catrate.NewLimiter(rates)
	}
	return x
}

func (x *pollLogger) allow(category, op string) bool {
	_, ok := x.limiter.Allow(logRateKey{category, op})
	return ok
}

func (x *pollLogger) registryOp(op string, token Token, interest Ready, err error) {
	if x == nil {
		return
	}
	if err != nil {
		if b := x.logger.Warning(); b.Enabled() && x.allow(categoryRegistry, op) {
			b.Str("category", categoryRegistry).
				Str("op", op).
				Uint64("token", uint64(token)).
				Stringer("interest", interest).
				Err(err).
				Log("registry operation failed")
		} else {
			b.Release()
		}
		return
	}
	x.logger.Debug().
		Str("category", categoryRegistry).
		Str("op", op).
		Uint64("token", uint64(token)).
		Stringer("interest", interest).
		Log(op)
}

func (x *pollLogger) deregister(err error) {
	if x == nil {
		return
	}
	if err != nil {
		if b := x.logger.Warning(); b.Enabled() && x.allow(categoryRegistry, "deregister") {
			b.Str("category", categoryRegistry).
				Str("op", "deregister").
				Err(err).
				Log("registry operation failed")
		} else {
			b.Release()
		}
		return
	}
	x.logger.Debug().
		Str("category", categoryRegistry).
		Log("deregister")
}

func (x *pollLogger) pollError(err error) {
	if x == nil {
		return
	}
	if b := x.logger.Err(); b.Enabled() && x.allow(categoryPoll, "wait") {
		b.Str("category", categoryPoll).
			Err(err).
			Log("wait failed")
	} else {
		b.Release()
	}
}

func (x *pollLogger) wakeError(token Token, err error) {
	if x == nil {
		return
	}
	if b := x.logger.Err(); b.Enabled() && x.allow(categoryWaker, "wake") {
		b.Str("category", categoryWaker).
			Uint64("token", uint64(token)).
			Err(err).
			Log("wake failed")
	} else {
		b.Release()
	}
}
