package evpoll

import (
	"github.com/joeycumines/go-evpoll/mux"
)

// readyToInterest converts readiness to the multiplexer's interest, reporting
// false if neither Readable nor Writable is set.
func readyToInterest(r Ready) (mux.Interest, bool) {
	switch {
	case r.IsReadable() && r.IsWritable():
		return mux.Readable.Add(mux.Writable), true
	case r.IsReadable():
		return mux.Readable, true
	case r.IsWritable():
		return mux.Writable, true
	default:
		return 0, false
	}
}

func interestToReady(i mux.Interest) (r Ready) {
	if i.IsReadable() {
		r |= Readable
	}
	if i.IsWritable() {
		r |= Writable
	}
	return
}

// eventToReady folds an OS event into the two flag model. Error and hang-up
// conditions are reported as readable and writable, read-closed and priority
// as readable; the follow-up syscall surfaces the actual condition.
func eventToReady(ev mux.Event) (r Ready) {
	if ev.IsReadable() || ev.IsReadClosed() || ev.IsPriority() {
		r |= Readable
	}
	if ev.IsWritable() || ev.IsWriteClosed() {
		r |= Writable
	}
	if ev.IsError() {
		r |= Readable | Writable
	}
	return
}

func validateOpts(opts PollOpt) error {
	if opts != Edge {
		return &OptionError{Opts: opts}
	}
	return nil
}

// validateArgs checks the common register / reregister arguments, returning
// the translated interest.
func validateArgs(interest Ready, opts PollOpt) (mux.Interest, error) {
	if err := validateOpts(opts); err != nil {
		return 0, err
	}
	if !interest.valid() {
		return 0, ErrInvalidInput
	}
	i, ok := readyToInterest(interest)
	if !ok {
		return 0, ErrInvalidInput
	}
	return i, nil
}
