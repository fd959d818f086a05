package mux

import (
	"fmt"
	"iter"
	"strings"
)

// Token is the correlation id stored with a registration and returned
// unchanged on every event for it.
type Token uint64

// eventFlags are the readiness kinds the OS reported, a superset of Interest.
type eventFlags uint8

const (
	flagReadable eventFlags = 1 << iota
	flagWritable
	flagError
	flagReadClosed
	flagWriteClosed
	flagPriority
)

// Event is a single readiness notification as reported by the OS.
type Event struct {
	token Token
	flags eventFlags
}

// Token returns the token the source was registered with.
func (e Event) Token() Token { return e.token }

// IsReadable reports read readiness.
func (e Event) IsReadable() bool { return e.flags&flagReadable != 0 }

// IsWritable reports write readiness.
func (e Event) IsWritable() bool { return e.flags&flagWritable != 0 }

// IsError reports an error condition on the descriptor.
func (e Event) IsError() bool { return e.flags&flagError != 0 }

// IsReadClosed reports that the read half (or the whole descriptor) hung up.
func (e Event) IsReadClosed() bool { return e.flags&flagReadClosed != 0 }

// IsWriteClosed reports that the write half (or the whole descriptor) hung up.
func (e Event) IsWriteClosed() bool { return e.flags&flagWriteClosed != 0 }

// IsPriority reports out-of-band / priority data.
func (e Event) IsPriority() bool { return e.flags&flagPriority != 0 }

func (e Event) String() string {
	var s []string
	for _, v := range [...]struct {
		f    eventFlags
		name string
	}{
		{flagReadable, "READABLE"},
		{flagWritable, "WRITABLE"},
		{flagError, "ERROR"},
		{flagReadClosed, "READ_CLOSED"},
		{flagWriteClosed, "WRITE_CLOSED"},
		{flagPriority, "PRIORITY"},
	} {
		if e.flags&v.f != 0 {
			s = append(s, v.name)
		}
	}
	return fmt.Sprintf("Event{token: %d, %s}", e.token, strings.Join(s, "|"))
}

// Events is a reusable buffer filled by [Poller.Poll]. Its capacity bounds
// how many events a single wait may return.
type Events struct {
	list []Event
}

// NewEvents allocates an events buffer holding at most capacity events per
// wait. A capacity below one is raised to one.
func NewEvents(capacity int) *Events {
	if capacity < 1 {
		capacity = 1
	}
	return &Events{list: make([]Event, 0, capacity)}
}

// Capacity returns the maximum number of events a single wait may return.
func (x *Events) Capacity() int { return cap(x.list) }

// Len returns the number of events from the last wait.
func (x *Events) Len() int { return len(x.list) }

// IsEmpty reports whether the last wait returned no events.
func (x *Events) IsEmpty() bool { return len(x.list) == 0 }

// Clear drops all events, retaining capacity.
func (x *Events) Clear() { x.list = x.list[:0] }

// All iterates the events in the order the OS reported them.
func (x *Events) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for _, ev := range x.list {
			if !yield(ev) {
				return
			}
		}
	}
}

// Grow ensures the buffer can hold at least capacity events per wait.
func (x *Events) Grow(capacity int) {
	if capacity > cap(x.list) {
		list := make([]Event, len(x.list), capacity)
		copy(list, x.list)
		x.list = list
	}
}

func (x *Events) push(ev Event) {
	x.list = append(x.list, ev)
}
