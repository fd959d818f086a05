package evpoll

import (
	"fmt"
	"iter"
)

// Event is a delivered readiness notification.
type Event struct {
	token Token
	ready Ready
}

// NewEvent builds an Event, typically for tests of code consuming events.
func NewEvent(ready Ready, token Token) Event {
	return Event{token: token, ready: ready & readyMask}
}

// Token returns the token the source was (re)registered with.
func (e Event) Token() Token { return e.token }

// Readiness returns the readiness flags of the event.
func (e Event) Readiness() Ready { return e.ready }

func (e Event) String() string {
	return fmt.Sprintf("Event{%s, %s}", e.token, e.ready)
}

// Events is a reusable buffer of delivered events. It is cleared and
// refilled by every [Poll.Poll] call, so its contents are only valid until
// the next one. Only forward iteration is offered.
type Events struct {
	list []Event
}

// NewEvents allocates a buffer sized for capacity events per wait. The
// capacity is a hint for the batch size of a single wait, not a hard bound on
// the buffer.
func NewEvents(capacity int) *Events {
	if capacity < 1 {
		capacity = 1
	}
	return &Events{list: make([]Event, 0, capacity)}
}

// Capacity returns the number of events the buffer holds without growing.
func (x *Events) Capacity() int { return cap(x.list) }

// IsEmpty reports whether the buffer holds no events.
func (x *Events) IsEmpty() bool { return len(x.list) == 0 }

// Clear drops all events, retaining capacity.
func (x *Events) Clear() { x.list = x.list[:0] }

// All iterates the events in delivery order.
func (x *Events) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for _, ev := range x.list {
			if !yield(ev) {
				return
			}
		}
	}
}

// Iter returns a forward-only cursor over the events.
func (x *Events) Iter() *EventIter {
	return &EventIter{events: x}
}

func (x *Events) push(ev Event) {
	x.list = append(x.list, ev)
}

func (x *Events) String() string {
	return fmt.Sprintf("Events{capacity: %d}", x.Capacity())
}

// EventIter is a forward-only cursor, see [Events.Iter].
type EventIter struct {
	events *Events
	pos    int
}

// Next returns the next event, or false once exhausted.
func (it *EventIter) Next() (Event, bool) {
	if it.pos >= len(it.events.list) {
		return Event{}, false
	}
	ev := it.events.list[it.pos]
	it.pos++
	return ev, true
}
