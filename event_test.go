package evpoll

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvents(t *testing.T) {
	events := NewEvents(4)
	assert.Equal(t, 4, events.Capacity())
	assert.True(t, events.IsEmpty())

	events.push(NewEvent(Readable, 1))
	events.push(NewEvent(Writable, 2))
	events.push(NewEvent(Readable|Writable, 3))
	assert.False(t, events.IsEmpty())

	assert.Equal(t, []Event{
		NewEvent(Readable, 1),
		NewEvent(Writable, 2),
		NewEvent(Readable|Writable, 3),
	}, slices.Collect(events.All()))

	// early break
	var n int
	for range events.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)

	it := events.Iter()
	var tokens []Token
	for ev, ok := it.Next(); ok; ev, ok = it.Next() {
		tokens = append(tokens, ev.Token())
	}
	assert.Equal(t, []Token{1, 2, 3}, tokens)
	_, ok := it.Next()
	assert.False(t, ok)

	events.Clear()
	assert.True(t, events.IsEmpty())
	assert.Equal(t, 4, events.Capacity())
}

func TestNewEvents_MinimumCapacity(t *testing.T) {
	assert.Equal(t, 1, NewEvents(0).Capacity())
	assert.Equal(t, 1, NewEvents(-3).Capacity())
}

func TestNewEvent_DropsUnknownBits(t *testing.T) {
	ev := NewEvent(Ready(0xff), 9)
	assert.Equal(t, Readable|Writable, ev.Readiness())
	assert.Equal(t, Token(9), ev.Token())
	assert.Equal(t, "Event{Token(9), Readable | Writable}", ev.String())
}
