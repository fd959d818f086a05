package evpoll

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-evpoll/mux"
)

var allReady = []Ready{0, Readable, Writable, Readable | Writable}

func TestReady(t *testing.T) {
	for _, tc := range [...]struct {
		ready         Ready
		empty, rd, wr bool
		str           string
	}{
		{0, true, false, false, "(empty)"},
		{Readable, false, true, false, "Readable"},
		{Writable, false, false, true, "Writable"},
		{Readable | Writable, false, true, true, "Readable | Writable"},
	} {
		t.Run(tc.str, func(t *testing.T) {
			assert.Equal(t, tc.empty, tc.ready.IsEmpty())
			assert.Equal(t, tc.rd, tc.ready.IsReadable())
			assert.Equal(t, tc.wr, tc.ready.IsWritable())
			assert.Equal(t, tc.str, tc.ready.String())
			assert.True(t, (Readable | Writable).Contains(tc.ready))
			assert.True(t, tc.ready.Contains(0))
		})
	}
	assert.False(t, Ready(1<<5).valid())
}

func TestReadyToInterest_Union(t *testing.T) {
	watches := func(r Ready) (out Ready) {
		if i, ok := readyToInterest(r); ok {
			out = interestToReady(i)
		}
		return
	}
	for _, r1 := range allReady {
		for _, r2 := range allReady {
			assert.Equal(t, watches(r1)|watches(r2), watches(r1|r2), "%s | %s", r1, r2)
		}
	}
}

func TestReadyToInterest(t *testing.T) {
	_, ok := readyToInterest(0)
	assert.False(t, ok)

	i, ok := readyToInterest(Readable)
	require.True(t, ok)
	assert.Equal(t, mux.Readable, i)

	i, ok = readyToInterest(Writable)
	require.True(t, ok)
	assert.Equal(t, mux.Writable, i)

	i, ok = readyToInterest(Readable | Writable)
	require.True(t, ok)
	assert.True(t, i.IsReadable())
	assert.True(t, i.IsWritable())
}

func TestValidateOpts(t *testing.T) {
	require.NoError(t, validateOpts(Edge))
	for _, opts := range [...]PollOpt{0, Level, Oneshot, Urgent, Edge | Oneshot, Edge | Level, Edge | Urgent} {
		err := validateOpts(opts)
		require.Error(t, err, opts.String())
		assert.ErrorIs(t, err, ErrInvalidInput)
		var optErr *OptionError
		require.True(t, errors.As(err, &optErr))
		assert.Equal(t, opts, optErr.Opts)
	}
}

func TestValidateArgs(t *testing.T) {
	_, err := validateArgs(0, Edge)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = validateArgs(Ready(1<<7)|Readable, Edge)
	assert.ErrorIs(t, err, ErrInvalidInput)
	i, err := validateArgs(Writable, Edge)
	require.NoError(t, err)
	assert.Equal(t, mux.Writable, i)
}

func TestPollOpt_String(t *testing.T) {
	assert.Equal(t, "Edge", Edge.String())
	assert.Equal(t, "Edge | Oneshot", (Edge | Oneshot).String())
	assert.Equal(t, "(empty)", PollOpt(0).String())
	assert.True(t, (Level | Urgent).IsLevel())
	assert.True(t, (Level | Urgent).IsUrgent())
	assert.False(t, (Level | Urgent).IsEdge())
}
