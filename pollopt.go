package evpoll

import (
	"strings"
)

// PollOpt is the legacy registration option set. Only [Edge] on its own is
// accepted; the other options exist so that callers written against the
// wider model fail loudly rather than being silently downgraded.
type PollOpt uint8

const (
	// Edge requests edge-triggered notifications.
	Edge PollOpt = 1 << iota
	// Level requests level-triggered notifications (unsupported).
	Level
	// Oneshot disables the registration after the first event (unsupported).
	Oneshot
	// Urgent requests priority notifications (unsupported).
	Urgent
)

// IsEdge reports whether [Edge] is set.
func (o PollOpt) IsEdge() bool { return o&Edge != 0 }

// IsLevel reports whether [Level] is set.
func (o PollOpt) IsLevel() bool { return o&Level != 0 }

// IsOneshot reports whether [Oneshot] is set.
func (o PollOpt) IsOneshot() bool { return o&Oneshot != 0 }

// IsUrgent reports whether [Urgent] is set.
func (o PollOpt) IsUrgent() bool { return o&Urgent != 0 }

func (o PollOpt) String() string {
	var s []string
	if o.IsEdge() {
		s = append(s, "Edge")
	}
	if o.IsLevel() {
		s = append(s, "Level")
	}
	if o.IsOneshot() {
		s = append(s, "Oneshot")
	}
	if o.IsUrgent() {
		s = append(s, "Urgent")
	}
	if len(s) == 0 {
		return "(empty)"
	}
	return strings.Join(s, " | ")
}
