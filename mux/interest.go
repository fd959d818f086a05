package mux

import (
	"strings"
)

// Interest is the set of readiness kinds a registration asks to be woken for.
// The zero value is not a valid interest.
type Interest uint8

const (
	// Readable requests read readiness notifications.
	Readable Interest = 1 << iota
	// Writable requests write readiness notifications.
	Writable
)

const interestMask = Readable | Writable

// Add returns the union of x and other.
func (x Interest) Add(other Interest) Interest { return x | other }

// Remove returns x without the bits of other, and false if nothing remains.
func (x Interest) Remove(other Interest) (Interest, bool) {
	v := x &^ other
	return v, v != 0
}

// IsReadable reports whether x includes [Readable].
func (x Interest) IsReadable() bool { return x&Readable != 0 }

// IsWritable reports whether x includes [Writable].
func (x Interest) IsWritable() bool { return x&Writable != 0 }

func (x Interest) valid() bool { return x != 0 && x&^interestMask == 0 }

func (x Interest) String() string {
	var s []string
	if x.IsReadable() {
		s = append(s, "READABLE")
	}
	if x.IsWritable() {
		s = append(s, "WRITABLE")
	}
	if len(s) == 0 {
		return "(empty)"
	}
	return strings.Join(s, " | ")
}
