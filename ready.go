package evpoll

import (
	"strings"
)

// Ready is a set of readiness flags. The zero value is empty. Union and
// intersection are the | and & operators.
type Ready uint8

const (
	// Readable indicates the source can be read from.
	Readable Ready = 1 << iota
	// Writable indicates the source can be written to.
	Writable
)

// readyMask is every bit the flag model defines.
const readyMask = Readable | Writable

// IsEmpty reports whether no flag is set.
func (r Ready) IsEmpty() bool { return r&readyMask == 0 }

// IsReadable reports whether [Readable] is set.
func (r Ready) IsReadable() bool { return r&Readable != 0 }

// IsWritable reports whether [Writable] is set.
func (r Ready) IsWritable() bool { return r&Writable != 0 }

// Contains reports whether every flag of other is set in r.
func (r Ready) Contains(other Ready) bool { return r&other == other }

// valid reports that r carries no bits outside the flag model.
func (r Ready) valid() bool { return r&^readyMask == 0 }

func (r Ready) String() string {
	var s []string
	if r.IsReadable() {
		s = append(s, "Readable")
	}
	if r.IsWritable() {
		s = append(s, "Writable")
	}
	if len(s) == 0 {
		return "(empty)"
	}
	return strings.Join(s, " | ")
}
