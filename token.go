package evpoll

import (
	"strconv"
)

// Token is a caller-assigned id, unique per live registration on a [Poll],
// returned unchanged with every event for that registration.
type Token uint64

func (t Token) String() string {
	return "Token(" + strconv.FormatUint(uint64(t), 10) + ")"
}
