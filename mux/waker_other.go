//go:build !linux && !darwin

package mux

// Waker is unavailable on this platform.
type Waker struct {
	token Token
}

// NewWaker always fails with ErrUnsupported on this platform.
func NewWaker(*Registry, Token) (*Waker, error) { return nil, ErrUnsupported }

func (w *Waker) Token() Token { return w.token }

func (*Waker) Wake() error { return ErrUnsupported }

func (*Waker) Close() error { return nil }
