//go:build !linux && !darwin

package mux

import (
	"time"
)

type selector struct{}

func newSelector() (*selector, error) { return nil, ErrUnsupported }

func (*selector) register(int, Token, Interest) error   { return ErrUnsupported }
func (*selector) reregister(int, Token, Interest) error { return ErrUnsupported }
func (*selector) deregister(int) error                  { return ErrUnsupported }
func (*selector) close() error                          { return ErrUnsupported }

func (*selector) wait(*Events, time.Duration) (bool, error) { return false, ErrUnsupported }
