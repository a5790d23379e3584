package quiclb

import (
	"errors"
	"fmt"
)

var (
	// ErrGeneratorActive is returned by Transport.SetConnectionIDGenerator if
	// a connection ID generator is already installed on the transport.
	ErrGeneratorActive = errors.New("a connection ID generator is already installed")
	// ErrConnectionIDLenPinned is returned by Transport.SetConnectionIDGenerator
	// if the transport has active connections and the new generator uses a
	// different connection ID length. Changing the length would invalidate
	// connection IDs already issued to peers.
	ErrConnectionIDLenPinned = errors.New("connection ID length is pinned by existing connections")
)

// A ParseError is returned when a load balancer configuration string doesn't
// conform to the configuration grammar.
type ParseError struct {
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid load balancer config at position %d: %s", e.Pos, e.Reason)
}

// A ValidationError is returned when a load balancer configuration is
// syntactically well-formed, but its parameters are inconsistent.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid load balancer config: " + e.Reason
}
