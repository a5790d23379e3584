package protocol

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
)

// A ConnectionID in QUIC
type ConnectionID []byte

// MaxConnectionIDLen is the maximum length of a connection ID in QUIC v1 (RFC 9000).
const MaxConnectionIDLen = 20

// DefaultConnectionIDLength is the connection ID length used when the
// configuration doesn't specify one.
const DefaultConnectionIDLength = 8

// ErrInvalidConnectionIDLen is returned when a connection ID longer than
// MaxConnectionIDLen is requested.
var ErrInvalidConnectionIDLen = fmt.Errorf("connection ID exceeds maximum length of %d bytes", MaxConnectionIDLen)

// GenerateConnectionID generates a connection ID using cryptographic random
func GenerateConnectionID(len int) (ConnectionID, error) {
	if len > MaxConnectionIDLen {
		return nil, ErrInvalidConnectionIDLen
	}
	b := make([]byte, len)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return ConnectionID(b), nil
}

// ReadConnectionID reads a connection ID of length len from the given io.Reader.
// It returns io.EOF if there are not enough bytes to read.
func ReadConnectionID(r io.Reader, len int) (ConnectionID, error) {
	if len == 0 {
		return nil, nil
	}
	if len > MaxConnectionIDLen {
		return nil, ErrInvalidConnectionIDLen
	}
	c := make(ConnectionID, len)
	_, err := io.ReadFull(r, c)
	if err == io.ErrUnexpectedEOF {
		return nil, io.EOF
	}
	return c, err
}

// Equal says if two connection IDs are equal
func (c ConnectionID) Equal(other ConnectionID) bool {
	return bytes.Equal(c, other)
}

// Len returns the length of the connection ID in bytes
func (c ConnectionID) Len() int {
	return len(c)
}

// Bytes returns the byte representation
func (c ConnectionID) Bytes() []byte {
	return []byte(c)
}

func (c ConnectionID) String() string {
	if c.Len() == 0 {
		return "(empty)"
	}
	return fmt.Sprintf("%x", c.Bytes())
}
