package quiclb

import (
	"crypto/aes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/quic-go/quic-lb/internal/protocol"
)

// A Config describes how connection IDs encode the server ID.
// It is usually obtained from ParseConfig.
type Config struct {
	// RotationBits (0 to 3) are copied into the top two bits of every
	// connection ID's first byte. They allow key and config rollover without
	// breaking in-flight connections.
	RotationBits uint8
	// FirstByteEncodesLength puts the connection ID length (minus one) into
	// the low six bits of the first byte, so a receiver can determine the
	// length from the first byte alone.
	FirstByteEncodesLength bool
	// ConnectionIDLength is the total length of issued connection IDs.
	// 0 means protocol.DefaultConnectionIDLength.
	ConnectionIDLength int
	// Method selects the encoding.
	Method Method
	// ServerID identifies this server behind the load balancer.
	ServerID uint64
	// ServerIDLength is the number of bytes the server ID occupies in the
	// connection ID. ParseConfig derives it from the length of the hex
	// string, so leading zero bytes count towards it.
	ServerIDLength int
	// NonceLength is the length of the nonce field (stream cipher only),
	// 8 to 16 bytes.
	NonceLength int
	// EncryptionKey is the AES-128 key shared with the load balancer
	// (stream cipher and block cipher only).
	EncryptionKey [16]byte

	// Tracer is notified of generated, extracted and rejected connection
	// IDs. Optional.
	Tracer *Tracer
}

// ParseConfig parses a load balancer configuration string:
//
//	<rotation bits><length flag>[<connection ID length>]<method>-<server ID>[-<key>]
//
// where the rotation bits are a digit 0 to 3, the length flag is Y or N, the
// method is C (clear), S (stream cipher, optionally followed by the decimal
// nonce length) or B (block cipher), the server ID is 1 to 8 hex-encoded
// bytes and the key is 16 hex-encoded bytes, required for the stream and
// block cipher methods. Letters are case-insensitive. The entire string must
// be consumed.
//
// For example, "1N12S8-c0ffee-00112233445566778899aabbccddeeff" configures
// the stream cipher method with rotation bits 1, 12-byte connection IDs, an
// 8-byte nonce and the 3-byte server ID 0xc0ffee.
func ParseConfig(s string) (*Config, error) {
	conf := &Config{}
	if len(s) < 2 {
		return nil, &ParseError{Pos: len(s), Reason: "config too short"}
	}
	if c := s[0]; c >= '0' && c <= '3' {
		conf.RotationBits = c - '0'
	} else {
		return nil, &ParseError{Pos: 0, Reason: "rotation bits must be between 0 and 3"}
	}
	switch s[1] {
	case 'Y', 'y':
		conf.FirstByteEncodesLength = true
	case 'N', 'n':
	default:
		return nil, &ParseError{Pos: 1, Reason: "length flag must be Y or N"}
	}
	pos := 2
	connIDLen, pos, err := parseDecimal(s, pos)
	if err != nil {
		return nil, err
	}
	conf.ConnectionIDLength = connIDLen
	if pos >= len(s) {
		return nil, &ParseError{Pos: pos, Reason: "missing encoding method"}
	}
	method := s[pos]
	pos++
	switch method {
	case 'C', 'c':
		conf.Method = MethodClear
	case 'S', 's':
		conf.Method = MethodStreamCipher
		conf.NonceLength, pos, err = parseDecimal(s, pos)
		if err != nil {
			return nil, err
		}
	case 'B', 'b':
		conf.Method = MethodBlockCipher
	default:
		return nil, &ParseError{Pos: pos - 1, Reason: fmt.Sprintf("unknown encoding method %q", method)}
	}
	if pos >= len(s) || s[pos] != '-' {
		return nil, &ParseError{Pos: pos, Reason: "expected '-' before the server ID"}
	}
	pos++
	end := strings.IndexByte(s[pos:], '-')
	if end == -1 {
		end = len(s)
	} else {
		end += pos
	}
	sidHex := s[pos:end]
	if len(sidHex) == 0 || len(sidHex)%2 != 0 || len(sidHex) > 16 {
		return nil, &ParseError{Pos: pos, Reason: "server ID must be 1 to 8 hex-encoded bytes"}
	}
	sid, hexErr := hex.DecodeString(sidHex)
	if hexErr != nil {
		return nil, &ParseError{Pos: pos, Reason: "server ID is not valid hex"}
	}
	conf.ServerIDLength = len(sid)
	conf.ServerID = decodeServerID(sid)
	pos = end
	if conf.Method == MethodStreamCipher || conf.Method == MethodBlockCipher {
		if pos >= len(s) || s[pos] != '-' {
			return nil, &ParseError{Pos: pos, Reason: "missing encryption key"}
		}
		pos++
		if len(s)-pos < 2*len(conf.EncryptionKey) {
			return nil, &ParseError{Pos: pos, Reason: "encryption key must be 16 hex-encoded bytes"}
		}
		key, hexErr := hex.DecodeString(s[pos : pos+2*len(conf.EncryptionKey)])
		if hexErr != nil {
			return nil, &ParseError{Pos: pos, Reason: "encryption key is not valid hex"}
		}
		copy(conf.EncryptionKey[:], key)
		pos += 2 * len(conf.EncryptionKey)
	}
	if pos != len(s) {
		return nil, &ParseError{Pos: pos, Reason: "unexpected trailing characters"}
	}
	return conf, nil
}

// parseDecimal accumulates decimal digits starting at pos. It returns 0 if
// there are none. Values above 255 are a parse error, all length fields fit
// into a byte on the wire.
func parseDecimal(s string, pos int) (int, int, error) {
	var v int
	for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
		v = v*10 + int(s[pos]-'0')
		if v > 255 {
			return 0, 0, &ParseError{Pos: pos, Reason: "value exceeds 255"}
		}
		pos++
	}
	return v, pos, nil
}

// Validate checks the relationships between the configured parameters that
// the grammar can't express. A zero ConnectionIDLength is resolved by
// NewCIDGenerator and checked there.
func (c *Config) Validate() error {
	if c.RotationBits > 3 {
		return &ValidationError{Reason: "rotation bits must be between 0 and 3"}
	}
	if c.ServerIDLength < 1 || c.ServerIDLength > 16 {
		return &ValidationError{Reason: "server ID length must be between 1 and 16 bytes"}
	}
	if c.ServerIDLength < 8 && c.ServerID>>(8*uint(c.ServerIDLength)) != 0 {
		return &ValidationError{Reason: fmt.Sprintf("server ID 0x%x does not fit into %d bytes", c.ServerID, c.ServerIDLength)}
	}
	switch c.Method {
	case MethodClear:
	case MethodStreamCipher:
		if c.NonceLength < 8 || c.NonceLength > 16 {
			return &ValidationError{Reason: "nonce length must be between 8 and 16 bytes"}
		}
	case MethodBlockCipher:
		if c.ServerIDLength > 15 {
			return &ValidationError{Reason: "block cipher server IDs must not exceed 15 bytes"}
		}
	default:
		return &ValidationError{Reason: fmt.Sprintf("unknown encoding method %d", c.Method)}
	}
	if c.ConnectionIDLength != 0 {
		return c.validateConnectionIDLen(c.ConnectionIDLength)
	}
	return nil
}

// validateConnectionIDLen checks that connection IDs of the given length
// have room for the first byte, the nonce and the server ID.
func (c *Config) validateConnectionIDLen(connIDLen int) error {
	if connIDLen > protocol.MaxConnectionIDLen {
		return &ValidationError{Reason: fmt.Sprintf("connection ID length %d exceeds the maximum of %d bytes", connIDLen, protocol.MaxConnectionIDLen)}
	}
	if minLen := 1 + c.ServerIDLength + c.NonceLength; connIDLen < minLen {
		return &ValidationError{Reason: fmt.Sprintf("connection ID length %d is too short, the %s method needs at least %d bytes", connIDLen, c.Method, minLen)}
	}
	if c.Method == MethodBlockCipher && connIDLen < 1+aes.BlockSize {
		return &ValidationError{Reason: fmt.Sprintf("connection ID length %d is too short, the %s method needs at least %d bytes", connIDLen, c.Method, 1+aes.BlockSize)}
	}
	return nil
}
