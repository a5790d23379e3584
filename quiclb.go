// Package quiclb implements the server side of the compatible connection ID
// encoding defined in draft-ietf-quic-load-balancers.
//
// Servers sitting behind a stateless load balancer embed their server ID into
// every connection ID they issue. The load balancer recovers the server ID
// from an incoming packet's destination connection ID and routes the packet
// without keeping per-connection state. Three encodings are supported: a
// plaintext encoding, a stream cipher encoding that scrambles a nonce and the
// server ID together, and a block cipher encoding that encrypts a whole
// 16-byte block of the connection ID.
package quiclb

// Method is the connection ID encoding method.
type Method uint8

const (
	// MethodClear encodes the server ID in plaintext.
	MethodClear Method = iota
	// MethodStreamCipher obfuscates the server ID with a nonce-keyed stream cipher.
	MethodStreamCipher
	// MethodBlockCipher encrypts the server ID with AES-128.
	MethodBlockCipher
)

func (m Method) String() string {
	switch m {
	case MethodClear:
		return "clear"
	case MethodStreamCipher:
		return "stream_cipher"
	case MethodBlockCipher:
		return "block_cipher"
	default:
		return "unknown"
	}
}

// A ConnectionIDGenerator issues the connection IDs used by an endpoint.
// It uses the same contract as quic-go's ConnectionIDGenerator, so a
// *CIDGenerator can be plugged into an existing QUIC stack directly.
type ConnectionIDGenerator interface {
	// GenerateConnectionID generates a new connection ID.
	// Generated connection IDs must be unique and observers should not be
	// able to correlate two connection IDs.
	GenerateConnectionID() ([]byte, error)

	// ConnectionIDLen returns the length of connection IDs returned by
	// GenerateConnectionID.
	ConnectionIDLen() int
}
