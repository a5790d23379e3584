package quiclb

import (
	"crypto/aes"
	"fmt"

	"github.com/quic-go/quic-lb/internal/protocol"
	"github.com/quic-go/quic-lb/internal/utils"
)

// A CIDGenerator issues connection IDs that encode this server's ID and
// recovers server IDs from received connection IDs. It is immutable once
// built and safe for concurrent use.
type CIDGenerator struct {
	method                 Method
	rotationBits           uint8
	firstByteEncodesLength bool
	connIDLen              int
	serverID               uint64
	codec                  routingCodec

	tracer *Tracer
	logger utils.Logger
}

var _ ConnectionIDGenerator = &CIDGenerator{}

// NewCIDGenerator validates the configuration and builds a connection ID
// generator from it. A zero ConnectionIDLength is resolved to
// protocol.DefaultConnectionIDLength. The Config is copied and can be
// modified or discarded afterwards.
func NewCIDGenerator(conf *Config) (*CIDGenerator, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	connIDLen := conf.ConnectionIDLength
	if connIDLen == 0 {
		connIDLen = protocol.DefaultConnectionIDLength
		if err := conf.validateConnectionIDLen(connIDLen); err != nil {
			return nil, err
		}
	}
	// Expand the server ID to exactly ServerIDLength big-endian bytes.
	// Validate guarantees the value fits.
	serverID := make([]byte, conf.ServerIDLength)
	v := conf.ServerID
	for i := conf.ServerIDLength - 1; i >= 0; i-- {
		serverID[i] = byte(v)
		v >>= 8
	}

	var codec routingCodec
	switch conf.Method {
	case MethodClear:
		codec = &clearCodec{serverID: serverID}
	case MethodStreamCipher, MethodBlockCipher:
		block, err := aes.NewCipher(conf.EncryptionKey[:])
		if err != nil {
			return nil, fmt.Errorf("creating AES key schedule: %w", err)
		}
		if conf.Method == MethodStreamCipher {
			codec = &streamCipherCodec{block: block, nonceLen: conf.NonceLength, serverID: serverID}
		} else {
			codec = &blockCipherCodec{block: block, serverID: serverID}
		}
	}
	return &CIDGenerator{
		method:                 conf.Method,
		rotationBits:           conf.RotationBits,
		firstByteEncodesLength: conf.FirstByteEncodesLength,
		connIDLen:              connIDLen,
		serverID:               conf.ServerID,
		codec:                  codec,
		tracer:                 conf.Tracer,
		logger:                 utils.DefaultLogger,
	}, nil
}

// GenerateConnectionID generates a new connection ID of the configured
// length. The buffer is filled with fresh random bits first, so the nonce
// field and any server-use bytes carry entropy, then the routing information
// is encoded in place.
func (g *CIDGenerator) GenerateConnectionID() ([]byte, error) {
	cid, err := protocol.GenerateConnectionID(g.connIDLen)
	if err != nil {
		return nil, err
	}
	g.encode(cid)
	return cid, nil
}

// ConnectionIDLen returns the length of generated connection IDs.
func (g *CIDGenerator) ConnectionIDLen() int {
	return g.connIDLen
}

// EncodeConnectionID encodes the routing information into a prefilled
// connection ID buffer, in place. Callers that manage their own entropy for
// the nonce field and the server-use bytes use this instead of
// GenerateConnectionID. The buffer must have the configured length.
func (g *CIDGenerator) EncodeConnectionID(cid protocol.ConnectionID) error {
	if cid.Len() != g.connIDLen {
		return fmt.Errorf("connection ID has length %d, expected %d", cid.Len(), g.connIDLen)
	}
	g.encode(cid)
	return nil
}

func (g *CIDGenerator) encode(cid []byte) {
	writeFirstByte(cid, g.rotationBits, g.firstByteEncodesLength)
	g.codec.encode(cid)
	if g.tracer != nil && g.tracer.GeneratedConnectionID != nil {
		g.tracer.GeneratedConnectionID(g.method)
	}
	if g.logger.Debug() {
		g.logger.Debugf("issued connection ID %s (server ID 0x%x)", protocol.ConnectionID(cid), g.serverID)
	}
}

// ExtractServerID recovers the server ID from a received connection ID.
// It reports false for connection IDs that can't have been issued under this
// configuration. That is a routing outcome, not a fault: it usually means
// the connection ID belongs to another configuration or another server.
func (g *CIDGenerator) ExtractServerID(cid protocol.ConnectionID) (uint64, bool) {
	if cid.Len() != g.connIDLen {
		g.reject(RejectReasonLengthMismatch)
		return 0, false
	}
	if g.codec == nil {
		g.reject(RejectReasonUnknownMethod)
		return 0, false
	}
	sid := g.codec.decode(cid)
	if g.tracer != nil && g.tracer.ExtractedServerID != nil {
		g.tracer.ExtractedServerID(g.method, sid)
	}
	return sid, true
}

func (g *CIDGenerator) reject(reason RejectReason) {
	if g.tracer != nil && g.tracer.RejectedConnectionID != nil {
		g.tracer.RejectedConnectionID(reason)
	}
}
