package quiclb

import (
	"sync"

	"github.com/quic-go/quic-lb/internal/protocol"
	"github.com/quic-go/quic-lb/internal/utils"
)

// A Transport is the connection ID issuing side of a QUIC endpoint.
// It holds at most one connection ID generation policy at a time, and pins
// the connection ID length once connections exist: issued connection IDs
// stay routable for the lifetime of their connections.
//
// The zero value is a transport without a policy, issuing random connection
// IDs of the default length. Install a policy with
// SetConnectionIDGenerator before accepting connections and remove it with
// ClearConnectionIDGenerator at shutdown. Both serialize against each other
// and against GenerateConnectionID; neither is a hot path.
type Transport struct {
	mutex sync.Mutex

	connIDLen int
	generator ConnectionIDGenerator
	numConns  int
}

var _ ConnectionIDGenerator = &Transport{}

// SetConnectionIDGenerator installs gen as the transport's connection ID
// generation policy. It fails with ErrGeneratorActive if another policy is
// installed, and with ErrConnectionIDLenPinned if the transport has active
// connections and gen uses a different connection ID length.
func (t *Transport) SetConnectionIDGenerator(gen ConnectionIDGenerator) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.generator != nil {
		return ErrGeneratorActive
	}
	if t.numConns > 0 && t.connIDLen != gen.ConnectionIDLen() {
		return ErrConnectionIDLenPinned
	}
	t.connIDLen = gen.ConnectionIDLen()
	t.generator = gen
	utils.DefaultLogger.Infof("installed connection ID generator, connection ID length %d", t.connIDLen)
	return nil
}

// ClearConnectionIDGenerator removes a previously installed *CIDGenerator
// from the transport. It is a no-op if the installed policy is not a
// *CIDGenerator: the transport never discards policies it doesn't own.
func (t *Transport) ClearConnectionIDGenerator() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.generator.(*CIDGenerator); !ok {
		return
	}
	t.generator = nil
	utils.DefaultLogger.Infof("removed connection ID generator")
}

// GenerateConnectionID issues a connection ID using the installed policy, or
// random bytes of the transport's connection ID length if no policy is
// installed.
func (t *Transport) GenerateConnectionID() ([]byte, error) {
	t.mutex.Lock()
	gen := t.generator
	connIDLen := t.connIDLen
	t.mutex.Unlock()

	if gen != nil {
		return gen.GenerateConnectionID()
	}
	if connIDLen == 0 {
		connIDLen = protocol.DefaultConnectionIDLength
	}
	return protocol.GenerateConnectionID(connIDLen)
}

// ConnectionIDLen returns the length of the connection IDs the transport
// currently issues.
func (t *Transport) ConnectionIDLen() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.connIDLen == 0 {
		return protocol.DefaultConnectionIDLength
	}
	return t.connIDLen
}

// AddConnection records a new connection on the transport. The first
// connection pins the connection ID length.
func (t *Transport) AddConnection() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.numConns == 0 && t.connIDLen == 0 {
		t.connIDLen = protocol.DefaultConnectionIDLength
	}
	t.numConns++
}

// RemoveConnection records that a connection closed.
func (t *Transport) RemoveConnection() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.numConns == 0 {
		panic("quiclb: RemoveConnection called without a matching AddConnection")
	}
	t.numConns--
}
