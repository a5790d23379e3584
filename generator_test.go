package quiclb

import (
	"testing"

	"github.com/quic-go/quic-lb/internal/protocol"
	"github.com/quic-go/quic-lb/internal/utils"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

const testKey = "000102030405060708090a0b0c0d0e0f"

func newGenerator(t *testing.T, conf string) *CIDGenerator {
	t.Helper()
	c, err := ParseConfig(conf)
	require.NoError(t, err)
	g, err := NewCIDGenerator(c)
	require.NoError(t, err)
	return g
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name     string
		conf     string
		serverID uint64
	}{
		{"clear", "0Y8C-c0ffee", 0xc0ffee},
		{"clear with leading zeros", "0N10C-0001", 0x0001},
		{"stream cipher", "1N12S8-0102-" + testKey, 0x0102},
		{"stream cipher long nonce", "2N20S16-a1b2c3-" + testKey, 0xa1b2c3},
		{"stream cipher 8-byte server ID", "3Y20S11-a1b2c3d4e5f6a7b8-" + testKey, 0xa1b2c3d4e5f6a7b8},
		{"block cipher", "1Y17B-3e99-" + testKey, 0x3e99},
		{"block cipher max length", "0N20B-3e-" + testKey, 0x3e},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := newGenerator(t, tc.conf)
			for i := 0; i < 50; i++ {
				cid, err := g.GenerateConnectionID()
				require.NoError(t, err)
				require.Len(t, cid, g.ConnectionIDLen())
				sid, ok := g.ExtractServerID(cid)
				require.True(t, ok)
				require.Equal(t, tc.serverID, sid)
			}
		})
	}
}

func TestGeneratedFirstByte(t *testing.T) {
	g := newGenerator(t, "2Y17B-3e99-"+testKey)
	cid, err := g.GenerateConnectionID()
	require.NoError(t, err)
	require.Equal(t, byte(2), cid[0]>>6)
	require.Equal(t, byte(16), cid[0]&0x3f)
}

func TestEncodeConnectionIDInPlace(t *testing.T) {
	g := newGenerator(t, "1N14S8-0102-"+testKey)

	rng := rand.New(rand.NewSource(42))
	cid := make(protocol.ConnectionID, 14)
	rng.Read(cid)
	prefill := append(protocol.ConnectionID{}, cid...)

	require.NoError(t, g.EncodeConnectionID(cid))
	// low six bits of the first byte and the server-use bytes keep the
	// caller's entropy
	require.Equal(t, byte(1), cid[0]>>6)
	require.Equal(t, prefill[0]&0x3f, cid[0]&0x3f)
	require.Equal(t, prefill[11:], cid[11:])

	sid, ok := g.ExtractServerID(cid)
	require.True(t, ok)
	require.Equal(t, uint64(0x0102), sid)
}

func TestEncodeConnectionIDRejectsWrongLength(t *testing.T) {
	g := newGenerator(t, "0Y8C-c0ffee")
	err := g.EncodeConnectionID(make(protocol.ConnectionID, 9))
	require.ErrorContains(t, err, "length 9, expected 8")
}

func TestExtractServerIDRejectsWrongLength(t *testing.T) {
	g := newGenerator(t, "0Y8C-c0ffee")
	cid, err := g.GenerateConnectionID()
	require.NoError(t, err)

	_, ok := g.ExtractServerID(cid[:7])
	require.False(t, ok)
	_, ok = g.ExtractServerID(append(protocol.ConnectionID{}, make([]byte, 9)...))
	require.False(t, ok)
	_, ok = g.ExtractServerID(nil)
	require.False(t, ok)
}

// A generator that wasn't built by NewCIDGenerator has no codec and rejects
// every connection ID.
func TestExtractServerIDWithoutCodec(t *testing.T) {
	var rejected []RejectReason
	g := &CIDGenerator{
		connIDLen: 4,
		logger:    utils.DefaultLogger,
		tracer: &Tracer{
			RejectedConnectionID: func(r RejectReason) { rejected = append(rejected, r) },
		},
	}
	_, ok := g.ExtractServerID(make(protocol.ConnectionID, 4))
	require.False(t, ok)
	require.Equal(t, []RejectReason{RejectReasonUnknownMethod}, rejected)
}

func TestLeadingZeroServerIDKeepsItsWidth(t *testing.T) {
	g := newGenerator(t, "0N10C-0001")
	cid, err := g.GenerateConnectionID()
	require.NoError(t, err)
	require.Equal(t, byte(0x00), cid[1])
	require.Equal(t, byte(0x01), cid[2])

	sid, ok := g.ExtractServerID(cid)
	require.True(t, ok)
	require.Equal(t, uint64(1), sid)
}

func TestDefaultConnectionIDLength(t *testing.T) {
	g := newGenerator(t, "0NC-01")
	require.Equal(t, protocol.DefaultConnectionIDLength, g.ConnectionIDLen())

	// the resolved default is validated like an explicit length
	c, err := ParseConfig("0NS8-01-" + testKey)
	require.NoError(t, err)
	_, err = NewCIDGenerator(c)
	require.ErrorContains(t, err, "too short")
}

func TestNewCIDGeneratorRejectsInvalidConfigs(t *testing.T) {
	for _, tc := range []struct {
		name string
		conf string
	}{
		{"block cipher too short", "0N16B-0102-" + testKey},
		{"nonce out of range", "0N20S7-0102-" + testKey},
		{"clear too short", "0Y2C-0102"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, err := ParseConfig(tc.conf)
			require.NoError(t, err)
			_, err = NewCIDGenerator(c)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}

	t.Run("server ID too wide", func(t *testing.T) {
		_, err := NewCIDGenerator(&Config{
			ConnectionIDLength: 4,
			Method:             MethodClear,
			ServerID:           0x010203,
			ServerIDLength:     2,
		})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestGeneratorTracer(t *testing.T) {
	var generated []Method
	var extracted []uint64
	c, err := ParseConfig("1Y17B-3e99-" + testKey)
	require.NoError(t, err)
	c.Tracer = &Tracer{
		GeneratedConnectionID: func(m Method) { generated = append(generated, m) },
		ExtractedServerID:     func(_ Method, sid uint64) { extracted = append(extracted, sid) },
	}
	g, err := NewCIDGenerator(c)
	require.NoError(t, err)

	cid, err := g.GenerateConnectionID()
	require.NoError(t, err)
	_, ok := g.ExtractServerID(cid)
	require.True(t, ok)
	require.Equal(t, []Method{MethodBlockCipher}, generated)
	require.Equal(t, []uint64{0x3e99}, extracted)
}
