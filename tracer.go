package quiclb

// A RejectReason says why a connection ID was rejected by ExtractServerID.
type RejectReason string

const (
	// RejectReasonLengthMismatch: the connection ID's length doesn't match
	// the configured connection ID length.
	RejectReasonLengthMismatch RejectReason = "length_mismatch"
	// RejectReasonUnknownMethod: the generator carries no codec. This can
	// only happen for a generator that wasn't built by NewCIDGenerator.
	RejectReasonUnknownMethod RejectReason = "unknown_method"
)

// A Tracer records connection ID events on a CIDGenerator.
// All callbacks are optional. Callbacks must not modify their arguments and
// must be safe for concurrent use. The metrics package provides a Tracer
// backed by Prometheus counters.
type Tracer struct {
	// GeneratedConnectionID is called for every connection ID encoded by the
	// generator.
	GeneratedConnectionID func(Method)
	// ExtractedServerID is called when a server ID was recovered from a
	// connection ID.
	ExtractedServerID func(Method, uint64)
	// RejectedConnectionID is called when ExtractServerID rejects a
	// connection ID.
	RejectedConnectionID func(RejectReason)
}
