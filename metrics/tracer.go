// Package metrics provides a quiclb.Tracer that exposes connection ID
// metrics via Prometheus.
package metrics

import (
	"errors"

	quiclb "github.com/quic-go/quic-lb"

	"github.com/prometheus/client_golang/prometheus"
)

const metricNamespace = "quiclb"

var (
	cidsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "cids_generated_total",
			Help:      "Connection IDs generated",
		},
		[]string{"method"},
	)
	serverIDsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "server_ids_extracted_total",
			Help:      "Server IDs extracted from connection IDs",
		},
		[]string{"method"},
	)
	cidsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "cids_rejected_total",
			Help:      "Connection IDs rejected",
		},
		[]string{"reason"},
	)
)

// NewTracer creates a new tracer using the default Prometheus registerer.
// It can be set on the Tracer field of a quiclb.Config.
func NewTracer() *quiclb.Tracer {
	return NewTracerWithRegisterer(prometheus.DefaultRegisterer)
}

// NewTracerWithRegisterer creates a new tracer using a given Prometheus registerer.
func NewTracerWithRegisterer(registerer prometheus.Registerer) *quiclb.Tracer {
	for _, c := range [...]prometheus.Collector{
		cidsGenerated,
		serverIDsExtracted,
		cidsRejected,
	} {
		if err := registerer.Register(c); err != nil {
			if ok := errors.As(err, &prometheus.AlreadyRegisteredError{}); !ok {
				panic(err)
			}
		}
	}

	return &quiclb.Tracer{
		GeneratedConnectionID: func(m quiclb.Method) {
			cidsGenerated.WithLabelValues(m.String()).Inc()
		},
		ExtractedServerID: func(m quiclb.Method, _ uint64) {
			serverIDsExtracted.WithLabelValues(m.String()).Inc()
		},
		RejectedConnectionID: func(reason quiclb.RejectReason) {
			cidsRejected.WithLabelValues(string(reason)).Inc()
		},
	}
}
