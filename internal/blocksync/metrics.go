package blocksync

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "blocksync"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of peers that completed the handshake.
	Peers metrics.Gauge
	// Number of peers that connected but have not sent a valid status yet.
	HandshakingPeers metrics.Gauge
	// Number of peer reports sent to the transport, by reason.
	PeerReports metrics.Counter
	// Number of block requests sent.
	RequestsSent metrics.Counter
	// Number of blocks sent to peers.
	BlocksServed metrics.Counter
	// Number of blocks received from peers and imported.
	BlocksImported metrics.Counter
	// Number of messages that failed for local reasons.
	InternalErrors metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Peers: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "peers",
			Help:      "Number of peers that completed the handshake.",
		}, labels).With(labelsAndValues...),
		HandshakingPeers: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "handshaking_peers",
			Help:      "Number of peers waiting for a status message.",
		}, labels).With(labelsAndValues...),
		PeerReports: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "peer_reports",
			Help:      "Number of peers reported to the transport, by reason.",
		}, append(labels, "reason")).With(labelsAndValues...),
		RequestsSent: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "requests_sent",
			Help:      "Number of block requests sent.",
		}, labels).With(labelsAndValues...),
		BlocksServed: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "blocks_served",
			Help:      "Number of blocks sent to peers.",
		}, labels).With(labelsAndValues...),
		BlocksImported: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "blocks_imported",
			Help:      "Number of blocks received from peers and imported.",
		}, labels).With(labelsAndValues...),
		InternalErrors: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "internal_errors",
			Help:      "Number of messages that failed for local reasons.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Peers:            discard.NewGauge(),
		HandshakingPeers: discard.NewGauge(),
		PeerReports:      discard.NewCounter(),
		RequestsSent:     discard.NewCounter(),
		BlocksServed:     discard.NewCounter(),
		BlocksImported:   discard.NewCounter(),
		InternalErrors:   discard.NewCounter(),
	}
}
