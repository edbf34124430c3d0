// Package metrics exports Prometheus counters and gauges for the
// anchoring validator process (spec §2's C13), using the same
// prometheus/client_golang and grpc-ecosystem/go-grpc-prometheus stack the
// teacher's own go.mod already carries for its gRPC servers.
package metrics

import (
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
)

// Collectors groups every metric this service exports. One instance is
// built per process and registered once against a prometheus.Registerer.
type Collectors struct {
	ProposalsBuilt        prometheus.Counter
	SignaturesSubmitted   prometheus.Counter
	InsufficientFundsHits prometheus.Counter
	RelaySends            prometheus.Counter
	ConfirmationsObserved prometheus.Gauge
	ChainLength           prometheus.Gauge
	AuditFailures         prometheus.Counter
}

// New constructs the collector set, ready to be registered.
func New() *Collectors {
	return &Collectors{
		ProposalsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anchoring",
			Name:      "proposals_built_total",
			Help:      "Number of anchoring transaction proposals built by this validator's view of the chain.",
		}),
		SignaturesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anchoring",
			Name:      "signatures_submitted_total",
			Help:      "Number of SignInput submissions accepted by the host chain.",
		}),
		InsufficientFundsHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anchoring",
			Name:      "insufficient_funds_total",
			Help:      "Number of times the chain-update task or a control-plane proposal query observed an InsufficientFunds proposal state.",
		}),
		RelaySends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anchoring",
			Name:      "relay_sends_total",
			Help:      "Number of anchoring transactions handed to the Bitcoin relay for broadcast.",
		}),
		ConfirmationsObserved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "anchoring",
			Name:      "last_observed_confirmations",
			Help:      "Confirmation count the Bitcoin sync task last observed for the tracked transaction.",
		}),
		ChainLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "anchoring",
			Name:      "chain_length",
			Help:      "Number of finalized transactions in the anchoring chain, as last observed.",
		}),
		AuditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anchoring",
			Name:      "audit_failures_total",
			Help:      "Number of audit errors (IncorrectLect or LectNotFound) reported across all audit runs.",
		}),
	}
}

// MustRegister registers every collector against reg, panicking on a
// duplicate registration, matching prometheus.MustRegister's own idiom.
func (c *Collectors) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.ProposalsBuilt,
		c.SignaturesSubmitted,
		c.InsufficientFundsHits,
		c.RelaySends,
		c.ConfirmationsObserved,
		c.ChainLength,
		c.AuditFailures,
	)
}

// ServerInterceptors returns the grpc.UnaryServerInterceptor and
// grpc.StreamServerInterceptor pair that instrument the control gRPC
// surface (spec §6) with go-grpc-prometheus's standard request metrics.
func ServerInterceptors() (grpc.UnaryServerInterceptor, grpc.StreamServerInterceptor) {
	return grpc_prometheus.UnaryServerInterceptor, grpc_prometheus.StreamServerInterceptor
}
