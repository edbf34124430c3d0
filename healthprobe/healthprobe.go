// Package healthprobe periodically probes the host-chain RPC and the
// Bitcoin relay for reachability, independent of the sync tasks' own
// processing loops, using
// github.com/lightningnetwork/lnd/healthcheck the way the teacher wires it
// up for its own chain-backend and wallet-unlock liveness checks. Per
// spec §5's "no internal retry" rule, a probe failure is logged and
// exported, never fed back into the sync tasks to trigger a retry.
package healthprobe

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/healthcheck"

	"github.com/bitanchor/anchoring/btc"
	"github.com/bitanchor/anchoring/hostchain"
	"github.com/bitanchor/anchoring/relay"
)

// Config tunes how often and how patiently each probe runs.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
	Backoff  time.Duration
	Retries  int
}

// DefaultConfig matches the cadence the teacher uses for its own chain
// backend health check.
func DefaultConfig() Config {
	return Config{
		Interval: time.Minute,
		Timeout:  10 * time.Second,
		Backoff:  30 * time.Second,
		Retries:  2,
	}
}

// NewMonitor builds an *healthcheck.Monitor with one observation each for
// the host-chain ledger and the Bitcoin relay. onUnhealthy is invoked with
// a human-readable subsystem name whenever an observation exhausts its
// retries, mirroring the teacher's own shutdown-on-persistent-failure
// callback.
func NewMonitor(cfg Config, ledger hostchain.Ledger, r relay.Relay, onUnhealthy func(subsystem string)) *healthcheck.Monitor {
	hostChainCheck := healthcheck.NewObservation(
		"hostchain",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			defer cancel()
			_, _, err := ledger.Load(ctx)
			return err
		},
		cfg.Interval,
		cfg.Timeout,
		cfg.Backoff,
		cfg.Retries,
	)

	relayCheck := healthcheck.NewObservation(
		"bitcoin-relay",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			defer cancel()
			// An unresolvable hash is expected to answer Unknown, not
			// error; the probe only cares that the relay answers at
			// all within the timeout.
			_, err := r.TransactionStatus(ctx, probeTxId)
			return err
		},
		cfg.Interval,
		cfg.Timeout,
		cfg.Backoff,
		cfg.Retries,
	)

	return healthcheck.NewMonitor(&healthcheck.Config{
		Checks: []*healthcheck.Observation{hostChainCheck, relayCheck},
		Shutdown: func(reason string, args ...interface{}) {
			onUnhealthy(reason)
		},
	})
}

// probeTxId is an all-zero placeholder id used purely to exercise the
// relay's status RPC round trip; real sync tasks always query concrete
// chain transaction ids instead.
var probeTxId btc.TxId
