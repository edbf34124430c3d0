package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/bitanchor/anchoring/anchoring"
	"github.com/bitanchor/anchoring/audit"
	"github.com/bitanchor/anchoring/btc"
	"github.com/bitanchor/anchoring/controlrpc"
	"github.com/bitanchor/anchoring/healthprobe"
	"github.com/bitanchor/anchoring/hostchain"
	"github.com/bitanchor/anchoring/keypool"
	"github.com/bitanchor/anchoring/metrics"
	"github.com/bitanchor/anchoring/relay"
	"github.com/bitanchor/anchoring/sync"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/lightningnetwork/lnd/cert"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/kvdb"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	clientv3 "go.etcd.io/etcd/client/v3"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

func parseNetwork(s string) anchoring.Network {
	switch s {
	case "mainnet":
		return anchoring.NetworkMainnet
	case "testnet3", "testnet":
		return anchoring.NetworkTestnet
	default:
		return anchoring.NetworkRegtest
	}
}

// genesisConfiguration builds the Configuration a freshly bootstrapped
// ledger starts from, out of the explicit --genesis.validator flags. It is
// never derived from the local key pool: a validator's own keys are only a
// subset of the full validator set, and every node bootstrapping the same
// ledger must agree on the full ordered list.
func genesisConfiguration(cfg *config) (anchoring.Configuration, error) {
	validators := make([]btc.PublicKey, len(cfg.GenesisValidators))
	for i, s := range cfg.GenesisValidators {
		pub, err := btc.PublicKeyFromHex(s)
		if err != nil {
			return anchoring.Configuration{}, fmt.Errorf("parsing --genesis.validator %q: %w", s, err)
		}
		validators[i] = pub
	}
	return anchoring.Configuration{
		Validators:      validators,
		Interval:        cfg.GenesisIntervalBlocks,
		FeeRatePerVByte: cfg.GenesisFeeRatePerVByte,
		Net:             parseNetwork(cfg.Network),
	}, nil
}

// openLedger builds either an etcd-backed or in-memory Ledger depending on
// cfg, following lnd.go's pattern of picking a concrete backend once up
// front from parsed config. Ledger choice is an operator-time config knob,
// not a compile-time one, per spec §9.
func openLedger(cfg *config) (hostchain.Ledger, error) {
	if len(cfg.EtcdEndpoints) == 0 {
		genesis, err := genesisConfiguration(cfg)
		if err != nil {
			return nil, err
		}
		mainLog.Info("no --etcd endpoints configured, using an in-memory ledger")
		return hostchain.NewMemoryLedger(genesis), nil
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.EtcdEndpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to etcd: %w", err)
	}
	ledger := hostchain.NewEtcdLedger(client, "anchoring/state")
	genesis, err := genesisConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ledger.Bootstrap(ctx, genesis); err != nil {
		return nil, fmt.Errorf("bootstrapping etcd ledger: %w", err)
	}
	return ledger, nil
}

// openBlockSource builds either an etcd-backed or in-memory BlockSource,
// mirroring openLedger's backend-selection pattern: the in-memory fake lets
// anchord run standalone (and every test drive OnBlock directly), while the
// etcd-backed one reads the host chain's published tip when this validator
// is wired into a real deployment alongside the rest of this package's
// etcd-backed Ledger.
func openBlockSource(cfg *config) (hostchain.BlockSource, error) {
	if len(cfg.EtcdEndpoints) == 0 {
		mainLog.Info("no --etcd endpoints configured, using a self-advancing in-memory block source")
		return hostchain.NewMemoryBlockSource(), nil
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.EtcdEndpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to etcd: %w", err)
	}
	return hostchain.NewEtcdBlockSource(client, "anchoring/hostchain"), nil
}

// openRelay builds either an RPC-backed or in-memory Relay, mirroring
// openLedger's backend-selection pattern.
func openRelay(cfg *config) (relay.Relay, error) {
	if cfg.BitcoinRPCHost == "" {
		rlyLog.Info("no --bitcoin.rpchost configured, using an in-memory relay")
		return relay.NewMemoryRelay(), nil
	}
	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.BitcoinRPCHost,
		User:         cfg.BitcoinRPCUser,
		Pass:         cfg.BitcoinRPCPass,
		HTTPPostMode: true,
		DisableTLS:   cfg.BitcoinRPCCert == "",
	}
	client, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to Bitcoin RPC: %w", err)
	}
	return relay.NewRPCRelay(client), nil
}

// anchordApp ties together the two off-chain sync tasks, the block-event
// bridge that drives the proposal state machine, the control-plane gRPC
// server, metrics, and health probing into one running process, the way
// lnd.go's lndMain assembles wallet, server, and RPC endpoint.
type anchordApp struct {
	cfg *config

	ledger      hostchain.Ledger
	api         hostchain.PrivateAPI
	sm          *hostchain.StateMachine
	blockSource hostchain.BlockSource
	relay       relay.Relay
	metrics     *metrics.Collectors
	grpc        *grpc.Server
}

func newAnchordApp(cfg *config) (*anchordApp, error) {
	params := parseNetwork(cfg.Network).Params()

	if _, err := keypool.FromWIF(cfg.WalletWIFs, params); err != nil {
		return nil, fmt.Errorf("loading wallet keys: %w", err)
	}

	ledger, err := openLedger(cfg)
	if err != nil {
		return nil, err
	}
	r, err := openRelay(cfg)
	if err != nil {
		return nil, err
	}
	blockSource, err := openBlockSource(cfg)
	if err != nil {
		return nil, err
	}

	mx := metrics.New()
	reg := prometheus.NewRegistry()
	mx.MustRegister(reg)

	api := hostchain.NewPrivateAPI(ledger)

	if err := ensureTLSCert(cfg); err != nil {
		return nil, fmt.Errorf("preparing TLS cert: %w", err)
	}

	unary, stream := metrics.ServerInterceptors()
	var serverOpts []grpc.ServerOption
	if cfg.TLSCertPath != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCertPath, cfg.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("loading TLS cert: %w", err)
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
	}
	serverOpts = append(serverOpts,
		grpc.UnaryInterceptor(unary),
		grpc.StreamInterceptor(stream))
	grpcServer := grpc.NewServer(serverOpts...)
	controlrpc.RegisterControlServer(grpcServer, newControlServer(ledger, r, nil, mx))

	return &anchordApp{
		cfg:         cfg,
		ledger:      ledger,
		api:         api,
		sm:          hostchain.NewStateMachine(ledger),
		blockSource: blockSource,
		relay:       r,
		metrics:     mx,
		grpc:        grpcServer,
	}, nil
}

// run starts every task and blocks until ctx is canceled or the control-plane
// gRPC server stops with an error. Errors the tasks report on errs are
// logged, and each task tries again on its next tick.
func (a *anchordApp) run(ctx context.Context) error {
	params := parseNetwork(a.cfg.Network).Params()
	keys, err := keypool.FromWIF(a.cfg.WalletWIFs, params)
	if err != nil {
		return err
	}

	cursorDB, err := kvdb.Create(kvdb.BoltBackendName, "anchord-cursor.db", true, kvdb.DefaultDBTimeout)
	if err != nil {
		mainLog.Warnf("opening cursor store: %v, falling back to an in-memory cursor", err)
	}
	var cursor sync.CursorStore
	if cursorDB != nil {
		cursor = sync.NewKVCursorStore(cursorDB)
	} else {
		cursor = sync.NewMemoryCursorStore()
	}

	errs := make(chan error, 3)

	updateTask := sync.NewChainUpdateTask(keys, a.api, ticker.New(a.cfg.ChainUpdateInterval), clock.NewDefaultClock())
	syncTask := sync.NewBitcoinSyncTask(a.api, a.relay, cursor, ticker.New(a.cfg.BitcoinSyncInterval), clock.NewDefaultClock())
	updateTask.SetMetrics(a.metrics)
	syncTask.SetMetrics(a.metrics)

	// Each task's own Run loop only ever reports failures on errs, never
	// retries internally (spec §5); errgroup just gives the task goroutines
	// one shared wait point alongside ctx cancellation.
	ctx, cancel := context.WithCancel(ctx)
	var tasks errgroup.Group
	tasks.Go(func() error { updateTask.Run(ctx, errs); return nil })
	tasks.Go(func() error { syncTask.Run(ctx, errs); return nil })
	tasks.Go(func() error { a.runBlockBridge(ctx, ticker.New(a.cfg.ChainUpdateInterval), errs); return nil })
	defer tasks.Wait()
	defer cancel()

	monitor := healthprobe.NewMonitor(healthprobe.DefaultConfig(), a.ledger, a.relay, func(subsystem string) {
		healthLog.Errorf("subsystem unhealthy: %s", subsystem)
	})
	if err := monitor.Start(); err != nil {
		mainLog.Warnf("starting health monitor: %v", err)
	}

	a.auditOnce(ctx)

	lis, err := net.Listen("tcp", a.cfg.RPCListen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.RPCListen, err)
	}
	serveErr := make(chan error, 1)
	go func() {
		rpcsLog.Infof("control-plane gRPC server listening on %s", lis.Addr())
		if err := a.grpc.Serve(lis); err != nil {
			serveErr <- err
		}
	}()

	go func() {
		mainLog.Infof("metrics server listening on %s", a.cfg.MetricsListen)
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(a.cfg.MetricsListen, nil); err != nil {
			mainLog.Warnf("metrics server stopped: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			a.grpc.GracefulStop()
			return nil
		case err := <-errs:
			syncLog.Errorf("task iteration failed: %v", err)
		case err := <-serveErr:
			a.grpc.GracefulStop()
			return err
		}
	}
}

// auditOnce runs one audit pass, records the chain length and logs every
// audit error it finds. run calls it once, at startup.
func (a *anchordApp) auditOnce(ctx context.Context) {
	state, err := a.sm.Snapshot(ctx)
	if err != nil {
		auditLog.Errorf("snapshot failed: %v", err)
		return
	}
	a.metrics.ChainLength.Set(float64(state.Chain.Len()))
	for _, e := range audit.CheckChain(ctx, state, a.relay, nil) {
		auditLog.Warnf("audit: %v", e)
		a.metrics.AuditFailures.Inc()
	}
}

// runBlockBridge polls blockSource on every tick and feeds each new host
// chain block into the proposal state machine. This is the only path that
// ever drives StateMachine.OnBlock outside of tests: without it, a running
// validator would never build, discard, or advance an anchoring proposal
// (spec §4.4's block hook). Like the other two tasks, a failed attempt is
// reported on errs and the loop continues rather than retrying mid-tick.
func (a *anchordApp) runBlockBridge(ctx context.Context, t ticker.Ticker, errs chan<- error) {
	t.Resume()
	defer t.Stop()
	var lastHeight uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Ticks():
			height, hash, err := a.blockSource.LatestBlock(ctx)
			if err != nil {
				select {
				case errs <- fmt.Errorf("polling host chain block source: %w", err):
				case <-ctx.Done():
					return
				}
				continue
			}
			if height <= lastHeight {
				continue
			}
			lastHeight = height
			if err := a.sm.OnBlock(ctx, height, hash); err != nil {
				select {
				case errs <- fmt.Errorf("OnBlock(%d): %w", height, err):
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// ensureTLSCert generates a self-signed certificate pair for the
// control-plane server on first run, the same one-time bootstrap lnd.go's
// own TLS setup performs via this package, rather than asking every
// operator to supply their own cert before anchord will start.
func ensureTLSCert(cfg *config) error {
	if cfg.TLSCertPath == "" {
		return nil
	}
	if _, err := os.Stat(cfg.TLSCertPath); err == nil {
		return nil
	}

	certBytes, keyBytes, err := cert.GenCertPair(
		"anchord autogenerated cert",
		"localhost",
		nil,
		nil,
		false,
		false,
		24*time.Hour*365,
	)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.TLSCertPath, certBytes, 0644); err != nil {
		return err
	}
	return os.WriteFile(cfg.TLSKeyPath, keyBytes, 0600)
}
