package main

import (
	"fmt"
	"time"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultRPCListen     = "localhost:10090"
	defaultMetricsListen = "localhost:10091"
	defaultLogLevel      = "info"
)

// config mirrors lnd.go's loadConfig/config struct, generalized to this
// process's dependencies: an etcd or in-memory ledger, a Bitcoin relay
// reachable over RPC or faked in-memory, a WIF key pool, and the two
// interval knobs the sync tasks tick on.
type config struct {
	RPCListen     string `long:"rpclisten" description:"host:port the control-plane gRPC server listens on"`
	MetricsListen string `long:"metricslisten" description:"host:port the Prometheus /metrics endpoint listens on"`
	LogLevel      string `long:"loglevel" description:"one of trace, debug, info, warn, error, critical"`

	Network string `long:"network" description:"mainnet, testnet3, or regtest"`

	EtcdEndpoints []string `long:"etcd" description:"etcd endpoint(s); when unset, an in-memory ledger is used instead"`

	BitcoinRPCHost string `long:"bitcoin.rpchost" description:"btcd/bitcoind RPC host:port; when unset, an in-memory relay is used instead"`
	BitcoinRPCUser string `long:"bitcoin.rpcuser"`
	BitcoinRPCPass string `long:"bitcoin.rpcpass"`
	BitcoinRPCCert string `long:"bitcoin.rpccert" description:"path to the RPC server's TLS certificate"`

	WalletWIFs []string `long:"wif" description:"WIF-encoded private key this validator holds; may be repeated"`

	GenesisValidators      []string `long:"genesis.validator" description:"hex-encoded compressed validator public key, in order; used only to bootstrap a fresh ledger"`
	GenesisIntervalBlocks  uint64   `long:"genesis.interval" description:"anchoring interval, in host-chain blocks, for a freshly bootstrapped ledger"`
	GenesisFeeRatePerVByte int64    `long:"genesis.feerate" description:"fee rate in satoshis per vbyte, for a freshly bootstrapped ledger"`

	ChainUpdateInterval time.Duration `long:"chainupdateinterval" description:"how often the chain-update task checks for a signable proposal"`
	BitcoinSyncInterval time.Duration `long:"bitcoinsyncinterval" description:"how often the Bitcoin sync task checks relay status"`

	TLSCertPath string `long:"tlscertpath" description:"self-signed TLS certificate path for the control-plane server"`
	TLSKeyPath  string `long:"tlskeypath"`
}

func defaultConfig() config {
	return config{
		RPCListen:              defaultRPCListen,
		MetricsListen:          defaultMetricsListen,
		LogLevel:               defaultLogLevel,
		Network:                "regtest",
		ChainUpdateInterval:    30 * time.Second,
		BitcoinSyncInterval:    30 * time.Second,
		GenesisIntervalBlocks:  1000,
		GenesisFeeRatePerVByte: 10,
		TLSCertPath:            "anchord.cert",
		TLSKeyPath:             "anchord.key",
	}
}

// loadConfig parses command-line flags over the defaults, following
// lnd.go's loadConfig/flags.Default pattern.
func loadConfig() (*config, error) {
	cfg := defaultConfig()
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}
	if len(cfg.WalletWIFs) == 0 {
		return nil, fmt.Errorf("at least one --wif is required")
	}
	return &cfg, nil
}
