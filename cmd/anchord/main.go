// Command anchord runs one validator's off-chain anchoring process: the
// chain-update and Bitcoin sync tasks, a control-plane gRPC server, and
// Prometheus metrics, generalizing lnd.go's lndMain into this service's own
// entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func anchordMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setLogLevel(btclogLevel(cfg.LogLevel))

	mainLog.Infof("starting anchord, network=%s", cfg.Network)

	app, err := newAnchordApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		mainLog.Info("received shutdown signal")
		cancel()
	}()

	return app.run(ctx)
}

func main() {
	if err := anchordMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
