// Command anchorctl is the operator CLI for anchord's control-plane gRPC
// surface, generalizing cmd/lncli's getClient/getClientConn/command-table
// layout from the Lightning RPC to package controlrpc.
package main

import (
	"fmt"
	"os"

	"github.com/bitanchor/anchoring/controlrpc"
	"github.com/urfave/cli"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[anchorctl] %v\n", err)
	os.Exit(1)
}

func getClient(ctx *cli.Context) (*controlrpc.ControlClient, func()) {
	conn := getClientConn(ctx)
	return controlrpc.NewControlClient(conn), func() { conn.Close() }
}

func getClientConn(ctx *cli.Context) *grpc.ClientConn {
	var opts []grpc.DialOption
	if ctx.GlobalBool("insecure") {
		opts = append(opts, grpc.WithInsecure())
	} else {
		creds, err := credentials.NewClientTLSFromFile(ctx.GlobalString("tlscertpath"), "")
		if err != nil {
			fatal(err)
		}
		opts = append(opts, grpc.WithTransportCredentials(creds))
	}

	conn, err := grpc.Dial(ctx.GlobalString("rpcserver"), opts...)
	if err != nil {
		fatal(err)
	}
	return conn
}

func main() {
	app := cli.NewApp()
	app.Name = "anchorctl"
	app.Usage = "control plane for anchord"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rpcserver",
			Value: "localhost:10090",
			Usage: "host:port of anchord's control-plane server",
		},
		cli.StringFlag{
			Name:  "tlscertpath",
			Value: "anchord.cert",
			Usage: "path to anchord's TLS certificate",
		},
		cli.BoolFlag{
			Name:  "insecure",
			Usage: "dial without TLS, for a local/regtest anchord",
		},
	}
	app.Commands = []cli.Command{
		configCommand,
		proposalCommand,
		addFundsCommand,
		chainCommand,
		countCommand,
		auditCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
