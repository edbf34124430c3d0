package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"

	"github.com/bitanchor/anchoring/controlrpc"
	"github.com/urfave/cli"
)

func printJSON(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		fatal(err)
		return
	}
	var out bytes.Buffer
	json.Indent(&out, b, "", "\t")
	out.WriteTo(os.Stdout)
	fmt.Println()
}

var configCommand = cli.Command{
	Name:   "config",
	Usage:  "shows the currently active anchoring configuration.",
	Action: showConfig,
}

func showConfig(ctx *cli.Context) error {
	client, cleanUp := getClient(ctx)
	defer cleanUp()

	reply, err := client.Config(context.Background(), &controlrpc.ConfigRequest{})
	if err != nil {
		return err
	}
	printJSON(reply)
	return nil
}

var proposalCommand = cli.Command{
	Name:   "proposal",
	Usage:  "shows the currently open anchoring proposal, if any.",
	Action: showProposal,
}

func showProposal(ctx *cli.Context) error {
	client, cleanUp := getClient(ctx)
	defer cleanUp()

	reply, err := client.AnchoringProposal(context.Background(), &controlrpc.AnchoringProposalRequest{})
	if err != nil {
		return err
	}
	printJSON(reply)
	return nil
}

var addFundsCommand = cli.Command{
	Name:      "add-funds",
	Usage:     "submits a raw funding transaction to the anchoring chain's funding queue.",
	ArgsUsage: "tx-hex-file",
	Action:    addFunds,
}

func addFunds(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("add-funds requires a path to a file holding the raw tx hex")
	}
	raw, err := ioutil.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}

	client, cleanUp := getClient(ctx)
	defer cleanUp()

	reply, err := client.AddFunds(context.Background(), &controlrpc.AddFundsRequest{TxHex: string(raw)})
	if err != nil {
		return err
	}
	printJSON(reply)
	return nil
}

var chainCommand = cli.Command{
	Name:      "chain",
	Usage:     "shows the confirmed anchoring-chain transaction at the given index.",
	ArgsUsage: "index",
	Action:    showChain,
}

func showChain(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("chain requires a single index argument")
	}
	idx, err := strconv.ParseUint(ctx.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid index: %w", err)
	}

	client, cleanUp := getClient(ctx)
	defer cleanUp()

	reply, err := client.Chain(context.Background(), &controlrpc.ChainRequest{Index: idx})
	if err != nil {
		return err
	}
	printJSON(reply)
	return nil
}

var countCommand = cli.Command{
	Name:   "count",
	Usage:  "shows how many transactions the confirmed anchoring chain holds.",
	Action: showCount,
}

func showCount(ctx *cli.Context) error {
	client, cleanUp := getClient(ctx)
	defer cleanUp()

	reply, err := client.TransactionsCount(context.Background(), &controlrpc.TransactionsCountRequest{})
	if err != nil {
		return err
	}
	printJSON(reply)
	return nil
}

var auditCommand = cli.Command{
	Name:   "audit",
	Usage:  "runs one audit pass and reports any inconsistencies found.",
	Action: runAudit,
}

func runAudit(ctx *cli.Context) error {
	client, cleanUp := getClient(ctx)
	defer cleanUp()

	reply, err := client.Audit(context.Background(), &controlrpc.AuditRequest{})
	if err != nil {
		return err
	}
	printJSON(reply)
	if len(reply.Errors) > 0 {
		os.Exit(1)
	}
	return nil
}
