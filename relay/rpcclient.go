package relay

import (
	"context"

	"github.com/bitanchor/anchoring/btc"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
)

// RPCRelay implements Relay against a bitcoind- or btcd-compatible JSON-RPC
// node via github.com/btcsuite/btcd/rpcclient, generalizing
// chainntfs/chainntfs.go's use of the same client from an event-subscription
// API to the simpler poll-based TransactionStatus this service calls for.
type RPCRelay struct {
	client *rpcclient.Client
}

// NewRPCRelay wraps an already-connected rpcclient.Client. Connection
// lifecycle (Connect/Shutdown) is the caller's responsibility, mirroring
// how the teacher's chain backends are wired up in chainregistry.go.
func NewRPCRelay(client *rpcclient.Client) *RPCRelay {
	return &RPCRelay{client: client}
}

func (r *RPCRelay) SendTransaction(ctx context.Context, tx btc.Tx) (btc.TxId, error) {
	hash, err := r.client.SendRawTransaction(tx.MsgTx(), false)
	if err != nil {
		return btc.TxId{}, err
	}
	return btc.Hash(*hash), nil
}

func (r *RPCRelay) TransactionStatus(ctx context.Context, txid btc.TxId) (TransactionStatus, error) {
	hash := chainhash.Hash(txid)
	result, err := r.client.GetRawTransactionVerbose(&hash)
	if err != nil {
		// The node has no knowledge of this transaction (pruned,
		// never relayed, or rejected); per spec §4.6 this is not an
		// error the sync task should propagate, it simply means
		// Unknown and the task retransmits.
		return TransactionStatus{Kind: Unknown}, nil
	}
	if result.Confirmations == 0 {
		return TransactionStatus{Kind: Mempool}, nil
	}
	return TransactionStatus{Kind: Committed, Confirmations: uint32(result.Confirmations)}, nil
}
