package relay

import (
	"context"

	"github.com/bitanchor/anchoring/btc"
)

// Relay is the spec §6 Bitcoin relay RPC consumed by the Bitcoin sync task
// (C6).
type Relay interface {
	SendTransaction(ctx context.Context, tx btc.Tx) (btc.TxId, error)
	TransactionStatus(ctx context.Context, txid btc.TxId) (TransactionStatus, error)
}
