package relay

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/bitanchor/anchoring/btc"
)

func TestMemoryRelaySendThenDefaultsToMempool(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRelay()
	msg := wire.NewMsgTx(wire.TxVersion)
	msg.AddTxOut(wire.NewTxOut(1000, []byte{0x00, 0x14}))
	tx := btc.NewTx(msg)

	id, err := r.SendTransaction(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, tx.Id(), id)

	status, err := r.TransactionStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, Mempool, status.Kind)
	require.Len(t, r.Sent(), 1)
}

func TestMemoryRelayScriptedStatusOverridesDefault(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRelay()
	id, _ := btc.NewHash(make([]byte, 32))
	r.SetStatus(id, TransactionStatus{Kind: Committed, Confirmations: 6})

	status, err := r.TransactionStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, Committed, status.Kind)
	require.Equal(t, uint32(6), status.Confirmations)
}

func TestMemoryRelaySendErrorIsScriptable(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRelay()
	r.SendErr = errBoom{}

	msg := wire.NewMsgTx(wire.TxVersion)
	_, err := r.SendTransaction(ctx, btc.NewTx(msg))
	require.Error(t, err)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
