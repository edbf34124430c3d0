package btc

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestTxRoundTrip(t *testing.T) {
	msg := wire.NewMsgTx(wire.TxVersion)
	msg.AddTxOut(wire.NewTxOut(1000, []byte{0x00, 0x14, 1, 2, 3}))
	tx := NewTx(msg)

	encoded := tx.Bytes()
	decoded, err := ParseTx(encoded)
	require.NoError(t, err)
	require.True(t, tx.Equal(decoded))
	require.Equal(t, tx.Id(), decoded.Id())

	hexDecoded, err := ParseTxHex(tx.Hex())
	require.NoError(t, err)
	require.True(t, tx.Equal(hexDecoded))
}

func TestTxFindOutput(t *testing.T) {
	script := []byte{0x00, 0x20, 9, 9, 9}
	msg := wire.NewMsgTx(wire.TxVersion)
	msg.AddTxOut(wire.NewTxOut(100, []byte{0x00, 0x14}))
	msg.AddTxOut(wire.NewTxOut(200, script))
	tx := NewTx(msg)

	idx, ok := tx.FindOutput(script)
	require.True(t, ok)
	require.Equal(t, 1, idx)

	_, ok = tx.FindOutput([]byte{0xde, 0xad})
	require.False(t, ok)
}

func TestTxCloneIsIndependent(t *testing.T) {
	msg := wire.NewMsgTx(wire.TxVersion)
	msg.AddTxOut(wire.NewTxOut(1, nil))
	tx := NewTx(msg)
	clone := tx.Clone()

	clone.MsgTx().TxOut[0].Value = 42
	require.Equal(t, int64(1), tx.MsgTx().TxOut[0].Value)
}
