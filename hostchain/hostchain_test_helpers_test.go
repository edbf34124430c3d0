package hostchain

import (
	"testing"

	"github.com/bitanchor/anchoring/anchoring"
	"github.com/bitanchor/anchoring/btc"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func newFundingTx(pkScript []byte, value int64) btc.Tx {
	msg := wire.NewMsgTx(wire.TxVersion)
	msg.AddTxOut(wire.NewTxOut(value, pkScript))
	return btc.NewTx(msg)
}

func fixedSeed(b byte) []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func testValidators(t *testing.T, n int) []btc.PrivateKey {
	t.Helper()
	keys := make([]btc.PrivateKey, n)
	for i := 0; i < n; i++ {
		priv, err := btc.NewPrivateKey(fixedSeed(byte(i + 1)))
		require.NoError(t, err)
		keys[i] = priv
	}
	return keys
}

func testGenesis(t *testing.T, privs []btc.PrivateKey, feeRate int64, fundingValue int64) anchoring.Configuration {
	t.Helper()
	pubs := make([]btc.PublicKey, len(privs))
	for i, p := range privs {
		pubs[i] = p.PubKey()
	}
	cfg := anchoring.Configuration{
		Validators:      pubs,
		Interval:        10,
		FeeRatePerVByte: feeRate,
		Net:             anchoring.NetworkRegtest,
	}
	pkScript, err := cfg.PkScript()
	require.NoError(t, err)

	tx, err := btc.ParseTx(fundingTxBytes(t, pkScript, fundingValue))
	require.NoError(t, err)
	cfg.InitialFunding = &tx
	return cfg
}

func fundingTxBytes(t *testing.T, pkScript []byte, value int64) []byte {
	t.Helper()
	tx := newFundingTx(pkScript, value)
	return tx.Bytes()
}
