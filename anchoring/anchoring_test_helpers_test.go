package anchoring

import (
	"testing"

	"github.com/bitanchor/anchoring/btc"
	"github.com/stretchr/testify/require"
)

// fixedSeed returns a deterministic, non-zero 32-byte scalar for test key
// generation, mirroring package btc's test helper of the same name.
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

func testConfig(t *testing.T, privs []btc.PrivateKey, feeRate int64) Configuration {
	t.Helper()
	pubs := make([]btc.PublicKey, len(privs))
	for i, p := range privs {
		pubs[i] = p.PubKey()
	}
	return Configuration{
		Validators:      pubs,
		Interval:        10,
		FeeRatePerVByte: feeRate,
		Net:             NetworkRegtest,
	}
}

// signAll has every validator sign every input of the proposal, in
// validator order, and returns the resulting SignatureSet.
func signAll(t *testing.T, p Proposal, privs []btc.PrivateKey) *SignatureSet {
	t.Helper()
	set := NewSignatureSet(p)
	for i := 0; i < p.Tx.NumInputs(); i++ {
		sighash, err := p.SigHash(i)
		require.NoError(t, err)
		for vIdx, priv := range privs {
			sig, err := priv.Sign(sighash)
			require.NoError(t, err)
			require.NoError(t, set.SignInput(i, vIdx, priv.PubKey(), sig))
		}
	}
	return set
}
