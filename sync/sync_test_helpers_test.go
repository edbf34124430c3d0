package sync

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/bitanchor/anchoring/anchoring"
	"github.com/bitanchor/anchoring/btc"
	"github.com/bitanchor/anchoring/hostchain"
)

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

func newFundingTx(pkScript []byte, value int64) btc.Tx {
	msg := wire.NewMsgTx(wire.TxVersion)
	msg.AddTxOut(wire.NewTxOut(value, pkScript))
	return btc.NewTx(msg)
}

// testGenesis builds a Configuration with the given fee rate and an
// InitialFunding transaction paying its own multi-sig address, unless
// fundingValue is 0 in which case no funding transaction is attached at
// all (spec §8 scenario 2, "no initial funds").
func testGenesis(t *testing.T, privs []btc.PrivateKey, interval, feeRate, fundingValue int64) anchoring.Configuration {
	t.Helper()
	pubs := make([]btc.PublicKey, len(privs))
	for i, p := range privs {
		pubs[i] = p.PubKey()
	}
	cfg := anchoring.Configuration{
		Validators:      pubs,
		Interval:        interval,
		FeeRatePerVByte: feeRate,
		Net:             anchoring.NetworkRegtest,
	}
	if fundingValue > 0 {
		pkScript, err := cfg.PkScript()
		require.NoError(t, err)
		tx, err := btc.ParseTx(newFundingTx(pkScript, fundingValue).Bytes())
		require.NoError(t, err)
		cfg.InitialFunding = &tx
	}
	return cfg
}

// testHarness bundles a shared MemoryLedger, the PrivateAPI the sync tasks
// consume, and the underlying StateMachine the test uses directly to drive
// OnBlock, mirroring how the host chain consensus layer (out of scope
// here) would call it in a real deployment.
type testHarness struct {
	ledger *hostchain.MemoryLedger
	api    hostchain.PrivateAPI
	sm     *hostchain.StateMachine
}

func newTestHarness(genesis anchoring.Configuration) *testHarness {
	ledger := hostchain.NewMemoryLedger(genesis)
	return &testHarness{
		ledger: ledger,
		api:    hostchain.NewPrivateAPI(ledger),
		sm:     hostchain.NewStateMachine(ledger),
	}
}

func (h *testHarness) advance(t *testing.T, height uint64) {
	t.Helper()
	require.NoError(t, h.sm.OnBlock(context.Background(), height, btc.Hash{}))
}

// signAll has every validator whose key is passed submit a signature for
// every input of whatever proposal is currently open.
func (h *testHarness) signAll(t *testing.T, privs []btc.PrivateKey) {
	t.Helper()
	ctx := context.Background()
	reply, err := h.api.AnchoringProposal(ctx)
	require.NoError(t, err)
	require.Equal(t, hostchain.ProposalAvailable, reply.Status)

outer:
	for i := 0; i < reply.Proposal.Tx.NumInputs(); i++ {
		sighash, err := reply.Proposal.SigHash(i)
		require.NoError(t, err)
		for vIdx, priv := range privs {
			sig, err := priv.Sign(sighash)
			require.NoError(t, err)
			msg := hostchain.SignInputMsg{
				TxId:       reply.Proposal.Tx.Id(),
				InputIndex: uint32(i),
				Signature:  sig,
				Validator:  int32(vIdx),
			}
			if _, err := h.api.SignInput(ctx, msg, priv.PubKey()); err != nil {
				// The proposal finalized partway through; later
				// inputs no longer have an active proposal to sign.
				if _, ok := err.(hostchain.NoActiveProposal); ok {
					break outer
				}
				require.NoError(t, err)
			}
		}
	}
}
