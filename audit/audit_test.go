package audit

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/bitanchor/anchoring/anchoring"
	"github.com/bitanchor/anchoring/btc"
	"github.com/bitanchor/anchoring/hostchain"
	"github.com/bitanchor/anchoring/relay"
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

func testGenesis(t *testing.T, privs []btc.PrivateKey) anchoring.Configuration {
	t.Helper()
	pubs := make([]btc.PublicKey, len(privs))
	for i, p := range privs {
		pubs[i] = p.PubKey()
	}
	cfg := anchoring.Configuration{
		Validators:      pubs,
		Interval:        5,
		FeeRatePerVByte: 1,
		Net:             anchoring.NetworkRegtest,
	}
	pkScript, err := cfg.PkScript()
	require.NoError(t, err)
	tx, err := btc.ParseTx(newFundingTx(pkScript, 100_000).Bytes())
	require.NoError(t, err)
	cfg.InitialFunding = &tx
	return cfg
}

// buildOneEntryChain advances a fresh in-memory ledger through one full
// anchoring cycle, with every validator signing, so Chain holds one
// finalized entry and every validator's Lects reflects it.
func buildOneEntryChain(t *testing.T, privs []btc.PrivateKey) (*hostchain.MemoryLedger, anchoring.Configuration) {
	t.Helper()
	genesis := testGenesis(t, privs)
	ledger := hostchain.NewMemoryLedger(genesis)
	sm := hostchain.NewStateMachine(ledger)
	api := hostchain.NewPrivateAPI(ledger)
	ctx := context.Background()

	require.NoError(t, sm.OnBlock(ctx, 5, btc.Hash{}))

	reply, err := api.AnchoringProposal(ctx)
	require.NoError(t, err)
	require.Equal(t, hostchain.ProposalAvailable, reply.Status)

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
			if _, err := api.SignInput(ctx, msg, priv.PubKey()); err != nil {
				if _, ok := err.(hostchain.NoActiveProposal); ok {
					break
				}
				require.NoError(t, err)
			}
		}
	}
	return ledger, genesis
}

type fakeHostBlocks map[uint64]btc.Hash

func (f fakeHostBlocks) BlockHashAt(ctx context.Context, height uint64) (btc.Hash, bool, error) {
	h, ok := f[height]
	return h, ok, nil
}

func TestCheckChainPassesWhenRelayAndLectsAgree(t *testing.T) {
	privs := testValidators(t, 4)
	ledger, _ := buildOneEntryChain(t, privs)
	ctx := context.Background()

	state, _, err := ledger.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, state.Chain.Len())

	tip, _ := state.Chain.Tip()
	r := relay.NewMemoryRelay()
	r.SetStatus(tip.Tx.Id(), relay.TransactionStatus{Kind: relay.Committed, Confirmations: 6})
	hosts := fakeHostBlocks{tip.PayloadHeight: tip.PayloadHash}

	errs := CheckChain(ctx, state, r, hosts)
	require.Empty(t, errs)
}

func TestCheckChainFlagsUnknownTransaction(t *testing.T) {
	privs := testValidators(t, 4)
	ledger, _ := buildOneEntryChain(t, privs)
	ctx := context.Background()

	state, _, err := ledger.Load(ctx)
	require.NoError(t, err)

	r := relay.NewMemoryRelay() // never scripted: every txid is Unknown
	errs := CheckChain(ctx, state, r, nil)
	require.Len(t, errs, 1)
	_, ok := errs[0].(anchoring.IncorrectLect)
	require.True(t, ok)
}

func TestCheckChainFlagsPayloadMismatch(t *testing.T) {
	privs := testValidators(t, 4)
	ledger, _ := buildOneEntryChain(t, privs)
	ctx := context.Background()

	state, _, err := ledger.Load(ctx)
	require.NoError(t, err)

	tip, _ := state.Chain.Tip()
	r := relay.NewMemoryRelay()
	r.SetStatus(tip.Tx.Id(), relay.TransactionStatus{Kind: relay.Committed, Confirmations: 1})

	wrongHash, err := btc.NewHash(fixedSeed(0xAB))
	require.NoError(t, err)
	hosts := fakeHostBlocks{tip.PayloadHeight: wrongHash}

	errs := CheckChain(ctx, state, r, hosts)
	require.Len(t, errs, 1)
	lect, ok := errs[0].(anchoring.IncorrectLect)
	require.True(t, ok)
	require.Contains(t, lect.Reason, "payload hash")
}

func TestCheckGenesisFundingPassesAndFails(t *testing.T) {
	privs := testValidators(t, 4)
	genesis := testGenesis(t, privs)
	ctx := context.Background()

	r := relay.NewMemoryRelay()
	r.SetStatus(genesis.InitialFunding.Id(), relay.TransactionStatus{Kind: relay.Committed, Confirmations: 20})
	require.NoError(t, CheckGenesisFunding(ctx, genesis, r))

	unseen := relay.NewMemoryRelay()
	err := CheckGenesisFunding(ctx, genesis, unseen)
	require.Error(t, err)
}
