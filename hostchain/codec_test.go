package hostchain

import (
	"context"
	"testing"

	"github.com/bitanchor/anchoring/btc"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTripPreservesPartialSignatures(t *testing.T) {
	ctx := context.Background()
	privs := testValidators(t, 4) // quorum = 3
	genesis := testGenesis(t, privs, 1, 10_000_000)
	ledger := NewMemoryLedger(genesis)
	sm := NewStateMachine(ledger)
	api := NewPrivateAPI(ledger)

	blockHash, _ := btc.NewHash(fixedSeed(3))
	require.NoError(t, sm.OnBlock(ctx, 10, blockHash))

	reply, err := api.AnchoringProposal(ctx)
	require.NoError(t, err)
	proposal := reply.Proposal
	sighash, err := proposal.SigHash(0)
	require.NoError(t, err)
	sig, err := privs[0].Sign(sighash)
	require.NoError(t, err)
	_, err = api.SignInput(ctx, SignInputMsg{TxId: proposal.Tx.Id(), InputIndex: 0, Signature: sig, Validator: 0}, privs[0].PubKey())
	require.NoError(t, err)

	before, err := sm.Snapshot(ctx)
	require.NoError(t, err)

	encoded, err := MarshalState(before)
	require.NoError(t, err)
	after, err := UnmarshalState(encoded)
	require.NoError(t, err)

	require.Equal(t, before.Height, after.Height)
	require.Equal(t, before.Chain.Len(), after.Chain.Len())
	require.NotNil(t, after.Proposal)
	require.True(t, after.Proposal.Signatures.InputReady(0) == before.Proposal.Signatures.InputReady(0))
	require.False(t, after.Proposal.Signatures.InputReady(0), "only one of three signatures recorded so far")

	gotSig, ok := after.Proposal.Signatures.SignatureFor(0, 0)
	require.True(t, ok)
	require.True(t, gotSig.Equal(sig))
}

func TestStateRoundTripEmptyProposal(t *testing.T) {
	privs := testValidators(t, 3)
	genesis := testGenesis(t, privs, 1, 5000)
	state := NewState(genesis)

	encoded, err := MarshalState(state)
	require.NoError(t, err)
	after, err := UnmarshalState(encoded)
	require.NoError(t, err)

	require.Nil(t, after.Proposal)
	require.Equal(t, state.Funds.Len(), after.Funds.Len())
	require.Equal(t, state.Funds.Balance(), after.Funds.Balance())
}
