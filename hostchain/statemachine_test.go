package hostchain

import (
	"context"
	"testing"

	"github.com/bitanchor/anchoring/btc"
	"github.com/stretchr/testify/require"
)

func TestStateMachineBuildsSignsAndFinalizesGenesisProposal(t *testing.T) {
	ctx := context.Background()
	privs := testValidators(t, 4) // quorum = 3
	genesis := testGenesis(t, privs, 1, 10_000_000)
	ledger := NewMemoryLedger(genesis)
	sm := NewStateMachine(ledger)
	api := NewPrivateAPI(ledger)

	reply, err := api.AnchoringProposal(ctx)
	require.NoError(t, err)
	require.Equal(t, ProposalNone, reply.Status)

	blockHash, _ := btc.NewHash(fixedSeed(9))
	require.NoError(t, sm.OnBlock(ctx, 10, blockHash))

	reply, err = api.AnchoringProposal(ctx)
	require.NoError(t, err)
	require.Equal(t, ProposalAvailable, reply.Status)
	proposal := reply.Proposal
	require.Equal(t, 1, proposal.Tx.NumInputs())
	require.Equal(t, uint64(0), proposal.Payload.HostBlockHeight,
		"genesis proposal must target boundary 0, not a full interval in")

	sighash, err := proposal.SigHash(0)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		sig, err := privs[i].Sign(sighash)
		require.NoError(t, err)
		msg := SignInputMsg{TxId: proposal.Tx.Id(), InputIndex: 0, Signature: sig, Validator: int32(i)}
		_, err = api.SignInput(ctx, msg, privs[i].PubKey())
		require.NoError(t, err)
	}

	count, err := api.TransactionsCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), count, "not yet finalized before quorum")

	sig, err := privs[2].Sign(sighash)
	require.NoError(t, err)
	msg := SignInputMsg{TxId: proposal.Tx.Id(), InputIndex: 0, Signature: sig, Validator: 2}
	_, err = api.SignInput(ctx, msg, privs[2].PubKey())
	require.NoError(t, err)

	count, err = api.TransactionsCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	tx, ok, err := api.TransactionWithIndex(ctx, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, proposal.Tx.Id(), tx.Id())

	reply, err = api.AnchoringProposal(ctx)
	require.NoError(t, err)
	require.Equal(t, ProposalNone, reply.Status)
}

func TestStateMachineAnchoringHeightsLandOnIntervalMultiples(t *testing.T) {
	ctx := context.Background()
	privs := testValidators(t, 1) // quorum = 1
	genesis := testGenesis(t, privs, 1, 10_000_000)
	ledger := NewMemoryLedger(genesis)
	sm := NewStateMachine(ledger)
	api := NewPrivateAPI(ledger)

	finalize := func(blockHeight uint64) uint64 {
		blockHash, _ := btc.NewHash(fixedSeed(blockHeight))
		require.NoError(t, sm.OnBlock(ctx, blockHeight, blockHash))

		reply, err := api.AnchoringProposal(ctx)
		require.NoError(t, err)
		require.Equal(t, ProposalAvailable, reply.Status)
		proposal := reply.Proposal

		sighash, err := proposal.SigHash(0)
		require.NoError(t, err)
		sig, err := privs[0].Sign(sighash)
		require.NoError(t, err)
		msg := SignInputMsg{TxId: proposal.Tx.Id(), InputIndex: 0, Signature: sig, Validator: 0}
		_, err = api.SignInput(ctx, msg, privs[0].PubKey())
		require.NoError(t, err)

		return proposal.Payload.HostBlockHeight
	}

	// Genesis: boundary 0, not a full interval in, regardless of the live
	// block height at which the proposal happens to be built.
	require.Equal(t, uint64(0), finalize(10))
	// Next anchoring transaction lands on the next interval multiple (10),
	// not on whatever live block height OnBlock was last called with (20).
	require.Equal(t, uint64(10), finalize(20))
}

func TestStateMachineSignInputIdempotent(t *testing.T) {
	ctx := context.Background()
	privs := testValidators(t, 3) // quorum = 3
	genesis := testGenesis(t, privs, 1, 10_000_000)
	ledger := NewMemoryLedger(genesis)
	sm := NewStateMachine(ledger)
	api := NewPrivateAPI(ledger)

	blockHash, _ := btc.NewHash(fixedSeed(1))
	require.NoError(t, sm.OnBlock(ctx, 10, blockHash))

	reply, err := api.AnchoringProposal(ctx)
	require.NoError(t, err)
	proposal := reply.Proposal
	sighash, err := proposal.SigHash(0)
	require.NoError(t, err)
	sig, err := privs[0].Sign(sighash)
	require.NoError(t, err)
	msg := SignInputMsg{TxId: proposal.Tx.Id(), InputIndex: 0, Signature: sig, Validator: 0}

	_, err = api.SignInput(ctx, msg, privs[0].PubKey())
	require.NoError(t, err)
	_, err = api.SignInput(ctx, msg, privs[0].PubKey())
	require.NoError(t, err, "resubmitting the same signature must be a no-op, not an error")
}

func TestStateMachineAddFundsIdempotentAndRejectsWrongAddress(t *testing.T) {
	ctx := context.Background()
	privs := testValidators(t, 3)
	genesis := testGenesis(t, privs, 1, 1000)
	ledger := NewMemoryLedger(genesis)
	sm := NewStateMachine(ledger)

	pkScript, err := genesis.PkScript()
	require.NoError(t, err)
	tx := newFundingTx(pkScript, 5000)

	require.NoError(t, sm.AddFunds(ctx, tx))
	require.NoError(t, sm.AddFunds(ctx, tx), "resubmitting the same funding tx must be a no-op")

	state, err := sm.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, state.Funds.Len(), "genesis funding plus the one added tx")

	wrongScript := []byte{0x00, 0x14, 1, 2, 3}
	badTx := newFundingTx(wrongScript, 5000)
	err = sm.AddFunds(ctx, badTx)
	require.Error(t, err)
}

func TestStateMachineSignInputRejectsStaleTxId(t *testing.T) {
	ctx := context.Background()
	privs := testValidators(t, 3)
	genesis := testGenesis(t, privs, 1, 10_000_000)
	ledger := NewMemoryLedger(genesis)
	sm := NewStateMachine(ledger)
	api := NewPrivateAPI(ledger)

	blockHash, _ := btc.NewHash(fixedSeed(2))
	require.NoError(t, sm.OnBlock(ctx, 10, blockHash))

	bogusID, _ := btc.NewHash(fixedSeed(200))
	reply, err := api.AnchoringProposal(ctx)
	require.NoError(t, err)
	sighash, err := reply.Proposal.SigHash(0)
	require.NoError(t, err)
	sig, err := privs[0].Sign(sighash)
	require.NoError(t, err)

	msg := SignInputMsg{TxId: bogusID, InputIndex: 0, Signature: sig, Validator: 0}
	_, err = api.SignInput(ctx, msg, privs[0].PubKey())
	require.Error(t, err)
	require.IsType(t, WrongTxId{}, err)
}
