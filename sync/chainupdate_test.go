package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bitanchor/anchoring/btc"
	"github.com/bitanchor/anchoring/hostchain"
	"github.com/bitanchor/anchoring/keypool"
)

func TestChainUpdateTaskSignsFirstConfiguredKeyOnly(t *testing.T) {
	privs := testValidators(t, 4)
	genesis := testGenesis(t, privs, 5, 1, 100_000)
	h := newTestHarness(genesis)
	h.advance(t, 5)

	// This validator holds keys for validators 1 and 2; only the first
	// (validator 1) should be used per call.
	pool := keypool.New([]btc.PrivateKey{privs[1], privs[2]})
	task := NewChainUpdateTask(pool, h.api, nil, nil)

	require.NoError(t, task.Process(context.Background()))

	reply, err := h.api.AnchoringProposal(context.Background())
	require.NoError(t, err)
	require.Equal(t, hostchain.ProposalAvailable, reply.Status)
	require.NotZero(t, reply.Proposal.Tx.NumInputs())
}

func TestChainUpdateTaskNoInitialFunds(t *testing.T) {
	privs := testValidators(t, 4)
	genesis := testGenesis(t, privs, 5, 1, 0)
	h := newTestHarness(genesis)
	h.advance(t, 5)

	pool := keypool.New(privs)
	task := NewChainUpdateTask(pool, h.api, nil, nil)

	err := task.Process(context.Background())
	require.Error(t, err)
	cuErr, ok := err.(ChainUpdateError)
	require.True(t, ok)
	require.Equal(t, ChainUpdateNoInitialFunds, cuErr.Kind)
}

func TestChainUpdateTaskInsufficientFunds(t *testing.T) {
	privs := testValidators(t, 4)
	// A 200-sat funding output cannot cover the fee for a 4-validator
	// redeem script at this fee rate.
	genesis := testGenesis(t, privs, 5, 20, 200)
	h := newTestHarness(genesis)
	h.advance(t, 5)

	pool := keypool.New(privs)
	task := NewChainUpdateTask(pool, h.api, nil, nil)

	err := task.Process(context.Background())
	require.Error(t, err)
	cuErr, ok := err.(ChainUpdateError)
	require.True(t, ok)
	require.Equal(t, ChainUpdateInsufficientFunds, cuErr.Kind)
	require.Equal(t, int64(200), cuErr.Balance)
	require.Greater(t, cuErr.Needed, cuErr.Balance)
}

func TestChainUpdateTaskNoLocalKeyIsANoop(t *testing.T) {
	privs := testValidators(t, 4)
	genesis := testGenesis(t, privs, 5, 1, 100_000)
	h := newTestHarness(genesis)
	h.advance(t, 5)

	outsider := testValidators(t, 1)
	pool := keypool.New(outsider)
	task := NewChainUpdateTask(pool, h.api, nil, nil)

	require.NoError(t, task.Process(context.Background()))

	reply, err := h.api.AnchoringProposal(context.Background())
	require.NoError(t, err)
	require.Equal(t, hostchain.ProposalAvailable, reply.Status)
}

func TestChainUpdateTaskFullQuorumFinalizes(t *testing.T) {
	privs := testValidators(t, 4)
	genesis := testGenesis(t, privs, 5, 1, 100_000)
	h := newTestHarness(genesis)
	h.advance(t, 5)

	for _, priv := range privs {
		pool := keypool.New([]btc.PrivateKey{priv})
		task := NewChainUpdateTask(pool, h.api, nil, nil)
		require.NoError(t, task.Process(context.Background()))
	}

	reply, err := h.api.AnchoringProposal(context.Background())
	require.NoError(t, err)
	require.Equal(t, hostchain.ProposalNone, reply.Status)

	count, err := h.api.TransactionsCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
}
