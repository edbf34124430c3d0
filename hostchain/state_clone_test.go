package hostchain

import (
	"context"
	"testing"

	"github.com/bitanchor/anchoring/btc"
	"github.com/stretchr/testify/require"
)

// TestStateCloneIsolatesLosingCASAttempt reproduces the race maxCASRetries
// exists for: two goroutines load the same state, and the loser's mutation
// must never leak into the ledger's canonical state even though it ran
// against a "cloned" copy.
func TestStateCloneIsolatesLosingCASAttempt(t *testing.T) {
	ctx := context.Background()
	privs := testValidators(t, 3)
	genesis := testGenesis(t, privs, 1, 10_000_000)
	ledger := NewMemoryLedger(genesis)
	sm := NewStateMachine(ledger)

	blockHash, _ := btc.NewHash(fixedSeed(1))
	require.NoError(t, sm.OnBlock(ctx, 10, blockHash))

	winner, winnerVersion, err := ledger.Load(ctx)
	require.NoError(t, err)
	loser, loserVersion, err := ledger.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, winnerVersion, loserVersion)

	fundingTx := newFundingTx(mustPkScript(t, genesis), 5000)
	require.NoError(t, addFunds(winner, fundingTx))
	_, err = ledger.Save(ctx, winner, winnerVersion)
	require.NoError(t, err)
	require.Equal(t, 2, winner.Funds.Len())

	otherTx := newFundingTx(mustPkScript(t, genesis), 7000)
	require.NoError(t, addFunds(loser, otherTx))
	_, err = ledger.Save(ctx, loser, loserVersion)
	require.Error(t, err, "loser's CAS must fail: version advanced under it")

	canonical, _, err := ledger.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, canonical.Funds.Len(),
		"the loser's mutation against its own clone must never leak into the canonical state")
}

func mustPkScript(t *testing.T, cfg interface{ PkScript() ([]byte, error) }) []byte {
	t.Helper()
	script, err := cfg.PkScript()
	require.NoError(t, err)
	return script
}
