package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusLatticeOrdering(t *testing.T) {
	unknown := TransactionStatus{Kind: Unknown}
	mempool := TransactionStatus{Kind: Mempool}
	committed1 := TransactionStatus{Kind: Committed, Confirmations: 1}
	committed10 := TransactionStatus{Kind: Committed, Confirmations: 10}

	require.True(t, unknown.Less(mempool))
	require.True(t, mempool.Less(committed1))
	require.True(t, committed1.Less(committed10))
	require.False(t, committed10.Less(committed1))

	require.False(t, unknown.IsKnown())
	require.True(t, mempool.IsKnown())
	require.True(t, committed1.IsKnown())
}
