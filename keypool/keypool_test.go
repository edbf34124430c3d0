package keypool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bitanchor/anchoring/btc"
)

func fixedSeed(b byte) []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func testKeys(t *testing.T, n int) []btc.PrivateKey {
	t.Helper()
	keys := make([]btc.PrivateKey, n)
	for i := 0; i < n; i++ {
		priv, err := btc.NewPrivateKey(fixedSeed(byte(i + 1)))
		require.NoError(t, err)
		keys[i] = priv
	}
	return keys
}

func TestLookupHitAndMiss(t *testing.T) {
	keys := testKeys(t, 3)
	pool := New(keys[:2])

	got, ok := pool.Lookup(keys[0].PubKey())
	require.True(t, ok)
	require.Equal(t, keys[0].Bytes(), got.Bytes())

	_, ok = pool.Lookup(keys[2].PubKey())
	require.False(t, ok)

	require.Equal(t, 2, pool.Len())
}

func TestFirstMatchPrefersEarliestCandidate(t *testing.T) {
	keys := testKeys(t, 4)
	pool := New([]btc.PrivateKey{keys[1], keys[3]})

	candidates := []btc.PublicKey{
		keys[0].PubKey(),
		keys[1].PubKey(),
		keys[2].PubKey(),
		keys[3].PubKey(),
	}

	idx, key, ok := pool.FirstMatch(candidates)
	require.True(t, ok)
	require.Equal(t, 1, idx)
	require.Equal(t, keys[1].Bytes(), key.Bytes())
}

func TestFirstMatchNoneHeld(t *testing.T) {
	keys := testKeys(t, 2)
	pool := New(nil)

	_, _, ok := pool.FirstMatch([]btc.PublicKey{keys[0].PubKey(), keys[1].PubKey()})
	require.False(t, ok)
}
