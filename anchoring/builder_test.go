package anchoring

import (
	"testing"

	"github.com/bitanchor/anchoring/btc"
	"github.com/stretchr/testify/require"
)

func TestBuildProposalNoFundsFails(t *testing.T) {
	cfg := testConfig(t, testValidators(t, 3), 1)
	_, err := BuildProposal(NewChain(), NewFundingQueue(), cfg, 10, btc.Hash{})
	require.ErrorAs(t, err, &NoInitialFunds{})
}

func TestBuildProposalUsesFundingQueueWhenNoTip(t *testing.T) {
	privs := testValidators(t, 3)
	cfg := testConfig(t, privs, 2)
	q := NewFundingQueue()
	id, _ := btc.NewHash(fixedSeed(9))
	q.Push(FundingEntry{TxId: id, Vout: 0, Value: 100000})

	hash, _ := btc.NewHash(fixedSeed(1))
	p, err := BuildProposal(NewChain(), q, cfg, 42, hash)
	require.NoError(t, err)
	require.Equal(t, 1, p.Tx.NumInputs())
	require.Equal(t, 2, p.Tx.NumOutputs())
	require.Equal(t, uint64(42), p.Payload.HostBlockHeight)
	require.Len(t, p.ConsumedFunding, 1)
}

func TestBuildProposalAccumulatesFundingUntilCovered(t *testing.T) {
	privs := testValidators(t, 3)
	cfg := testConfig(t, privs, 100)
	q := NewFundingQueue()
	idA, _ := btc.NewHash(fixedSeed(1))
	idB, _ := btc.NewHash(fixedSeed(2))
	q.Push(FundingEntry{TxId: idA, Vout: 0, Value: 500})
	q.Push(FundingEntry{TxId: idB, Vout: 0, Value: 500000})

	hash, _ := btc.NewHash(fixedSeed(3))
	p, err := BuildProposal(NewChain(), q, cfg, 1, hash)
	require.NoError(t, err)
	require.Equal(t, 2, p.Tx.NumInputs(), "first entry's value alone cannot cover fee at this rate")
}

func TestBuildProposalPrefersChainTipOverFunding(t *testing.T) {
	privs := testValidators(t, 3)
	cfg := testConfig(t, privs, 1)
	chain := NewChain()
	tip := txPaying(1_000_000)
	require.NoError(t, chain.Append(ChainEntry{Tx: tip, PayloadHeight: 10}))

	q := NewFundingQueue()
	id, _ := btc.NewHash(fixedSeed(7))
	q.Push(FundingEntry{TxId: id, Vout: 0, Value: 100000})

	hash, _ := btc.NewHash(fixedSeed(4))
	p, err := BuildProposal(chain, q, cfg, 20, hash)
	require.NoError(t, err)
	require.Equal(t, 1, p.Tx.NumInputs(), "tip alone should already cover the fee at this rate")
	gotID, vout := p.Tx.PrevOut(0)
	require.True(t, gotID.Equal(tip.Id()))
	require.Equal(t, uint32(0), vout)
}
