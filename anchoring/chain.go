package anchoring

import "github.com/bitanchor/anchoring/btc"

// ChainEntry is one confirmed link in the anchoring chain: a transaction
// whose inputs all reached quorum and which the state machine assembled
// with its witnesses, together with the host-chain block it anchors. An
// entry is appended before it is broadcast; the Bitcoin sync task sends it
// to the relay afterwards.
type ChainEntry struct {
	// Tx is the confirmed anchoring transaction.
	Tx btc.Tx

	// PayloadHeight is the host-chain block height this entry commits.
	PayloadHeight uint64

	// PayloadHash is the host-chain block hash this entry commits.
	PayloadHash btc.Hash

	// SpentFundingOutputs lists the funding outputs (other than the
	// previous tip's) this entry consumed as inputs, in queue order. Kept
	// so a restarted sync task can reconstruct exactly which funds are
	// still available without re-deriving the proposal.
	SpentFundingOutputs []FundingEntry
}

// Chain is the append-only sequence of confirmed anchoring transactions,
// linked by each entry spending the previous entry's tip output (spec §3,
// AnchoringChain). It holds no Bitcoin or host-chain connectivity itself;
// hostchain.Ledger is the persisted form a production node reads and writes.
type Chain struct {
	entries []ChainEntry
}

// NewChain returns an empty chain. The genesis anchoring transaction (whose
// inputs are queued funding outputs, normally those of the configuration's
// InitialFunding transaction) is appended like any other entry once it is
// finalized.
func NewChain() *Chain {
	return &Chain{}
}

// Tip returns the most recently appended entry and true, or the zero value
// and false if the chain is empty.
func (c *Chain) Tip() (ChainEntry, bool) {
	if len(c.entries) == 0 {
		return ChainEntry{}, false
	}
	return c.entries[len(c.entries)-1], true
}

// Append adds a new entry. The entry's transaction must spend the current
// tip's transaction id and output 0 as its first input, unless the chain is
// empty, in which case this is the genesis entry. Append returns
// ChainBroken if that invariant does not hold.
func (c *Chain) Append(entry ChainEntry) error {
	tip, ok := c.Tip()
	if !ok {
		c.entries = append(c.entries, entry)
		return nil
	}
	if entry.Tx.NumInputs() == 0 {
		return ChainBroken{Reason: "new entry has no inputs"}
	}
	prevID, prevVout := entry.Tx.PrevOut(0)
	tipID := tip.Tx.Id()
	if !prevID.Equal(tipID) || prevVout != 0 {
		return ChainBroken{Reason: "new entry's first input does not spend the current tip"}
	}
	c.entries = append(c.entries, entry)
	return nil
}

// Len returns the number of confirmed entries.
func (c *Chain) Len() int {
	return len(c.entries)
}

// At returns the entry at position i, counting from the genesis entry at 0.
func (c *Chain) At(i int) ChainEntry {
	return c.entries[i]
}

// Entries returns a copy of the full chain, oldest first.
func (c *Chain) Entries() []ChainEntry {
	out := make([]ChainEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// LastPayloadHeight returns the host-chain height committed by the tip, or 0
// if the chain is empty.
func (c *Chain) LastPayloadHeight() uint64 {
	tip, ok := c.Tip()
	if !ok {
		return 0
	}
	return tip.PayloadHeight
}

// Clone returns a deep copy whose entries slice (and each entry's
// SpentFundingOutputs) shares no backing array with c, so appending to
// either chain after cloning never corrupts the other. Committed entries
// and their transactions are never mutated in place once appended, so the
// Tx and PayloadHash fields themselves are safe to share by value.
func (c *Chain) Clone() *Chain {
	entries := make([]ChainEntry, len(c.entries))
	for i, e := range c.entries {
		e.SpentFundingOutputs = append([]FundingEntry(nil), e.SpentFundingOutputs...)
		entries[i] = e
	}
	return &Chain{entries: entries}
}
