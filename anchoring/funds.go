package anchoring

import "github.com/bitanchor/anchoring/btc"

// FundingEntry is an unspent output paying the current multi-sig address,
// queued for consumption by a future anchoring transaction (spec §3,
// FundingEntry). Entries are consumed strictly in the order they were
// queued (FIFO).
type FundingEntry struct {
	TxId  btc.TxId
	Vout  uint32
	Value int64
}

// FundingQueue is the FIFO list of funding outputs not yet spent by any
// anchoring transaction. It is persisted state read and mutated by a single
// state-machine goroutine at a time, with no producer/consumer handoff
// between concurrent readers, so a plain append/pop-front slice under the
// caller's own lock is the right tool (see DESIGN.md on why this is the one
// place the project does not reach for lnd/queue's ConcurrentQueue).
type FundingQueue struct {
	entries []FundingEntry
}

// NewFundingQueue returns an empty queue.
func NewFundingQueue() *FundingQueue {
	return &FundingQueue{}
}

// Push appends a newly observed funding output to the back of the queue.
// It does not check for duplicates; AddFunds calls Contains first and skips
// an output that is already queued.
func (q *FundingQueue) Push(entry FundingEntry) {
	q.entries = append(q.entries, entry)
}

// Contains reports whether an output with the same txid and vout is
// currently queued, used by AddFunds so it never queues the same output
// twice.
func (q *FundingQueue) Contains(txID btc.TxId, vout uint32) bool {
	for _, e := range q.entries {
		if e.TxId.Equal(txID) && e.Vout == vout {
			return true
		}
	}
	return false
}

// Peek returns the front n entries without removing them, or fewer if the
// queue holds less than n.
func (q *FundingQueue) Peek(n int) []FundingEntry {
	if n > len(q.entries) {
		n = len(q.entries)
	}
	out := make([]FundingEntry, n)
	copy(out, q.entries[:n])
	return out
}

// PopFront removes and returns the front n entries.
func (q *FundingQueue) PopFront(n int) []FundingEntry {
	out := q.Peek(n)
	q.entries = q.entries[len(out):]
	return out
}

// Len returns the number of queued entries.
func (q *FundingQueue) Len() int {
	return len(q.entries)
}

// Balance returns the total value of all queued entries.
func (q *FundingQueue) Balance() int64 {
	var total int64
	for _, e := range q.entries {
		total += e.Value
	}
	return total
}

// Clone returns a deep copy whose entries slice shares no backing array
// with q, so Push/PopFront on either queue after cloning never corrupts
// the other.
func (q *FundingQueue) Clone() *FundingQueue {
	entries := make([]FundingEntry, len(q.entries))
	copy(entries, q.entries)
	return &FundingQueue{entries: entries}
}
