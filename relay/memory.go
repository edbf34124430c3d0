package relay

import (
	"context"
	"sync"

	"github.com/bitanchor/anchoring/btc"
)

// MemoryRelay is a scripted in-process fake, mirroring the teacher's
// htlcswitch/mock.go style of a mutex-guarded test double: responses are
// pre-loaded by the test and SendTransaction/TransactionStatus simply
// replay them, recording every SendTransaction call for later assertions.
type MemoryRelay struct {
	mu sync.Mutex

	statuses map[btc.Hash]TransactionStatus
	sent     []btc.Tx

	// SendErr, if set, is returned by every call to SendTransaction.
	SendErr error
}

// NewMemoryRelay returns an empty relay fake; every transaction starts
// Unknown until SetStatus is called.
func NewMemoryRelay() *MemoryRelay {
	return &MemoryRelay{statuses: make(map[btc.Hash]TransactionStatus)}
}

// SetStatus scripts the status the relay reports for txid.
func (r *MemoryRelay) SetStatus(txid btc.TxId, status TransactionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[txid] = status
}

func (r *MemoryRelay) SendTransaction(ctx context.Context, tx btc.Tx) (btc.TxId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SendErr != nil {
		return btc.TxId{}, r.SendErr
	}
	r.sent = append(r.sent, tx)
	id := tx.Id()
	if _, ok := r.statuses[id]; !ok {
		r.statuses[id] = TransactionStatus{Kind: Mempool}
	}
	return id, nil
}

// Sent returns every transaction passed to SendTransaction, in call order.
func (r *MemoryRelay) Sent() []btc.Tx {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]btc.Tx, len(r.sent))
	copy(out, r.sent)
	return out
}

func (r *MemoryRelay) TransactionStatus(ctx context.Context, txid btc.TxId) (TransactionStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[txid], nil
}
