package sync

import (
	"context"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"

	"github.com/bitanchor/anchoring/btc"
	"github.com/bitanchor/anchoring/hostchain"
	"github.com/bitanchor/anchoring/metrics"
	"github.com/bitanchor/anchoring/relay"
)

// BitcoinSyncTask pushes the first not-yet-committed anchoring transaction
// into the Bitcoin network, a direct generalization of
// original_source/src/sync/mod.rs's SyncWithBitcoinTask, including its
// cold-start walk-back algorithm and the UnconfirmedFundingTransaction
// special case.
type BitcoinSyncTask struct {
	api    hostchain.PrivateAPI
	relay  relay.Relay
	cursor CursorStore
	ticker ticker.Ticker
	clock  clock.Clock
	mx     *metrics.Collectors
}

// NewBitcoinSyncTask builds a task backed by a persisted cursor, so it
// resumes steady-state scanning from where a previous process instance
// left off instead of re-running the cold-start walk-back every restart.
func NewBitcoinSyncTask(api hostchain.PrivateAPI, r relay.Relay, cursor CursorStore, interval ticker.Ticker, clk clock.Clock) *BitcoinSyncTask {
	return &BitcoinSyncTask{api: api, relay: r, cursor: cursor, ticker: interval, clock: clk}
}

// SetMetrics attaches a collector set the task reports relay and confirmation
// activity to. Optional: a task with no collector set simply skips the
// increments.
func (t *BitcoinSyncTask) SetMetrics(mx *metrics.Collectors) {
	t.mx = mx
}

// Process performs one attempt to send the first uncommitted anchoring
// transaction to the Bitcoin network, if any, and persists the index of the
// transaction it sent as the new cursor. It returns only an error; the
// cursor is read back through the task's CursorStore.
func (t *BitcoinSyncTask) Process(ctx context.Context) error {
	lastIndex, haveCursor, err := t.cursor.Load()
	if err != nil {
		return SyncWithBitcoinError{Kind: ChainUpdateInternal, Err: err}
	}

	index, tx, err := t.findCandidate(ctx, lastIndex, haveCursor)
	if err != nil {
		return err
	}
	if tx == nil {
		return nil
	}

	if _, err := t.relay.SendTransaction(ctx, *tx); err != nil {
		return RelayError{Err: err}
	}
	if t.mx != nil {
		t.mx.RelaySends.Inc()
	}
	return t.cursor.Save(index)
}

// findCandidate mirrors the original's two-branch dispatch: steady-state
// advance from a known cursor, or cold-start walk-back when none exists
// yet. A nil tx with a nil error means there is nothing to send right now.
func (t *BitcoinSyncTask) findCandidate(ctx context.Context, lastIndex uint64, haveCursor bool) (uint64, *btc.Tx, error) {
	if !haveCursor {
		return t.findFirstUncommitted(ctx)
	}

	tx, err := t.getTransaction(ctx, lastIndex)
	if err != nil {
		return 0, nil, err
	}
	status, err := t.transactionStatus(ctx, tx.Id())
	if err != nil {
		return 0, nil, err
	}
	if !status.IsKnown() {
		return lastIndex, &tx, nil
	}

	count, err := t.api.TransactionsCount(ctx)
	if err != nil {
		return 0, nil, SyncWithBitcoinError{Kind: ChainUpdateClient, Err: err}
	}
	if lastIndex+1 == count {
		// Already at the tip of the anchoring chain and it is committed;
		// nothing to send, cursor stays where it is.
		return 0, nil, nil
	}

	next := lastIndex + 1
	tx, err = t.getTransaction(ctx, next)
	if err != nil {
		return 0, nil, err
	}
	return next, &tx, nil
}

// findFirstUncommitted scans the anchoring chain from its tail backwards,
// looking for the boundary between committed and uncommitted transactions.
// If every transaction is uncommitted back to the genesis entry, it falls
// back to checking the genesis funding transaction's own confirmations.
func (t *BitcoinSyncTask) findFirstUncommitted(ctx context.Context) (uint64, *btc.Tx, error) {
	count, err := t.api.TransactionsCount(ctx)
	if err != nil {
		return 0, nil, SyncWithBitcoinError{Kind: ChainUpdateClient, Err: err}
	}
	if count == 0 {
		return 0, nil, nil
	}
	lastIndex := count - 1

	lastTx, err := t.getTransaction(ctx, lastIndex)
	if err != nil {
		return 0, nil, err
	}
	lastStatus, err := t.transactionStatus(ctx, lastTx.Id())
	if err != nil {
		return 0, nil, err
	}
	if lastStatus.IsKnown() {
		return 0, nil, nil
	}

	for index := lastIndex; index >= 1; index-- {
		tx, err := t.getTransaction(ctx, index)
		if err != nil {
			return 0, nil, err
		}
		prevTxId, _ := tx.PrevOut(0)
		status, err := t.transactionStatus(ctx, prevTxId)
		if err != nil {
			return 0, nil, err
		}
		if status.IsKnown() {
			return index, &tx, nil
		}
	}

	genesis, err := t.getTransaction(ctx, 0)
	if err != nil {
		return 0, nil, err
	}
	fundingTxId, _ := genesis.PrevOut(0)
	status, err := t.transactionStatus(ctx, fundingTxId)
	if err != nil {
		return 0, nil, err
	}
	if !status.IsKnown() {
		return 0, nil, UnconfirmedFundingTransaction{FundingTxId: fundingTxId}
	}
	return 0, &genesis, nil
}

func (t *BitcoinSyncTask) getTransaction(ctx context.Context, index uint64) (btc.Tx, error) {
	tx, ok, err := t.api.TransactionWithIndex(ctx, index)
	if err != nil {
		return btc.Tx{}, SyncWithBitcoinError{Kind: ChainUpdateClient, Err: err}
	}
	if !ok {
		return btc.Tx{}, MissingChainTransaction{Index: index}
	}
	return tx, nil
}

func (t *BitcoinSyncTask) transactionStatus(ctx context.Context, txid btc.TxId) (relay.TransactionStatus, error) {
	status, err := t.relay.TransactionStatus(ctx, txid)
	if err != nil {
		return relay.TransactionStatus{}, RelayError{Err: err}
	}
	if t.mx != nil && status.Kind == relay.Committed {
		t.mx.ConfirmationsObserved.Set(float64(status.Confirmations))
	}
	return status, nil
}

// Run drives Process on every tick of the task's ticker until ctx is
// canceled, reporting failed attempts on errs without retrying
// mid-iteration (spec §7).
func (t *BitcoinSyncTask) Run(ctx context.Context, errs chan<- error) {
	t.ticker.Resume()
	defer t.ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.ticker.Ticks():
			if err := t.Process(ctx); err != nil {
				select {
				case errs <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
