package sync

import (
	"context"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"

	"github.com/bitanchor/anchoring/hostchain"
	"github.com/bitanchor/anchoring/keypool"
	"github.com/bitanchor/anchoring/metrics"
)

// ChainUpdateTask signs the inputs of the currently open anchoring
// transaction proposal with whichever local validator key appears first in
// the active configuration's validator list, a direct generalization of
// original_source/src/sync/mod.rs's AnchoringChainUpdateTask.
type ChainUpdateTask struct {
	keys   *keypool.KeyPool
	api    hostchain.PrivateAPI
	ticker ticker.Ticker
	clock  clock.Clock
	mx     *metrics.Collectors
}

// NewChainUpdateTask builds a task driven by its own ticker, so the caller
// only needs to start it and select on Done/errors.
func NewChainUpdateTask(keys *keypool.KeyPool, api hostchain.PrivateAPI, interval ticker.Ticker, clk clock.Clock) *ChainUpdateTask {
	return &ChainUpdateTask{keys: keys, api: api, ticker: interval, clock: clk}
}

// SetMetrics attaches a collector set the task reports signing activity to.
// Optional: a task with no collector set simply skips the increments.
func (t *ChainUpdateTask) SetMetrics(mx *metrics.Collectors) {
	t.mx = mx
}

// Process performs one attempt to sign an open anchoring proposal, if any.
// It signs with at most one local key per call: if more than one configured
// key is held locally, only the first (in validator order) is used, and a
// second call (on the next tick) is required to submit a second
// validator's signature, per spec §9's resolved Open Question on multiple
// local keys.
func (t *ChainUpdateTask) Process(ctx context.Context) error {
	reply, err := t.api.AnchoringProposal(ctx)
	if err != nil {
		return ChainUpdateError{Kind: ChainUpdateClient, Err: err}
	}

	switch reply.Status {
	case hostchain.ProposalNone:
		return nil
	case hostchain.ProposalInsufficientFunds:
		if t.mx != nil {
			t.mx.InsufficientFundsHits.Inc()
		}
		return ChainUpdateError{Kind: ChainUpdateInsufficientFunds, Balance: reply.Balance, Needed: reply.Needed}
	case hostchain.ProposalNoInitialFunds:
		return ChainUpdateError{Kind: ChainUpdateNoInitialFunds}
	}

	cfg, err := t.api.Config(ctx)
	if err != nil {
		return ChainUpdateError{Kind: ChainUpdateClient, Err: err}
	}

	idx, priv, ok := t.keys.FirstMatch(cfg.Validators)
	if !ok {
		// No local key is a member of the active configuration; nothing
		// for this validator to do.
		return nil
	}

	proposal := reply.Proposal
	for i := 0; i < proposal.Tx.NumInputs(); i++ {
		sighash, err := proposal.SigHash(i)
		if err != nil {
			return ChainUpdateError{Kind: ChainUpdateInternal, Err: err}
		}
		sig, err := priv.Sign(sighash)
		if err != nil {
			return ChainUpdateError{Kind: ChainUpdateInternal, Err: err}
		}

		msg := hostchain.SignInputMsg{
			TxId:       proposal.Tx.Id(),
			InputIndex: uint32(i),
			Signature:  sig,
			Validator:  int32(idx),
		}
		if _, err := t.api.SignInput(ctx, msg, priv.PubKey()); err != nil {
			return ChainUpdateError{Kind: ChainUpdateClient, Err: err}
		}
		if t.mx != nil {
			t.mx.SignaturesSubmitted.Inc()
		}
	}
	return nil
}

// Run drives Process on every tick of the task's ticker until ctx is
// canceled. Failed attempts are reported on errs and the loop continues;
// per spec §7 the task never retries mid-iteration.
func (t *ChainUpdateTask) Run(ctx context.Context, errs chan<- error) {
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
