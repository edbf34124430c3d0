// Package audit reads the confirmed anchoring chain and cross-checks it
// against Bitcoin and host-chain state, a generalization of
// original_source/src/handler/auditing.rs's handle_auditing_state and its
// check_anchoring_lect/check_funding_lect helpers (spec §4.7, C7). Audit is
// not required for liveness: it never mutates state, only reports errors.
package audit

import (
	"context"

	"github.com/bitanchor/anchoring/anchoring"
	"github.com/bitanchor/anchoring/btc"
	"github.com/bitanchor/anchoring/hostchain"
	"github.com/bitanchor/anchoring/relay"
)

// HostBlockHashes resolves the host-chain block hash at a given height, so
// an audit can verify an anchoring payload actually matches host-chain
// history rather than merely Bitcoin's record of it. A production caller
// implements this against its own host-chain client; tests use a map.
type HostBlockHashes interface {
	BlockHashAt(ctx context.Context, height uint64) (hash btc.Hash, ok bool, err error)
}

// CheckChain verifies every finalized anchoring-chain entry: that Bitcoin
// (via the relay's known-transaction set) has seen it, that its payload
// matches the host-chain block it claims to commit, and that a quorum of
// validators' most recently reported LECT agrees with it. This generalizes
// the original's single latest-LECT check into a walk over the whole
// chain, per spec §4.7's "for each entry in the confirmed chain".
func CheckChain(ctx context.Context, state *hostchain.State, r relay.Relay, hosts HostBlockHashes) []error {
	var errs []error
	entry, _ := state.Configs.EntryAt(state.Height)
	quorum := entry.Config.Quorum()
	lectCounts := tallyLects(state.Lects)

	for i := 0; i < state.Chain.Len(); i++ {
		ce := state.Chain.At(i)
		txid := ce.Tx.Id()

		status, err := r.TransactionStatus(ctx, txid)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !status.IsKnown() {
			errs = append(errs, anchoring.IncorrectLect{
				Reason: "anchoring transaction not known to the Bitcoin relay",
				Tx:     ce.Tx,
			})
			continue
		}

		if hosts != nil {
			hash, ok, err := hosts.BlockHashAt(ctx, ce.PayloadHeight)
			if err != nil {
				errs = append(errs, err)
			} else if ok && hash != ce.PayloadHash {
				errs = append(errs, anchoring.IncorrectLect{
					Reason: "payload hash does not match the host-chain block at that height",
					Tx:     ce.Tx,
				})
			}
		}

		if lectCounts[txid] < quorum {
			errs = append(errs, anchoring.LectNotFound{Height: ce.PayloadHeight})
		}
	}
	return errs
}

// CheckGenesisFunding additionally verifies the genesis configuration's
// InitialFunding transaction itself: that it pays the genesis multi-sig
// address and that the relay reports it as known. With no InitialFunding
// it returns nil. This mirrors check_funding_lect, which the original runs
// whenever the majority LECT turns out to be the funding transaction
// itself rather than an anchoring transaction.
func CheckGenesisFunding(ctx context.Context, genesis anchoring.Configuration, r relay.Relay) error {
	if genesis.InitialFunding == nil {
		return nil
	}
	tx := *genesis.InitialFunding
	pkScript, err := genesis.PkScript()
	if err != nil {
		return err
	}
	if _, ok := tx.FindOutput(pkScript); !ok {
		return anchoring.IncorrectLect{
			Reason: "genesis funding transaction has no output paying the genesis address",
			Tx:     tx,
		}
	}
	status, err := r.TransactionStatus(ctx, tx.Id())
	if err != nil {
		return err
	}
	if !status.IsKnown() {
		return anchoring.IncorrectLect{
			Reason: "genesis funding transaction not known to the Bitcoin relay",
			Tx:     tx,
		}
	}
	return nil
}

func tallyLects(lects map[int][]btc.TxId) map[btc.TxId]int {
	counts := make(map[btc.TxId]int)
	for _, history := range lects {
		if len(history) == 0 {
			continue
		}
		counts[history[len(history)-1]]++
	}
	return counts
}
