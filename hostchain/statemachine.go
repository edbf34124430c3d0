package hostchain

import (
	"context"

	"github.com/bitanchor/anchoring/anchoring"
	"github.com/bitanchor/anchoring/btc"
)

// maxCASRetries bounds the optimistic-concurrency retry loop used by every
// StateMachine mutation. A real etcd deployment only contends under
// concurrent submissions from several validators racing the same
// transition; a handful of retries is ample since losers simply replay
// against the freshly loaded state.
const maxCASRetries = 20

// StateMachine implements the on-chain transitions of spec §4.4 against a
// Ledger. Every exported method loads the current state, applies a pure
// mutation, and saves it back with compare-and-swap; on Conflict it reloads
// and retries, exactly the pattern a real etcd-backed deployment needs and
// the in-memory fake exercises identically.
type StateMachine struct {
	ledger Ledger
}

// NewStateMachine wraps ledger.
func NewStateMachine(ledger Ledger) *StateMachine {
	return &StateMachine{ledger: ledger}
}

// Snapshot returns the current state without mutating it.
func (sm *StateMachine) Snapshot(ctx context.Context) (*State, error) {
	state, _, err := sm.ledger.Load(ctx)
	return state, err
}

// mutate runs fn against a freshly loaded state and saves the result,
// retrying on Conflict.
func (sm *StateMachine) mutate(ctx context.Context, fn func(*State) error) error {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		state, version, err := sm.ledger.Load(ctx)
		if err != nil {
			return err
		}
		state = state.Clone()
		if err := fn(state); err != nil {
			return err
		}
		if _, err := sm.ledger.Save(ctx, state, version); err != nil {
			if _, ok := err.(Conflict); ok {
				continue
			}
			return err
		}
		return nil
	}
	return Conflict{}
}

// AddFunds implements spec §4.4's AddFunds transition: validates tx pays
// the active configuration's address and queues every such output,
// idempotently on txid.
func (sm *StateMachine) AddFunds(ctx context.Context, tx btc.Tx) error {
	return sm.mutate(ctx, func(state *State) error {
		return addFunds(state, tx)
	})
}

func addFunds(state *State, tx btc.Tx) error {
	txID := tx.Id()
	if state.ProcessedFunding[txID] {
		return nil
	}
	cfg := state.Configs.ActiveAt(state.Height)
	pkScript, err := cfg.PkScript()
	if err != nil {
		return err
	}
	found := false
	for vout := 0; vout < tx.NumOutputs(); vout++ {
		if bytesEqual(tx.OutputScript(vout), pkScript) {
			found = true
			if !state.Funds.Contains(txID, uint32(vout)) {
				state.Funds.Push(anchoring.FundingEntry{
					TxId: txID, Vout: uint32(vout), Value: tx.OutputValue(vout),
				})
			}
		}
	}
	if !found {
		return ScriptMismatch{}
	}
	state.ProcessedFunding[txID] = true
	return nil
}

// ScriptMismatch is returned by AddFunds when tx pays none of its outputs
// to the active configuration's address.
type ScriptMismatch struct{}

func (e ScriptMismatch) Error() string {
	return "hostchain: funding transaction pays no output to the active address"
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SignInput implements spec §4.4's SignInput transition.
func (sm *StateMachine) SignInput(ctx context.Context, msg SignInputMsg, pub btc.PublicKey) error {
	return sm.mutate(ctx, func(state *State) error {
		return signInput(state, msg, pub)
	})
}

func signInput(state *State, msg SignInputMsg, pub btc.PublicKey) error {
	if state.Proposal == nil {
		return NoActiveProposal{}
	}
	proposalID := state.Proposal.Proposal.Tx.Id()
	if !proposalID.Equal(msg.TxId) {
		return WrongTxId{Got: msg.TxId, Want: proposalID}
	}
	if int(msg.InputIndex) < 0 || int(msg.InputIndex) >= state.Proposal.Proposal.Tx.NumInputs() {
		return InputOutOfRange{Index: int(msg.InputIndex), NumInputs: state.Proposal.Proposal.Tx.NumInputs()}
	}

	contentHash := msg.ContentHash()
	if state.ProcessedSignatures[contentHash] {
		return nil
	}

	entry, _ := state.Configs.EntryAt(state.Height)
	validatorIdx := entry.Config.ValidatorIndex(pub)
	if validatorIdx < 0 {
		return NotAValidator{}
	}

	if err := state.Proposal.Signatures.SignInput(int(msg.InputIndex), validatorIdx, pub, msg.Signature); err != nil {
		return BadSignature{Reason: err.Error()}
	}
	state.ProcessedSignatures[contentHash] = true

	if state.Lects == nil {
		state.Lects = make(map[int][]btc.TxId)
	}
	state.Lects[validatorIdx] = append(state.Lects[validatorIdx], msg.TxId)

	if state.Proposal.Signatures.Ready() {
		finalized, err := state.Proposal.Signatures.Finalize()
		if err != nil {
			return err
		}
		if err := state.Chain.Append(anchoring.ChainEntry{
			Tx:                  finalized,
			PayloadHeight:       state.Proposal.Proposal.Payload.HostBlockHeight,
			PayloadHash:         state.Proposal.Proposal.Payload.HostBlockHash,
			SpentFundingOutputs: state.Proposal.Proposal.ConsumedFunding,
		}); err != nil {
			return err
		}
		// The finalized transaction carries witnesses, so its id differs
		// from the unsigned proposal's; each signer's latest LECT becomes
		// the id of the entry just appended to the chain.
		finalizedID := finalized.Id()
		for _, history := range state.Lects {
			if n := len(history); n > 0 && history[n-1].Equal(proposalID) {
				history[n-1] = finalizedID
			}
		}
		state.Funds.PopFront(len(state.Proposal.Proposal.ConsumedFunding))
		state.LastConfigIndex = state.Proposal.ConfigIndex
		state.Proposal = nil
	}
	return nil
}

// OnBlock implements spec §4.4's block hook: discards a proposal built
// under a superseded configuration, then attempts to build a new one once
// the chain crosses its next anchoring boundary.
func (sm *StateMachine) OnBlock(ctx context.Context, height uint64, hostBlockHash btc.Hash) error {
	return sm.mutate(ctx, func(state *State) error {
		state.Height = height
		entry, idx := state.Configs.EntryAt(height)

		if state.Proposal != nil && state.Proposal.ConfigIndex != idx {
			state.Proposal = nil
		}
		if state.Proposal != nil {
			return nil
		}

		var boundary uint64
		if state.Chain.Len() == 0 {
			// Genesis proposal always targets height 0, never a full
			// Interval in: there is no prior payload height to round up
			// from yet (spec §8, Scenario 1).
			boundary = 0
		} else {
			boundary = entry.Config.NearestAnchoringHeight(state.Chain.LastPayloadHeight())
		}
		pendingReconfig := state.Chain.Len() > 0 && idx != state.LastConfigIndex
		if height < boundary && !pendingReconfig {
			return nil
		}

		proposal, err := anchoring.BuildProposal(state.Chain, state.Funds, entry.Config, boundary, hostBlockHash)
		if err != nil {
			// InsufficientFunds/NoInitialFunds are reported via the
			// query API (AnchoringProposal), not stored; leave
			// Proposal nil and surface nothing fatal here.
			return nil
		}
		state.Proposal = &OpenProposal{
			Proposal:    proposal,
			ConfigIndex: idx,
			Signatures:  anchoring.NewSignatureSet(proposal),
		}
		return nil
	})
}
