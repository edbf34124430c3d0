package hostchain

import (
	"context"

	"github.com/bitanchor/anchoring/anchoring"
	"github.com/bitanchor/anchoring/btc"
)

// PrivateAPI is the off-chain-facing host-chain RPC of spec §6, consumed by
// the chain-update task (C5) and the Bitcoin sync task (C6). It is
// implemented once, against Ledger, so the exact same code path serves
// both the in-memory test harness and the etcd-backed deployment.
type PrivateAPI interface {
	Config(ctx context.Context) (anchoring.Configuration, error)
	AnchoringProposal(ctx context.Context) (AnchoringProposalReply, error)
	SignInput(ctx context.Context, msg SignInputMsg, pub btc.PublicKey) (btc.Hash, error)
	AddFunds(ctx context.Context, tx btc.Tx) (btc.Hash, error)
	TransactionWithIndex(ctx context.Context, i uint64) (btc.Tx, bool, error)
	TransactionsCount(ctx context.Context) (uint64, error)
}

type api struct {
	ledger Ledger
	sm     *StateMachine
}

// NewPrivateAPI builds the PrivateAPI facade over ledger.
func NewPrivateAPI(ledger Ledger) PrivateAPI {
	return &api{ledger: ledger, sm: NewStateMachine(ledger)}
}

func (a *api) Config(ctx context.Context) (anchoring.Configuration, error) {
	state, err := a.sm.Snapshot(ctx)
	if err != nil {
		return anchoring.Configuration{}, err
	}
	return state.Configs.ActiveAt(state.Height), nil
}

func (a *api) AnchoringProposal(ctx context.Context) (AnchoringProposalReply, error) {
	state, err := a.sm.Snapshot(ctx)
	if err != nil {
		return AnchoringProposalReply{}, err
	}
	if state.Proposal != nil {
		return AnchoringProposalReply{Status: ProposalAvailable, Proposal: state.Proposal.Proposal}, nil
	}

	entry, _ := state.Configs.EntryAt(state.Height)
	_, err = anchoring.BuildProposal(state.Chain, state.Funds, entry.Config, state.Height, btc.Hash{})
	switch e := err.(type) {
	case nil:
		// A proposal is now buildable but OnBlock has not yet stored
		// it; report None until the next block hook runs, matching
		// the on-chain state machine's own timing.
		return AnchoringProposalReply{Status: ProposalNone}, nil
	case anchoring.InsufficientFunds:
		return AnchoringProposalReply{Status: ProposalInsufficientFunds, Balance: e.Balance, Needed: e.Needed}, nil
	case anchoring.NoInitialFunds:
		return AnchoringProposalReply{Status: ProposalNoInitialFunds}, nil
	default:
		return AnchoringProposalReply{}, err
	}
}

func (a *api) SignInput(ctx context.Context, msg SignInputMsg, pub btc.PublicKey) (btc.Hash, error) {
	if err := a.sm.SignInput(ctx, msg, pub); err != nil {
		return btc.Hash{}, err
	}
	return msg.ContentHash(), nil
}

func (a *api) AddFunds(ctx context.Context, tx btc.Tx) (btc.Hash, error) {
	if err := a.sm.AddFunds(ctx, tx); err != nil {
		return btc.Hash{}, err
	}
	return tx.Id(), nil
}

func (a *api) TransactionWithIndex(ctx context.Context, i uint64) (btc.Tx, bool, error) {
	state, err := a.sm.Snapshot(ctx)
	if err != nil {
		return btc.Tx{}, false, err
	}
	if i >= uint64(state.Chain.Len()) {
		return btc.Tx{}, false, nil
	}
	return state.Chain.At(int(i)).Tx, true, nil
}

func (a *api) TransactionsCount(ctx context.Context) (uint64, error) {
	state, err := a.sm.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return uint64(state.Chain.Len()), nil
}
