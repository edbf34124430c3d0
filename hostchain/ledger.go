package hostchain

import (
	"context"

	"github.com/bitanchor/anchoring/anchoring"
	"github.com/bitanchor/anchoring/btc"
)

// OpenProposal is the persisted form of anchoring.Proposal plus the
// signatures collected against it and the configuration index it was built
// under, so a reconfiguration can be detected and the proposal discarded
// (spec §4.4, "Reconfiguration").
type OpenProposal struct {
	Proposal    anchoring.Proposal
	ConfigIndex int
	Signatures  *anchoring.SignatureSet
}

// State is the full persisted state of one service instance (spec §4.4's
// `configs`, `chain`, `funds`, `current_proposal`, `lects`).
type State struct {
	Configs *anchoring.ConfigHistory
	Chain   *anchoring.Chain
	Funds   *anchoring.FundingQueue
	Height  uint64

	// LastConfigIndex is the ConfigHistory index active when the chain's
	// current tip was finalized, used to detect that a reconfiguration
	// since then still owes a transfer transaction (spec §4.4,
	// "Reconfiguration").
	LastConfigIndex int

	Proposal *OpenProposal

	// Lects holds each validator's full history of reported LECTs, most
	// recent last, per spec §3's "lects[v]: per-validator list of LECT
	// observations".
	Lects map[int][]btc.TxId

	// ProcessedFunding remembers funding-transaction ids already queued,
	// so a resubmitted AddFunds is a no-op (spec §4.4, "idempotent on
	// identical txid").
	ProcessedFunding map[btc.Hash]bool

	// ProcessedSignatures remembers signature content hashes already
	// recorded, so a resubmitted SignInput is a no-op (spec §4.4,
	// "idempotent: a second identical ... is a no-op").
	ProcessedSignatures map[btc.Hash]bool
}

// NewState returns an empty state seeded with the given genesis
// configuration. If genesis carries an InitialFunding transaction, its
// outputs paying the genesis address are queued immediately, so the first
// call to BuildProposal has something to spend (spec §4.3's genesis case).
func NewState(genesis anchoring.Configuration) *State {
	s := &State{
		Configs:             anchoring.NewConfigHistory(genesis),
		Chain:               anchoring.NewChain(),
		Funds:               anchoring.NewFundingQueue(),
		Lects:               make(map[int][]btc.TxId),
		ProcessedFunding:    make(map[btc.Hash]bool),
		ProcessedSignatures: make(map[btc.Hash]bool),
	}
	if genesis.InitialFunding != nil {
		_ = addFunds(s, *genesis.InitialFunding)
	}
	return s
}

// Clone returns a deep-enough copy for an optimistic-concurrency
// read-modify-write cycle: the slice/map-backed substructures are copied so
// a failed CAS never leaves the caller holding a state another goroutine is
// concurrently mutating.
func (s *State) Clone() *State {
	out := &State{
		Configs:         s.Configs.Clone(),
		Chain:           s.Chain.Clone(),
		Funds:           s.Funds.Clone(),
		Height:          s.Height,
		LastConfigIndex: s.LastConfigIndex,
	}
	if s.Proposal != nil {
		cp := *s.Proposal
		cp.Signatures = s.Proposal.Signatures.Clone()
		out.Proposal = &cp
	}
	out.Lects = make(map[int][]btc.TxId, len(s.Lects))
	for k, v := range s.Lects {
		cpv := make([]btc.TxId, len(v))
		copy(cpv, v)
		out.Lects[k] = cpv
	}
	out.ProcessedFunding = make(map[btc.Hash]bool, len(s.ProcessedFunding))
	for k, v := range s.ProcessedFunding {
		out.ProcessedFunding[k] = v
	}
	out.ProcessedSignatures = make(map[btc.Hash]bool, len(s.ProcessedSignatures))
	for k, v := range s.ProcessedSignatures {
		out.ProcessedSignatures[k] = v
	}
	return out
}

// Ledger is the narrow storage abstraction the state machine and
// PrivateAPI facade run against (spec §3, "(NEW) Persisted record
// layout"). Load returns the current state and an opaque version token;
// Save writes a new state conditioned on that token still being current,
// returning Conflict if another writer updated it first. This
// load-mutate-CAS shape is the same one memory.go and etcdledger.go both
// implement, so the proposal state machine in statemachine.go is written
// once against the interface and never against a specific backend.
type Ledger interface {
	Load(ctx context.Context) (*State, int64, error)
	Save(ctx context.Context, state *State, expectedVersion int64) (int64, error)
}
