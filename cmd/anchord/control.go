package main

import (
	"context"

	"github.com/bitanchor/anchoring/audit"
	"github.com/bitanchor/anchoring/btc"
	"github.com/bitanchor/anchoring/controlrpc"
	"github.com/bitanchor/anchoring/hostchain"
	"github.com/bitanchor/anchoring/metrics"
	"github.com/bitanchor/anchoring/relay"
)

// controlServer implements controlrpc.ControlServer directly against a
// PrivateAPI/StateMachine pair over the same ledger cmd/anchord's sync
// tasks run against, so control-plane reads never drift from what the
// tasks themselves see.
type controlServer struct {
	api   hostchain.PrivateAPI
	sm    *hostchain.StateMachine
	relay relay.Relay
	hosts audit.HostBlockHashes // may be nil; CheckChain then skips the payload check
	mx    *metrics.Collectors
}

func newControlServer(ledger hostchain.Ledger, r relay.Relay, hosts audit.HostBlockHashes, mx *metrics.Collectors) *controlServer {
	return &controlServer{
		api:   hostchain.NewPrivateAPI(ledger),
		sm:    hostchain.NewStateMachine(ledger),
		relay: r,
		hosts: hosts,
		mx:    mx,
	}
}

func (s *controlServer) Config(ctx context.Context, _ *controlrpc.ConfigRequest) (*controlrpc.ConfigReply, error) {
	cfg, err := s.api.Config(ctx)
	if err != nil {
		return nil, err
	}
	addr, err := cfg.Address()
	if err != nil {
		return nil, err
	}
	pubkeys := make([]string, len(cfg.Validators))
	for i, v := range cfg.Validators {
		pubkeys[i] = v.Hex()
	}
	return &controlrpc.ConfigReply{
		ValidatorPubKeys: pubkeys,
		Interval:         cfg.Interval,
		FeeRatePerVByte:  cfg.FeeRatePerVByte,
		Network:          cfg.Net.String(),
		Address:          addr,
	}, nil
}

func (s *controlServer) AnchoringProposal(ctx context.Context, _ *controlrpc.AnchoringProposalRequest) (*controlrpc.AnchoringProposalReply, error) {
	reply, err := s.api.AnchoringProposal(ctx)
	if err != nil {
		return nil, err
	}
	out := &controlrpc.AnchoringProposalReply{Balance: reply.Balance, Needed: reply.Needed}
	switch reply.Status {
	case hostchain.ProposalAvailable:
		out.Status = "available"
		out.TxHex = reply.Proposal.Tx.Hex()
		if s.mx != nil {
			s.mx.ProposalsBuilt.Inc()
		}
	case hostchain.ProposalInsufficientFunds:
		out.Status = "insufficient_funds"
		if s.mx != nil {
			s.mx.InsufficientFundsHits.Inc()
		}
	case hostchain.ProposalNoInitialFunds:
		out.Status = "no_initial_funds"
	default:
		out.Status = "none"
	}
	return out, nil
}

func (s *controlServer) AddFunds(ctx context.Context, req *controlrpc.AddFundsRequest) (*controlrpc.AddFundsReply, error) {
	tx, err := btc.ParseTxHex(req.TxHex)
	if err != nil {
		return nil, err
	}
	contentHash, err := s.api.AddFunds(ctx, tx)
	if err != nil {
		return nil, err
	}
	return &controlrpc.AddFundsReply{ContentHashHex: contentHash.Hex()}, nil
}

func (s *controlServer) Chain(ctx context.Context, req *controlrpc.ChainRequest) (*controlrpc.ChainReply, error) {
	tx, found, err := s.api.TransactionWithIndex(ctx, req.Index)
	if err != nil {
		return nil, err
	}
	if !found {
		return &controlrpc.ChainReply{Found: false}, nil
	}
	return &controlrpc.ChainReply{Found: true, TxHex: tx.Hex()}, nil
}

func (s *controlServer) TransactionsCount(ctx context.Context, _ *controlrpc.TransactionsCountRequest) (*controlrpc.TransactionsCountReply, error) {
	count, err := s.api.TransactionsCount(ctx)
	if err != nil {
		return nil, err
	}
	return &controlrpc.TransactionsCountReply{Count: count}, nil
}

func (s *controlServer) Audit(ctx context.Context, _ *controlrpc.AuditRequest) (*controlrpc.AuditReply, error) {
	state, err := s.sm.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	errs := audit.CheckChain(ctx, state, s.relay, s.hosts)
	entry, _ := state.Configs.EntryAt(0)
	if err := audit.CheckGenesisFunding(ctx, entry.Config, s.relay); err != nil {
		errs = append(errs, err)
	}
	if s.mx != nil {
		for range errs {
			s.mx.AuditFailures.Inc()
		}
	}
	reply := &controlrpc.AuditReply{Errors: make([]string, len(errs))}
	for i, e := range errs {
		reply.Errors[i] = e.Error()
	}
	return reply, nil
}
