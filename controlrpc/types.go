// Package controlrpc is the validator node's control-plane gRPC surface:
// operators (via cmd/anchorctl) and other in-cluster tooling query
// proposal state, submit funding transactions, and read the confirmed
// chain through it. Spec §6 describes the operations; this package gives
// them a concrete, hand-written gRPC service definition (no protoc is
// available in this environment to generate the usual .pb.go stubs, so the
// request/response types below are plain Go structs marshaled with the
// JSON codec in codec.go rather than protobuf-generated message types),
// following the same "thin server type delegating to the domain layer"
// shape as rpcserver.go.
package controlrpc

// ConfigRequest has no fields: it asks for the currently active
// anchoring configuration.
type ConfigRequest struct{}

// ConfigReply mirrors anchoring.Configuration in a JSON-friendly shape.
type ConfigReply struct {
	ValidatorPubKeys []string
	Interval         uint64
	FeeRatePerVByte  int64
	Network          string
	Address          string
}

// AnchoringProposalRequest has no fields.
type AnchoringProposalRequest struct{}

// AnchoringProposalReply mirrors hostchain.AnchoringProposalReply.
type AnchoringProposalReply struct {
	Status  string
	TxHex   string // set only when Status == "available"
	Balance int64
	Needed  int64
}

// AddFundsRequest carries a raw, consensus-serialized funding transaction.
type AddFundsRequest struct {
	TxHex string
}

// AddFundsReply returns the content hash used as the submission's
// idempotence key.
type AddFundsReply struct {
	ContentHashHex string
}

// ChainRequest asks for the confirmed anchoring-chain transaction at Index.
type ChainRequest struct {
	Index uint64
}

// ChainReply returns the transaction at the requested index, if any.
type ChainReply struct {
	Found bool
	TxHex string
}

// TransactionsCountRequest has no fields.
type TransactionsCountRequest struct{}

// TransactionsCountReply reports the confirmed anchoring chain's length.
type TransactionsCountReply struct {
	Count uint64
}

// AuditRequest has no fields: it asks the node to run one audit pass
// against its current view of the relay.
type AuditRequest struct{}

// AuditReply lists every audit error encountered, as human-readable
// strings; an empty Errors slice means the chain audited clean.
type AuditReply struct {
	Errors []string
}
