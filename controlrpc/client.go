package controlrpc

import (
	"context"

	"google.golang.org/grpc"
)

// ControlClient is the generated-shaped client struct cmd/anchorctl talks
// through; each method is a direct grpc.ClientConn.Invoke call against the
// hand-written ServiceDesc in service.go, since no protoc-generated stub
// exists to do this for us.
type ControlClient struct {
	conn *grpc.ClientConn
}

// NewControlClient wraps an already-dialed connection.
func NewControlClient(conn *grpc.ClientConn) *ControlClient {
	return &ControlClient{conn: conn}
}

// CallOption forwards to grpc.CallOption for callers that need e.g. a
// per-call content-subtype override.
type CallOption = grpc.CallOption

// ContentSubtypeOption forces the json codec registered in codec.go,
// since this service was never given a protobuf default.
func ContentSubtypeOption() CallOption {
	return grpc.CallContentSubtype("json")
}

func (c *ControlClient) Config(ctx context.Context, req *ConfigRequest) (*ConfigReply, error) {
	reply := new(ConfigReply)
	err := c.conn.Invoke(ctx, "/controlrpc.Control/Config", req, reply, ContentSubtypeOption())
	return reply, err
}

func (c *ControlClient) AnchoringProposal(ctx context.Context, req *AnchoringProposalRequest) (*AnchoringProposalReply, error) {
	reply := new(AnchoringProposalReply)
	err := c.conn.Invoke(ctx, "/controlrpc.Control/AnchoringProposal", req, reply, ContentSubtypeOption())
	return reply, err
}

func (c *ControlClient) AddFunds(ctx context.Context, req *AddFundsRequest) (*AddFundsReply, error) {
	reply := new(AddFundsReply)
	err := c.conn.Invoke(ctx, "/controlrpc.Control/AddFunds", req, reply, ContentSubtypeOption())
	return reply, err
}

func (c *ControlClient) Chain(ctx context.Context, req *ChainRequest) (*ChainReply, error) {
	reply := new(ChainReply)
	err := c.conn.Invoke(ctx, "/controlrpc.Control/Chain", req, reply, ContentSubtypeOption())
	return reply, err
}

func (c *ControlClient) TransactionsCount(ctx context.Context, req *TransactionsCountRequest) (*TransactionsCountReply, error) {
	reply := new(TransactionsCountReply)
	err := c.conn.Invoke(ctx, "/controlrpc.Control/TransactionsCount", req, reply, ContentSubtypeOption())
	return reply, err
}

func (c *ControlClient) Audit(ctx context.Context, req *AuditRequest) (*AuditReply, error) {
	reply := new(AuditReply)
	err := c.conn.Invoke(ctx, "/controlrpc.Control/Audit", req, reply, ContentSubtypeOption())
	return reply, err
}
