package controlrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// ControlServer is implemented by the validator node process and invoked
// through ServiceDesc below; see cmd/anchord's control.go for the concrete
// implementation backed by hostchain.PrivateAPI and package audit.
type ControlServer interface {
	Config(ctx context.Context, req *ConfigRequest) (*ConfigReply, error)
	AnchoringProposal(ctx context.Context, req *AnchoringProposalRequest) (*AnchoringProposalReply, error)
	AddFunds(ctx context.Context, req *AddFundsRequest) (*AddFundsReply, error)
	Chain(ctx context.Context, req *ChainRequest) (*ChainReply, error)
	TransactionsCount(ctx context.Context, req *TransactionsCountRequest) (*TransactionsCountReply, error)
	Audit(ctx context.Context, req *AuditRequest) (*AuditReply, error)
}

// RegisterControlServer wires srv into s the way a protoc-generated
// RegisterXxxServer function would, against the hand-written ServiceDesc
// below.
func RegisterControlServer(s *grpc.Server, srv ControlServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "controlrpc.Control",
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Config", Handler: configHandler},
		{MethodName: "AnchoringProposal", Handler: anchoringProposalHandler},
		{MethodName: "AddFunds", Handler: addFundsHandler},
		{MethodName: "Chain", Handler: chainHandler},
		{MethodName: "TransactionsCount", Handler: transactionsCountHandler},
		{MethodName: "Audit", Handler: auditHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "controlrpc.proto",
}

func configHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(ConfigRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Config(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/controlrpc.Control/Config"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).Config(ctx, req.(*ConfigRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func anchoringProposalHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(AnchoringProposalRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).AnchoringProposal(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/controlrpc.Control/AnchoringProposal"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).AnchoringProposal(ctx, req.(*AnchoringProposalRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func addFundsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(AddFundsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).AddFunds(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/controlrpc.Control/AddFunds"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).AddFunds(ctx, req.(*AddFundsRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func chainHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(ChainRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Chain(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/controlrpc.Control/Chain"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).Chain(ctx, req.(*ChainRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func transactionsCountHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(TransactionsCountRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).TransactionsCount(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/controlrpc.Control/TransactionsCount"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).TransactionsCount(ctx, req.(*TransactionsCountRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func auditHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(AuditRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Audit(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/controlrpc.Control/Audit"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).Audit(ctx, req.(*AuditRequest))
	}
	return interceptor(ctx, req, info, handler)
}
