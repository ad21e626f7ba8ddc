// Package grpc 模拟服务的 gRPC 接口，消息以 google.protobuf.Struct 承载
package grpc

import (
	"context"
	"errors"

	"github.com/wyfcoding/riskengine/internal/simulation/application"
	"github.com/wyfcoding/riskengine/internal/simulation/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName 完整服务名
const ServiceName = "riskengine.v1.SimulationService"

// SimulationServiceServer 服务端接口
type SimulationServiceServer interface {
	PriceOption(context.Context, *PriceOptionRequest) (*application.OptionRun, error)
	EstimateVaR(context.Context, *EstimateVaRRequest) (*application.VaRRun, error)
	RunConvergence(context.Context, *ConvergenceRequest) (*application.ConvergenceRun, error)
	ListSimulations(context.Context, *ListSimulationsRequest) (*ListSimulationsResponse, error)
}

// Server 实现 SimulationServiceServer
type Server struct {
	app *application.SimulationService
}

// NewServer 创建服务并注册到 s
func NewServer(s *grpc.Server, app *application.SimulationService) *Server {
	srv := &Server{app: app}
	s.RegisterService(&serviceDesc, srv)
	return srv
}

func (s *Server) PriceOption(ctx context.Context, req *PriceOptionRequest) (*application.OptionRun, error) {
	run, err := s.app.PriceOption(ctx, req.command())
	if err != nil {
		return nil, toStatus(err)
	}
	return run, nil
}

func (s *Server) EstimateVaR(ctx context.Context, req *EstimateVaRRequest) (*application.VaRRun, error) {
	run, err := s.app.EstimateVaR(ctx, req.command())
	if err != nil {
		return nil, toStatus(err)
	}
	return run, nil
}

func (s *Server) RunConvergence(ctx context.Context, req *ConvergenceRequest) (*application.ConvergenceRun, error) {
	run, err := s.app.RunConvergence(ctx, req.command())
	if err != nil {
		return nil, toStatus(err)
	}
	return run, nil
}

func (s *Server) ListSimulations(ctx context.Context, req *ListSimulationsRequest) (*ListSimulationsResponse, error) {
	var (
		recs []*domain.SimulationRecord
		err  error
	)
	if req.Source == "store" {
		recs, err = s.app.ListStoredRecords(ctx, req.Limit)
	} else {
		recs, err = s.app.ListRecords(ctx, req.Limit)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListSimulationsResponse{Records: recs}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig), errors.Is(err, domain.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, application.ErrStoreUnavailable):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func unaryHandler[Req any, Resp any](newReq func() *Req, call func(SimulationServiceServer, context.Context, *Req) (Resp, error), method string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		wire := new(structpb.Struct)
		if err := dec(wire); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		in := newReq()
		if err := fromStruct(wire, in); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s := srv.(SimulationServiceServer)
		handle := func(ctx context.Context, req any) (any, error) {
			resp, err := call(s, ctx, req.(*Req))
			if err != nil {
				return nil, err
			}
			out, err := toStruct(resp)
			if err != nil {
				return nil, status.Error(codes.Internal, err.Error())
			}
			return out, nil
		}
		if interceptor == nil {
			return handle(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		return interceptor(ctx, in, info, handle)
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PriceOption",
			Handler:    unaryHandler(NewPriceOptionRequest, SimulationServiceServer.PriceOption, "PriceOption"),
		},
		{
			MethodName: "EstimateVaR",
			Handler:    unaryHandler(NewEstimateVaRRequest, SimulationServiceServer.EstimateVaR, "EstimateVaR"),
		},
		{
			MethodName: "RunConvergence",
			Handler:    unaryHandler(NewConvergenceRequest, SimulationServiceServer.RunConvergence, "RunConvergence"),
		},
		{
			MethodName: "ListSimulations",
			Handler: unaryHandler(func() *ListSimulationsRequest { return &ListSimulationsRequest{} },
				SimulationServiceServer.ListSimulations, "ListSimulations"),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: FileName,
}
