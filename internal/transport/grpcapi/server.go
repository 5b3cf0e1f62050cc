// Package grpcapi serves the operation API over gRPC with a JSON codec and a
// hand-written service descriptor.
package grpcapi

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/core/observability"
	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	mylog "github.com/mohammed-shakir/geometry-operators/internal/logger"
)

const (
	serviceName   = "geometry.v1.GeometryOperators"
	executeMethod = "/" + serviceName + "/ExecuteOperation"
	streamMethod  = "/" + serviceName + "/StreamOperations"
)

// Operations is what the handlers call to evaluate requests.
type Operations interface {
	Execute(ctx context.Context, req *model.Request) (model.Response, error)
	Stream(ctx context.Context, req *model.Request, compact bool, send func(model.Response) error) error
}

type Server struct {
	ops Operations
}

// geometryOperatorsServer is the handler type checked by grpc.RegisterService.
type geometryOperatorsServer interface {
	ExecuteOperation(ctx context.Context, req *model.Request) (*model.Response, error)
	StreamOperations(req *model.Request, stream grpc.ServerStream) error
}

var _ geometryOperatorsServer = (*Server)(nil)

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*geometryOperatorsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ExecuteOperation",
			Handler:    executeHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamOperations",
			Handler:       streamHandler,
			ServerStreams: true,
		},
	},
	Metadata: "geometry/v1/operators.proto",
}

// Register adds the service to s.
func Register(s *grpc.Server, ops Operations) {
	s.RegisterService(&ServiceDesc, &Server{ops: ops})
}

// NewServer builds a gRPC server with the logging and recovery interceptors.
func NewServer(log *slog.Logger, ops Operations, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(unaryInterceptor(log)),
		grpc.ChainStreamInterceptor(streamInterceptor(log)),
	)
	s := grpc.NewServer(opts...)
	Register(s, ops)
	return s
}

func (s *Server) ExecuteOperation(ctx context.Context, req *model.Request) (*model.Response, error) {
	resp, err := s.ops.Execute(ctx, req)
	if err != nil {
		return nil, operr.GRPCStatus(err)
	}
	observability.IncStreamMessage("grpc")
	return &resp, nil
}

func (s *Server) StreamOperations(req *model.Request, stream grpc.ServerStream) error {
	err := s.ops.Stream(stream.Context(), req, false, func(resp model.Response) error {
		if err := stream.SendMsg(&resp); err != nil {
			return err
		}
		observability.IncStreamMessage("grpc")
		return nil
	})
	return operr.GRPCStatus(err)
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(model.Request)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(geometryOperatorsServer).ExecuteOperation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: executeMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(geometryOperatorsServer).ExecuteOperation(ctx, req.(*model.Request))
	}
	return interceptor(ctx, in, info, handler)
}

func streamHandler(srv any, stream grpc.ServerStream) error {
	in := new(model.Request)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(geometryOperatorsServer).StreamOperations(in, stream)
}

func requestContext(ctx context.Context) context.Context {
	var reqID string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("x-request-id"); len(v) > 0 {
			reqID = v[0]
		}
	}
	ctx = mylog.WithRequestID(ctx, reqID)
	ctx = mylog.WithComponent(ctx, "grpc")
	return mylog.WithTransport(ctx, "grpc")
}

func unaryInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		ctx = requestContext(ctx)
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				log.ErrorContext(ctx, "panic recovered", "method", info.FullMethod, "err", rec)
				err = status.Error(codes.Internal, "internal server error")
			}
			log.DebugContext(ctx, "grpc call", "method", info.FullMethod, "code", status.Code(err).String(), "took", time.Since(start))
		}()
		return handler(ctx, req)
	}
}

type ctxStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *ctxStream) Context() context.Context { return s.ctx }

func streamInterceptor(log *slog.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		ctx := requestContext(ss.Context())
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				log.ErrorContext(ctx, "panic recovered", "method", info.FullMethod, "err", rec)
				err = status.Error(codes.Internal, "internal server error")
			}
			log.DebugContext(ctx, "grpc stream", "method", info.FullMethod, "code", status.Code(err).String(), "took", time.Since(start))
		}()
		return handler(srv, &ctxStream{ServerStream: ss, ctx: ctx})
	}
}
