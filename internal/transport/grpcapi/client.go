package grpcapi

import (
	"context"

	"google.golang.org/grpc"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
)

// Client calls the operation service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Execute(ctx context.Context, req *model.Request, opts ...grpc.CallOption) (*model.Response, error) {
	out := new(model.Response)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(Name)}, opts...)
	if err := c.cc.Invoke(ctx, executeMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream starts a server stream. Recv returns io.EOF once the server is done.
func (c *Client) Stream(ctx context.Context, req *model.Request, opts ...grpc.CallOption) (*ResponseStream, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(Name)}, opts...)
	cs, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], streamMethod, opts...)
	if err != nil {
		return nil, err
	}
	if err := cs.SendMsg(req); err != nil {
		return nil, err
	}
	if err := cs.CloseSend(); err != nil {
		return nil, err
	}
	return &ResponseStream{cs: cs}, nil
}

type ResponseStream struct {
	cs grpc.ClientStream
}

func (s *ResponseStream) Recv() (*model.Response, error) {
	m := new(model.Response)
	if err := s.cs.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
