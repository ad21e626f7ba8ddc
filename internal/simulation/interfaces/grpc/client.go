package grpc

import (
	"context"

	"github.com/wyfcoding/riskengine/internal/simulation/application"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client SimulationService 客户端
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient 包装连接
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// invoke 请求与响应都经 Struct 编码，走默认 proto 编解码
func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	reply := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, reply, opts...); err != nil {
		return err
	}
	return fromStruct(reply, out)
}

func (c *Client) PriceOption(ctx context.Context, in *PriceOptionRequest, opts ...grpc.CallOption) (*application.OptionRun, error) {
	out := new(application.OptionRun)
	if err := c.invoke(ctx, "PriceOption", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) EstimateVaR(ctx context.Context, in *EstimateVaRRequest, opts ...grpc.CallOption) (*application.VaRRun, error) {
	out := new(application.VaRRun)
	if err := c.invoke(ctx, "EstimateVaR", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RunConvergence(ctx context.Context, in *ConvergenceRequest, opts ...grpc.CallOption) (*application.ConvergenceRun, error) {
	out := new(application.ConvergenceRun)
	if err := c.invoke(ctx, "RunConvergence", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListSimulations(ctx context.Context, in *ListSimulationsRequest, opts ...grpc.CallOption) (*ListSimulationsResponse, error) {
	out := new(ListSimulationsResponse)
	if err := c.invoke(ctx, "ListSimulations", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
