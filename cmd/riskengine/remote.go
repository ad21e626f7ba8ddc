package main

import (
	"context"
	"time"

	"github.com/wyfcoding/riskengine/internal/simulation/application"
	grpc_server "github.com/wyfcoding/riskengine/internal/simulation/interfaces/grpc"
	"github.com/wyfcoding/riskengine/pkg/grpcclient"
)

// remoteRunner 通过 gRPC 在 riskdashboard 上执行
type remoteRunner struct {
	client *grpc_server.Client
}

func dialRemote(addr string, timeout time.Duration) (runner, func(), error) {
	conn, err := grpcclient.NewClient(grpcclient.ClientConfig{
		Target:         addr,
		ConnTimeout:    5,
		RequestTimeout: int(timeout / time.Second),
		MaxRetries:     2,
		RetryDelay:     200,
	})
	if err != nil {
		return nil, nil, err
	}
	return &remoteRunner{client: grpc_server.NewClient(conn)}, func() { _ = conn.Close() }, nil
}

func (r *remoteRunner) PriceOption(ctx context.Context, cmd application.PriceOptionCommand) (*application.OptionRun, error) {
	return r.client.PriceOption(ctx, &grpc_server.PriceOptionRequest{
		Market:     cmd.Market,
		Simulation: cmd.Simulation,
		Option:     cmd.Option,
	})
}

func (r *remoteRunner) EstimateVaR(ctx context.Context, cmd application.EstimateVaRCommand) (*application.VaRRun, error) {
	return r.client.EstimateVaR(ctx, &grpc_server.EstimateVaRRequest{
		Market:     cmd.Market,
		Simulation: cmd.Simulation,
		VaR:        cmd.VaR,
	})
}

func (r *remoteRunner) RunConvergence(ctx context.Context, cmd application.ConvergenceCommand) (*application.ConvergenceRun, error) {
	return r.client.RunConvergence(ctx, &grpc_server.ConvergenceRequest{
		Market:      cmd.Market,
		Simulation:  cmd.Simulation,
		Option:      cmd.Option,
		SampleSizes: cmd.SampleSizes,
	})
}
