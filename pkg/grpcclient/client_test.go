package grpcclient

import (
	"context"
	"testing"

	"github.com/wyfcoding/riskengine/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestInterceptorRetriesUnavailable(t *testing.T) {
	calls := 0
	invoker := func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		calls++
		if calls < 3 {
			return status.Error(codes.Unavailable, "down")
		}
		md, _ := metadata.FromOutgoingContext(ctx)
		if got := md.Get("x-request-id"); len(got) != 1 || got[0] != "req-1" {
			t.Errorf("x-request-id = %v", got)
		}
		return nil
	}

	ic := unaryClientInterceptor(ClientConfig{MaxRetries: 3, RetryDelay: 1})
	ctx := logger.ContextWithIDs(context.Background(), "req-1", "", "")
	if err := ic(ctx, "/svc/M", nil, nil, nil, invoker); err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestInterceptorDoesNotRetryInvalidArgument(t *testing.T) {
	calls := 0
	invoker := func(context.Context, string, any, any, *grpc.ClientConn, ...grpc.CallOption) error {
		calls++
		return status.Error(codes.InvalidArgument, "bad")
	}
	ic := unaryClientInterceptor(ClientConfig{MaxRetries: 5})
	if err := ic(context.Background(), "/svc/M", nil, nil, nil, invoker); status.Code(err) != codes.InvalidArgument {
		t.Errorf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestNewClientIsLazy(t *testing.T) {
	conn, err := NewClient(ClientConfig{Target: "passthrough:///127.0.0.1:1", ConnTimeout: 1})
	if err != nil {
		t.Fatal(err)
	}
	_ = conn.Close()
}
