package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/wyfcoding/riskengine/internal/simulation/application"
	"github.com/wyfcoding/riskengine/internal/simulation/infrastructure/ledger"
	"github.com/wyfcoding/riskengine/pkg/middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
)

func startServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(middleware.GRPCLogging(nil), middleware.GRPCRecovery()))
	NewServer(s, application.NewSimulationService(ledger.New(8)))
	healthpb.RegisterHealthServer(s, health.NewServer())
	reflection.Register(s)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestSimulationServiceOverBufconn(t *testing.T) {
	conn := startServer(t)
	client := NewClient(conn)
	ctx := context.Background()

	opt := NewPriceOptionRequest()
	opt.Simulation.Paths, opt.Simulation.TimeSteps, opt.Simulation.Workers = 1000, 4, 2
	run, err := client.PriceOption(ctx, opt)
	if err != nil {
		t.Fatal(err)
	}
	if run.Result.Scenarios != 2000 || run.Result.AnalyticPrice < 8.34 || run.Result.AnalyticPrice > 8.36 {
		t.Errorf("option run = %+v", run.Result)
	}

	v := NewEstimateVaRRequest()
	v.Simulation.Paths, v.Simulation.TimeSteps = 1000, 4
	vr, err := client.EstimateVaR(ctx, v)
	if err != nil {
		t.Fatal(err)
	}
	if vr.Result.Percentile != 0.99 || vr.Result.ValueAtRisk <= 0 {
		t.Errorf("var run = %+v", vr.Result)
	}

	c := NewConvergenceRequest()
	c.Simulation.TimeSteps = 4
	c.SampleSizes = []int{100, 400}
	cr, err := client.RunConvergence(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if len(cr.Result) != 2 {
		t.Errorf("convergence points = %d", len(cr.Result))
	}

	list, err := client.ListSimulations(ctx, &ListSimulationsRequest{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Records) != 2 || list.Records[0].Command != "convergence" {
		t.Errorf("records = %d, first=%v", len(list.Records), list.Records)
	}
}

func TestStatusCodes(t *testing.T) {
	client := NewClient(startServer(t))
	ctx := context.Background()

	bad := NewPriceOptionRequest()
	bad.Market.Volatility = 0
	if _, err := client.PriceOption(ctx, bad); status.Code(err) != codes.InvalidArgument {
		t.Errorf("zero vol code = %v", status.Code(err))
	}

	if _, err := client.ListSimulations(ctx, &ListSimulationsRequest{Source: "store"}); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("store code = %v", status.Code(err))
	}
}

func TestHealth(t *testing.T) {
	conn := startServer(t)
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v", resp.Status)
	}
}

func TestDescriptorMatchesServiceDesc(t *testing.T) {
	svc := fileDescriptor.Services().ByName("SimulationService")
	if svc == nil || string(svc.FullName()) != ServiceName {
		t.Fatalf("service descriptor = %v", svc)
	}
	if svc.Methods().Len() != len(serviceDesc.Methods) {
		t.Fatalf("descriptor methods = %d, service methods = %d", svc.Methods().Len(), len(serviceDesc.Methods))
	}
	for _, m := range serviceDesc.Methods {
		md := svc.Methods().ByName(protoreflect.Name(m.MethodName))
		if md == nil {
			t.Errorf("method %s missing from descriptor", m.MethodName)
			continue
		}
		if md.Input().FullName() != "google.protobuf.Struct" || md.Output().FullName() != "google.protobuf.Struct" {
			t.Errorf("%s types = %s -> %s", m.MethodName, md.Input().FullName(), md.Output().FullName())
		}
	}
}

func TestStandardCodecWithStruct(t *testing.T) {
	conn := startServer(t)
	req, err := structpb.NewStruct(map[string]any{
		"simulation": map[string]any{"paths": 500, "time_steps": 2, "workers": 1},
		"option":     map[string]any{"strike": 90, "is_call": false},
	})
	if err != nil {
		t.Fatal(err)
	}
	reply := new(structpb.Struct)
	if err := conn.Invoke(context.Background(), "/"+ServiceName+"/PriceOption", req, reply); err != nil {
		t.Fatal(err)
	}
	result := reply.GetFields()["result"].GetStructValue().GetFields()
	if got := result["scenarios"].GetNumberValue(); got != 1000 {
		t.Errorf("scenarios = %v, want 1000", got)
	}
	if reply.GetFields()["workers"].GetNumberValue() != 1 {
		t.Errorf("workers = %v", reply.GetFields()["workers"])
	}
}

func TestReflectionDescribesService(t *testing.T) {
	conn := startServer(t)
	stream, err := reflectionpb.NewServerReflectionClient(conn).ServerReflectionInfo(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = stream.CloseSend() }()

	if err := stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_ListServices{ListServices: "*"},
	}); err != nil {
		t.Fatal(err)
	}
	resp, err := stream.Recv()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, svc := range resp.GetListServicesResponse().GetService() {
		found = found || svc.GetName() == ServiceName
	}
	if !found {
		t.Fatalf("%s not listed: %v", ServiceName, resp.GetListServicesResponse().GetService())
	}

	if err := stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_FileContainingSymbol{FileContainingSymbol: ServiceName},
	}); err != nil {
		t.Fatal(err)
	}
	resp, err = stream.Recv()
	if err != nil {
		t.Fatal(err)
	}
	files := resp.GetFileDescriptorResponse().GetFileDescriptorProto()
	if len(files) == 0 {
		t.Fatalf("no descriptor returned: %v", resp.GetErrorResponse())
	}
	var fd descriptorpb.FileDescriptorProto
	if err := proto.Unmarshal(files[0], &fd); err != nil {
		t.Fatal(err)
	}
	if fd.GetName() != FileName || len(fd.GetService()) != 1 || len(fd.GetService()[0].GetMethod()) != 4 {
		t.Errorf("descriptor = %s with %d services", fd.GetName(), len(fd.GetService()))
	}
}
