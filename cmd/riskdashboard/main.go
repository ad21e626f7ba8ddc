package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wyfcoding/riskengine/internal/simulation/application"
	grpc_server "github.com/wyfcoding/riskengine/internal/simulation/interfaces/grpc"
	http_handler "github.com/wyfcoding/riskengine/internal/simulation/interfaces/http"
	"github.com/wyfcoding/riskengine/pkg/config"
	"github.com/wyfcoding/riskengine/pkg/logger"
	"github.com/wyfcoding/riskengine/pkg/metrics"
	"github.com/wyfcoding/riskengine/pkg/middleware"
	"github.com/wyfcoding/riskengine/pkg/ratelimit"
	"github.com/wyfcoding/riskengine/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		logger.Fatal(context.Background(), "dashboard exited with error", "error", err)
	}
}

// loadConfig 命令行参数优先于环境变量与配置文件
func loadConfig(args []string) (*config.Config, error) {
	fs := pflag.NewFlagSet("riskdashboard", pflag.ContinueOnError)
	configPath := fs.String("config", "configs/riskengine.toml", "path to config file (optional)")
	fs.Int("port", 8080, "HTTP port to listen on")
	fs.Int("grpc-port", 0, "gRPC port, 0 disables the gRPC server")
	fs.String("static-root", "web", "directory with dashboard assets")
	fs.String("historical-symbol", "SPY", "symbol label for historical data")
	fs.String("historical-csv", "data/spy_2020_2024.csv", "path to historical CSV")
	fs.String("data-store", "data/simulations.jsonl", "path to persist simulation runs (JSONL)")
	fs.String("ledger-backend", "file", "persistent ledger: file, mysql, sqlite or none")
	fs.Int("max-records", 128, "maximum number of runs kept in memory")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, flag := range map[string]string{
		"http.port":           "port",
		"grpc.port":           "grpc-port",
		"static_root":         "static-root",
		"historical.symbol":   "historical-symbol",
		"historical.csv_path": "historical-csv",
		"data.file_store":     "data-store",
		"data.ledger_backend": "ledger-backend",
		"ledger.max_records":  "max-records",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(*configPath); err == nil {
		v.SetConfigFile(*configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}
	return config.Bind(v)
}

// run 阻塞到 ctx 取消或任一服务出错，随后关闭全部服务
func run(ctx context.Context, cfg *config.Config) error {
	// 1. Logger
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		return fmt.Errorf("init logger failed: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// 2. Tracing & Metrics
	if cfg.Tracing.Enabled {
		shutdown := tracing.Init(tracing.Config{ServiceName: cfg.Tracing.ServiceName, SampleRatio: cfg.Tracing.SampleRatio})
		defer func() { _ = shutdown(context.Background()) }()
	}
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.ServiceName)
	}

	// 3. Infrastructure & Application
	deps, err := buildDependencies(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer deps.Close()

	svc := application.NewSimulationService(deps.ledger, deps.options...)

	// 4. Interfaces
	router := newRouter(cfg, svc, m, deps.limiter)

	var grpcSrv *grpc.Server
	if cfg.GRPC.Port > 0 {
		grpcSrv = newGRPCServer(svc, m)
	}

	// 5. Start
	if m != nil && cfg.Metrics.Port > 0 {
		g.Go(func() error { return m.StartHTTPServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path) })
	}
	if grpcSrv != nil {
		g.Go(func() error {
			addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			logger.Info(ctx, "gRPC server starting", "addr", addr)
			if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		})
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	g.Go(func() error {
		logger.Info(ctx, "Risk dashboard running", "addr", server.Addr, "static_root", cfg.StaticRoot)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 6. Graceful Shutdown
	// 信号与服务出错都会取消 ctx，指标服务也随之退出
	g.Go(func() error {
		<-ctx.Done()
		logger.Info(ctx, "shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if grpcSrv != nil {
			grpcSrv.GracefulStop()
		}
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newRouter(cfg *config.Config, svc *application.SimulationService, m *metrics.Metrics, limiter ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 指标关闭时传入无类型 nil
	var rec middleware.HTTPRecorder
	if m != nil {
		rec = m
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.GinLogging(rec), middleware.GinRecovery(), middleware.GinCORS())
	if limiter != nil {
		r.Use(middleware.RateLimit(limiter, ratelimit.PerSecond(cfg.RateLimit.QPS, cfg.RateLimit.Burst)))
	}

	sys := r.Group("/sys")
	{
		sys.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
		sys.GET("/ready", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "READY"}) })
	}
	if m != nil && cfg.Metrics.Port == 0 {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}
	pp := r.Group("/debug/pprof")
	{
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pp.GET("/profile", gin.WrapF(pprof.Profile))
		pp.GET("/symbol", gin.WrapF(pprof.Symbol))
		pp.GET("/trace", gin.WrapF(pprof.Trace))
	}

	http_handler.NewSimulationHandler(svc, cfg.StaticRoot).RegisterRoutes(r)
	return r
}

func newGRPCServer(svc *application.SimulationService, m *metrics.Metrics) *grpc.Server {
	var rec middleware.GRPCRecorder
	if m != nil {
		rec = m
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.GRPCLogging(rec),
		middleware.GRPCRecovery(),
	))
	grpc_server.NewServer(s, svc)

	hs := health.NewServer()
	hs.SetServingStatus(grpc_server.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return s
}
