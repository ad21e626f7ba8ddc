// Package metrics Prometheus 指标集合与暴露
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/riskengine/pkg/logger"
)

const namespace = "riskengine"

// Metrics 指标集合，每个实例使用独立的 Registry
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	GRPCRequestsTotal   *prometheus.CounterVec
	GRPCRequestDuration *prometheus.HistogramVec

	SimulationRuns      *prometheus.CounterVec
	SimulationDuration  *prometheus.HistogramVec
	SimulationScenarios *prometheus.CounterVec
	CacheHits           *prometheus.CounterVec
	LedgerRecords       prometheus.Gauge
}

// New 创建并注册全部指标
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "Total HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),
		GRPCRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "grpc_requests_total",
			Help:        "Total gRPC requests",
			ConstLabels: constLabels,
		}, []string{"method", "code"}),
		GRPCRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "grpc_request_duration_seconds",
			Help:        "gRPC request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method"}),

		SimulationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "simulation_runs_total",
			Help:        "Simulation runs by command and outcome",
			ConstLabels: constLabels,
		}, []string{"command", "status"}),
		SimulationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "simulation_duration_seconds",
			Help:        "Wall-clock duration of simulation runs",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"command"}),
		SimulationScenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "simulation_scenarios_total",
			Help:        "Simulated scenarios processed",
			ConstLabels: constLabels,
		}, []string{"command"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "simulation_cache_hits_total",
			Help:        "Simulation results served from cache",
			ConstLabels: constLabels,
		}, []string{"command"}),
		LedgerRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "ledger_records",
			Help:        "Records held by the in-memory run ledger",
			ConstLabels: constLabels,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GRPCRequestsTotal,
		m.GRPCRequestDuration,
		m.SimulationRuns,
		m.SimulationDuration,
		m.SimulationScenarios,
		m.CacheHits,
		m.LedgerRecords,
	)
	return m
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// StartHTTPServer 在独立端口暴露指标，ctx 取消时关闭
func (m *Metrics) StartHTTPServer(ctx context.Context, port int, path string) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	logger.Info(ctx, "Starting Prometheus HTTP server", "addr", srv.Addr, "path", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, fmt.Sprint(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordGRPCRequest 记录 gRPC 请求
func (m *Metrics) RecordGRPCRequest(method, code string, d time.Duration) {
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveSimulation 记录一次模拟运行
func (m *Metrics) ObserveSimulation(command, status string, d time.Duration, scenarios int) {
	m.SimulationRuns.WithLabelValues(command, status).Inc()
	if status != "ok" {
		return
	}
	m.SimulationDuration.WithLabelValues(command).Observe(d.Seconds())
	m.SimulationScenarios.WithLabelValues(command).Add(float64(scenarios))
}

// RecordCacheHit 记录缓存命中
func (m *Metrics) RecordCacheHit(command string) {
	m.CacheHits.WithLabelValues(command).Inc()
}

// SetLedgerRecords 更新内存台账记录数
func (m *Metrics) SetLedgerRecords(n int) {
	m.LedgerRecords.Set(float64(n))
}
