// Package application 模拟用例编排：参数默认值、结果缓存、运行台账、事件与指标
package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/riskengine/internal/simulation/domain"
	"github.com/wyfcoding/riskengine/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/wyfcoding/riskengine/internal/simulation/application"

// Metrics 服务上报的指标，由 pkg/metrics.Metrics 实现
type Metrics interface {
	ObserveSimulation(command, status string, d time.Duration, scenarios int)
	RecordCacheHit(command string)
	SetLedgerRecords(n int)
}

// SimulationService 模拟应用服务。除内存台账外的依赖均可为空。
type SimulationService struct {
	ledger    domain.RecordRepository
	store     domain.RecordRepository
	cache     domain.ResultCache
	publisher domain.EventPublisher
	history   domain.HistoricalSource
	metrics   Metrics

	workers   int
	blockSize int
	now       func() time.Time
	tracer    trace.Tracer
}

// Option 服务选项
type Option func(*SimulationService)

// WithStore 持久化台账
func WithStore(store domain.RecordRepository) Option {
	return func(s *SimulationService) { s.store = store }
}

// WithCache 结果缓存
func WithCache(cache domain.ResultCache) Option {
	return func(s *SimulationService) { s.cache = cache }
}

// WithPublisher 事件发布
func WithPublisher(p domain.EventPublisher) Option {
	return func(s *SimulationService) { s.publisher = p }
}

// WithHistory 历史行情
func WithHistory(h domain.HistoricalSource) Option {
	return func(s *SimulationService) { s.history = h }
}

// WithMetrics 指标
func WithMetrics(m Metrics) Option {
	return func(s *SimulationService) { s.metrics = m }
}

// WithWorkers 请求未指定时使用的工作协程数
func WithWorkers(n int) Option {
	return func(s *SimulationService) { s.workers = n }
}

// WithBlockSize 请求未指定时使用的分块大小
func WithBlockSize(n int) Option {
	return func(s *SimulationService) { s.blockSize = n }
}

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(s *SimulationService) { s.now = now }
}

// NewSimulationService 创建服务
func NewSimulationService(ledger domain.RecordRepository, opts ...Option) *SimulationService {
	s := &SimulationService{
		ledger: ledger,
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PriceOption 蒙特卡洛定价欧式期权
func (s *SimulationService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*OptionRun, error) {
	ctx, span := s.tracer.Start(ctx, "SimulationService.PriceOption")
	defer span.End()

	engine, err := s.engine(cmd.Parameters)
	if err != nil {
		return nil, s.fail(ctx, span, domain.CommandOption, err)
	}
	key := cacheKey(domain.CommandOption, engine, cmd.Option)

	var cached domain.OptionResult
	if s.lookup(ctx, domain.CommandOption, key, &cached) {
		return &OptionRun{RunInfo: s.cachedInfo(engine), Result: cached}, nil
	}

	start := time.Now()
	res, err := engine.PriceEuropeanOption(cmd.Option)
	if err != nil {
		return nil, s.fail(ctx, span, domain.CommandOption, err)
	}
	rec := s.newRecord(domain.CommandOption, engine, time.Since(start), res.Scenarios)
	opt := cmd.Option
	rec.Option = &opt
	rec.OptionResult = &res
	span.SetAttributes(attribute.Float64("option.price", res.Price))

	s.complete(ctx, rec, key, res)
	return &OptionRun{RunInfo: runInfo(rec), Result: res}, nil
}

// EstimateVaR 模拟损失分布上的 VaR 与 ES
func (s *SimulationService) EstimateVaR(ctx context.Context, cmd EstimateVaRCommand) (*VaRRun, error) {
	ctx, span := s.tracer.Start(ctx, "SimulationService.EstimateVaR")
	defer span.End()

	engine, err := s.engine(cmd.Parameters)
	if err != nil {
		return nil, s.fail(ctx, span, domain.CommandVaR, err)
	}
	key := cacheKey(domain.CommandVaR, engine, cmd.VaR)

	var cached domain.VaRResult
	if s.lookup(ctx, domain.CommandVaR, key, &cached) {
		return &VaRRun{RunInfo: s.cachedInfo(engine), Result: cached}, nil
	}

	start := time.Now()
	res, err := engine.ComputeVaR(cmd.VaR)
	if err != nil {
		return nil, s.fail(ctx, span, domain.CommandVaR, err)
	}
	rec := s.newRecord(domain.CommandVaR, engine, time.Since(start), res.Scenarios)
	cfg := cmd.VaR
	rec.VaR = &cfg
	rec.VaRResult = &res
	span.SetAttributes(attribute.Float64("var.value", res.ValueAtRisk))

	s.complete(ctx, rec, key, res)
	return &VaRRun{RunInfo: runInfo(rec), Result: res}, nil
}

// RunConvergence 按样本量序列重复定价，对比解析价
func (s *SimulationService) RunConvergence(ctx context.Context, cmd ConvergenceCommand) (*ConvergenceRun, error) {
	ctx, span := s.tracer.Start(ctx, "SimulationService.RunConvergence")
	defer span.End()

	sizes := cmd.SampleSizes
	if len(sizes) == 0 {
		sizes = DefaultSampleSizes
	}

	engine, err := s.engine(cmd.Parameters)
	if err != nil {
		return nil, s.fail(ctx, span, domain.CommandConvergence, err)
	}
	analytic := engine.AnalyticPrice(cmd.Option)
	key := cacheKey(domain.CommandConvergence, engine, struct {
		Option  domain.OptionConfig
		Samples []int
	}{cmd.Option, sizes})

	var cached []domain.ConvergencePoint
	if s.lookup(ctx, domain.CommandConvergence, key, &cached) {
		return &ConvergenceRun{RunInfo: s.cachedInfo(engine), AnalyticPrice: analytic, Result: cached}, nil
	}

	start := time.Now()
	points, err := engine.ConvergenceStudy(cmd.Option, sizes)
	if err != nil {
		return nil, s.fail(ctx, span, domain.CommandConvergence, err)
	}
	processed := 0
	for _, p := range points {
		processed += p.Scenarios
	}
	rec := s.newRecord(domain.CommandConvergence, engine, time.Since(start), processed)
	opt := cmd.Option
	rec.Option = &opt
	rec.Convergence = points

	s.complete(ctx, rec, key, points)
	return &ConvergenceRun{RunInfo: runInfo(rec), AnalyticPrice: analytic, Result: points}, nil
}

func (s *SimulationService) engine(p Parameters) (*domain.Engine, error) {
	sim := p.Simulation
	if sim.Workers <= 0 {
		sim.Workers = s.workers
	}
	if sim.BlockSize <= 0 {
		sim.BlockSize = s.blockSize
	}
	return domain.NewEngine(p.Market, sim)
}

func (s *SimulationService) newRecord(cmd domain.CommandKind, engine *domain.Engine, elapsed time.Duration, scenarios int) *domain.SimulationRecord {
	rec := &domain.SimulationRecord{
		ID:         uuid.NewString(),
		Command:    cmd,
		CreatedAt:  s.now().UTC(),
		DurationMs: float64(elapsed) / float64(time.Millisecond),
		Workers:    engine.Workers(),
		Scenarios:  scenarios,
		Market:     engine.Market(),
		Simulation: engine.Config(),
	}
	if secs := elapsed.Seconds(); secs > 0 {
		rec.Throughput = float64(scenarios) / secs
	}
	return rec
}

func (s *SimulationService) cachedInfo(engine *domain.Engine) RunInfo {
	return RunInfo{Timestamp: s.now().UTC(), Workers: engine.Workers(), Cached: true}
}

// lookup 缓存错误只记录日志，按未命中处理
func (s *SimulationService) lookup(ctx context.Context, cmd domain.CommandKind, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logger.Warn(ctx, "result cache lookup failed", "command", cmd, "error", err)
		return false
	}
	if hit {
		if s.metrics != nil {
			s.metrics.RecordCacheHit(string(cmd))
		}
		logger.Debug(ctx, "result cache hit", "command", cmd, "key", key)
	}
	return hit
}

// complete 台账、持久化、事件与缓存写入均为尽力而为
func (s *SimulationService) complete(ctx context.Context, rec *domain.SimulationRecord, key string, result any) {
	if s.ledger != nil {
		if err := s.ledger.Save(ctx, rec); err != nil {
			logger.Warn(ctx, "ledger save failed", "record_id", rec.ID, "error", err)
		}
	}
	if s.store != nil {
		if err := s.store.Save(ctx, rec); err != nil {
			logger.Warn(ctx, "failed to persist simulation record", "record_id", rec.ID, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishSimulationCompleted(ctx, domain.NewSimulationCompletedEvent(rec)); err != nil {
			logger.Warn(ctx, "failed to publish simulation event", "record_id", rec.ID, "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			logger.Warn(ctx, "result cache store failed", "command", rec.Command, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveSimulation(string(rec.Command), "ok",
			time.Duration(rec.DurationMs*float64(time.Millisecond)), rec.Scenarios)
		if l, ok := s.ledger.(interface{ Len() int }); ok {
			s.metrics.SetLedgerRecords(l.Len())
		}
	}

	logger.Info(ctx, "simulation completed",
		"record_id", rec.ID,
		"command", rec.Command,
		"scenarios", rec.Scenarios,
		"workers", rec.Workers,
		"duration_ms", round(rec.DurationMs, 3))
}

func (s *SimulationService) fail(ctx context.Context, span trace.Span, cmd domain.CommandKind, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if s.metrics != nil {
		s.metrics.ObserveSimulation(string(cmd), "error", 0, 0)
	}
	logger.Warn(ctx, "simulation rejected", "command", cmd, "error", err)
	return err
}

// cacheKey 规范化后的输入（含工作协程数）决定结果，可安全复用
func cacheKey(cmd domain.CommandKind, engine *domain.Engine, payload any) string {
	raw, _ := json.Marshal(struct {
		Market     domain.MarketParams
		Simulation domain.SimulationConfig
		Payload    any
	}{engine.Market(), engine.Config(), payload})
	sum := sha256.Sum256(raw)
	return string(cmd) + ":" + hex.EncodeToString(sum[:16])
}
