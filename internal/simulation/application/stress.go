package application

import (
	"context"
	"math"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// StressConfig 压测参数
type StressConfig struct {
	// Jobs 并发任务数，0 表示 GOMAXPROCS
	Jobs       int
	Iterations int
	Paths      int
	// RunVaR 每次期权定价后追加一次 VaR 计算
	RunVaR bool
	// Workers 单次模拟的工作协程数，0 表示 GOMAXPROCS
	Workers int
}

// DefaultStressConfig 默认压测参数
func DefaultStressConfig() StressConfig {
	return StressConfig{
		Jobs:       runtime.GOMAXPROCS(0),
		Iterations: 40,
		Paths:      400000,
		RunVaR:     true,
	}
}

// StressEntry 一次运行的记录
type StressEntry struct {
	Command  domain.CommandKind
	Duration time.Duration
	Workers  int
	Option   *domain.OptionResult
	VaR      *domain.VaRResult
}

// StressSummary 压测汇总
type StressSummary struct {
	TotalRuns      int           `json:"total_runs"`
	WallClock      time.Duration `json:"wall_clock"`
	MeanDuration   time.Duration `json:"mean_duration"`
	MedianDuration time.Duration `json:"median_duration"`
	P99Duration    time.Duration `json:"p99_duration"`
	MeanWorkers    float64       `json:"mean_workers"`

	OptionRuns    int     `json:"option_runs"`
	PriceMean     float64 `json:"price_mean"`
	PriceStdDev   float64 `json:"price_std_dev"`
	StdErrMean    float64 `json:"std_err_mean"`
	AnalyticMean  float64 `json:"analytic_mean"`
	VaRRuns       int     `json:"var_runs"`
	VaRMean       float64 `json:"var_mean"`
	VaRStdDev     float64 `json:"var_std_dev"`
	ShortfallMean float64 `json:"shortfall_mean"`
}

// RunStress 并发执行随机化的期权定价与 VaR 任务。
// 每个任务使用独立随机源，种子为 job*7919+17。
func RunStress(ctx context.Context, cfg StressConfig) ([]StressEntry, time.Duration, error) {
	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.GOMAXPROCS(0)
	}

	var (
		mu      sync.Mutex
		entries = make([]StressEntry, 0, cfg.Jobs*cfg.Iterations*2)
	)
	collect := func(e StressEntry) {
		mu.Lock()
		entries = append(entries, e)
		mu.Unlock()
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for job := 0; job < cfg.Jobs; job++ {
		g.Go(func() error {
			return stressJob(ctx, cfg, job, collect)
		})
	}
	err := g.Wait()
	return entries, time.Since(start), err
}

func stressJob(ctx context.Context, cfg StressConfig, job int, collect func(StressEntry)) error {
	rng := rand.New(rand.NewSource(uint64(job)*7919 + 17))
	uniform := func(lo, hi float64) float64 { return lo + (hi-lo)*rng.Float64() }

	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		market := domain.MarketParams{
			Spot:          100,
			RiskFreeRate:  0.02,
			DividendYield: 0.01,
			Volatility:    uniform(0.12, 0.4),
		}
		sim := domain.SimulationConfig{
			Maturity:          uniform(0.25, 2.5),
			TimeSteps:         252,
			Paths:             cfg.Paths,
			Seed:              rng.Uint64(),
			UseAntithetic:     true,
			UseControlVariate: true,
			BlockSize:         4096,
			Workers:           cfg.Workers,
		}
		opt := domain.OptionConfig{Strike: uniform(80, 120), IsCall: rng.Float64() < 0.5}

		start := time.Now()
		engine, err := domain.NewEngine(market, sim)
		if err != nil {
			return err
		}
		res, err := engine.PriceEuropeanOption(opt)
		if err != nil {
			return err
		}
		collect(StressEntry{Command: domain.CommandOption, Duration: time.Since(start), Workers: engine.Workers(), Option: &res})

		if !cfg.RunVaR {
			continue
		}

		varCfg := domain.VaRConfig{Notional: uniform(5e5, 5e6), Percentile: uniform(0.95, 0.9975)}
		sim.UseControlVariate = false
		market.Volatility = uniform(0.12, 0.4)

		start = time.Now()
		engine, err = domain.NewEngine(market, sim)
		if err != nil {
			return err
		}
		vres, err := engine.ComputeVaR(varCfg)
		if err != nil {
			return err
		}
		collect(StressEntry{Command: domain.CommandVaR, Duration: time.Since(start), Workers: engine.Workers(), VaR: &vres})
	}
	return nil
}

// Summarize 汇总压测结果
func Summarize(entries []StressEntry, wall time.Duration) StressSummary {
	sum := StressSummary{TotalRuns: len(entries), WallClock: wall}
	if len(entries) == 0 {
		return sum
	}

	durations := make([]float64, len(entries))
	workers := make([]float64, len(entries))
	var prices, stdErrs, analytics, vars, shortfalls []float64
	for i, e := range entries {
		durations[i] = float64(e.Duration)
		workers[i] = float64(e.Workers)
		switch {
		case e.Command == domain.CommandOption && e.Option != nil:
			prices = append(prices, e.Option.Price)
			stdErrs = append(stdErrs, e.Option.StandardError)
			analytics = append(analytics, e.Option.AnalyticPrice)
		case e.Command == domain.CommandVaR && e.VaR != nil:
			vars = append(vars, e.VaR.ValueAtRisk)
			shortfalls = append(shortfalls, e.VaR.ExpectedShortfall)
		}
	}

	sum.MeanDuration = time.Duration(mean(durations))
	sum.MedianDuration = time.Duration(interpolatedQuantile(durations, 0.5))
	sum.P99Duration = time.Duration(interpolatedQuantile(durations, 0.99))
	sum.MeanWorkers = mean(workers)

	sum.OptionRuns = len(prices)
	sum.PriceMean = mean(prices)
	sum.PriceStdDev = popStdDev(prices)
	sum.StdErrMean = mean(stdErrs)
	sum.AnalyticMean = mean(analytics)

	sum.VaRRuns = len(vars)
	sum.VaRMean = mean(vars)
	sum.VaRStdDev = popStdDev(vars)
	sum.ShortfallMean = mean(shortfalls)
	return sum
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

func popStdDev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	_, variance := stat.PopMeanVariance(x, nil)
	return math.Sqrt(variance)
}

// interpolatedQuantile 对排序后的样本在 q*(n-1) 处线性插值
func interpolatedQuantile(x []float64, q float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)
	idx := q * float64(len(sorted)-1)
	lo := int(idx)
	hi := min(len(sorted)-1, lo+1)
	w := idx - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
