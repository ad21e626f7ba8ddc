package domain

import (
	"fmt"
	"math"
)

// Engine 蒙特卡洛引擎。构造后只读，可被多个协程并发调用，
// 每次调用自行分配并释放临时缓冲区。
type Engine struct {
	market MarketParams
	sim    SimulationConfig
}

// NewEngine 校验参数并创建引擎
func NewEngine(market MarketParams, sim SimulationConfig) (*Engine, error) {
	if err := Validate(market, sim); err != nil {
		return nil, err
	}
	return &Engine{market: market, sim: normalize(sim)}, nil
}

// Market 返回市场参数
func (e *Engine) Market() MarketParams { return e.market }

// Config 返回规范化后的模拟参数（BlockSize 与 Workers 已填充）
func (e *Engine) Config() SimulationConfig { return e.sim }

// Workers 返回工作协程数
func (e *Engine) Workers() int { return e.sim.Workers }

// SimulateTerminalPrices 生成全部场景的到期价格
func (e *Engine) SimulateTerminalPrices() []float64 {
	return simulateTerminalPrices(e.market, e.sim)
}

// AnalyticPrice Black-Scholes 基准价
func (e *Engine) AnalyticPrice(opt OptionConfig) float64 {
	return BlackScholesPrice(e.market, e.sim.Maturity, opt)
}

// PriceEuropeanOption 蒙特卡洛欧式期权定价
func (e *Engine) PriceEuropeanOption(opt OptionConfig) (OptionResult, error) {
	if !positive(opt.Strike) {
		return OptionResult{}, ErrNonPositiveStrike
	}
	return priceEuropean(e.market, e.sim, opt), nil
}

// ComputeVaR 基于模拟损失分布的经验 VaR 与 ES
func (e *Engine) ComputeVaR(cfg VaRConfig) (VaRResult, error) {
	if !validPercentile(cfg.Percentile) {
		return VaRResult{}, ErrPercentileOutOfRange
	}
	terminal := e.SimulateTerminalPrices()
	losses := lossDistribution(terminal, e.market.Spot, cfg.Notional)
	return estimateVaR(losses, cfg.Percentile), nil
}

// ConvergenceStudy 按给定样本量依次重新定价，记录相对解析价的误差。
// 样本量按输入顺序处理，不去重。
func (e *Engine) ConvergenceStudy(opt OptionConfig, sampleSizes []int) ([]ConvergencePoint, error) {
	if !positive(opt.Strike) {
		return nil, ErrNonPositiveStrike
	}

	points := make([]ConvergencePoint, 0, len(sampleSizes))
	for _, n := range sampleSizes {
		sim := e.sim
		sim.Paths = n
		engine, err := NewEngine(e.market, sim)
		if err != nil {
			return nil, fmt.Errorf("sample size %d: %w", n, err)
		}

		res, err := engine.PriceEuropeanOption(opt)
		if err != nil {
			return nil, err
		}
		points = append(points, ConvergencePoint{
			Scenarios:     res.Scenarios,
			Price:         res.Price,
			AbsoluteError: math.Abs(res.Price - res.AnalyticPrice),
			RelativeError: math.Abs(res.RelativeError),
			StandardError: res.StandardError,
		})
	}
	return points, nil
}
