// Package domain 蒙特卡洛风险引擎核心：GBM 路径模拟、期权定价、VaR/ES 与收敛分析。
package domain

import (
	"errors"
	"fmt"
	"math"
	"runtime"
)

// DefaultBlockSize BlockSize 为 0 时使用的分块大小
const DefaultBlockSize = 1024

// 配置错误，构造引擎时返回
var (
	ErrInvalidConfig         = errors.New("invalid simulation config")
	ErrNonPositiveSpot       = fmt.Errorf("%w: spot must be positive", ErrInvalidConfig)
	ErrNonPositiveVolatility = fmt.Errorf("%w: volatility must be positive", ErrInvalidConfig)
	ErrNonPositiveTimeSteps  = fmt.Errorf("%w: time steps must be positive", ErrInvalidConfig)
	ErrNonPositiveMaturity   = fmt.Errorf("%w: maturity must be positive", ErrInvalidConfig)
	ErrNonPositivePaths      = fmt.Errorf("%w: paths must be positive", ErrInvalidConfig)
)

// 调用参数错误，引擎仍可继续使用
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNonPositiveStrike    = fmt.Errorf("%w: strike must be positive", ErrInvalidArgument)
	ErrPercentileOutOfRange = fmt.Errorf("%w: percentile must be in (0, 1)", ErrInvalidArgument)
)

// MarketParams 标的资产的市场参数
type MarketParams struct {
	Spot          float64 `json:"spot"`
	RiskFreeRate  float64 `json:"risk_free_rate"`
	DividendYield float64 `json:"dividend_yield"`
	Volatility    float64 `json:"volatility"`
}

// SimulationConfig 模拟参数
type SimulationConfig struct {
	Maturity          float64 `json:"maturity"`
	TimeSteps         int     `json:"time_steps"`
	Paths             int     `json:"paths"`
	Seed              uint64  `json:"seed"`
	UseAntithetic     bool    `json:"use_antithetic"`
	UseControlVariate bool    `json:"use_control_variate"`
	// BlockSize 每个分块的路径数，0 表示 DefaultBlockSize
	BlockSize int `json:"block_size"`
	// VaRConfidenceLevel 调用方未指定分位数时使用的默认值
	VaRConfidenceLevel float64 `json:"var_confidence_level"`
	// Workers 固定工作协程数，0 表示 GOMAXPROCS
	Workers int `json:"workers"`
}

// Scenarios 返回有效场景数
func (s SimulationConfig) Scenarios() int {
	if s.UseAntithetic {
		return 2 * s.Paths
	}
	return s.Paths
}

// OptionConfig 欧式期权参数
type OptionConfig struct {
	Strike float64 `json:"strike"`
	IsCall bool    `json:"is_call"`
}

// OptionResult 期权定价结果
type OptionResult struct {
	Price                float64 `json:"price"`
	StandardError        float64 `json:"standard_error"`
	AnalyticPrice        float64 `json:"analytic_price"`
	RelativeError        float64 `json:"relative_error"`
	ControlVariateWeight float64 `json:"control_variate_weight"`
	Scenarios            int     `json:"scenarios"`
}

// VaRConfig VaR 参数，Percentile 取值 (0, 1)
type VaRConfig struct {
	Percentile float64 `json:"percentile"`
	Notional   float64 `json:"notional"`
}

// VaRResult VaR/ES 结果
type VaRResult struct {
	Percentile        float64 `json:"percentile"`
	ValueAtRisk       float64 `json:"value_at_risk"`
	ExpectedShortfall float64 `json:"expected_shortfall"`
	MeanLoss          float64 `json:"mean_loss"`
	LossStdDev        float64 `json:"loss_std_dev"`
	Scenarios         int     `json:"scenarios"`
}

// ConvergencePoint 收敛曲线上的一个点
type ConvergencePoint struct {
	Scenarios     int     `json:"scenarios"`
	Price         float64 `json:"price"`
	AbsoluteError float64 `json:"absolute_error"`
	RelativeError float64 `json:"relative_error"`
	StandardError float64 `json:"standard_error"`
}

// Validate 校验市场与模拟参数
func Validate(market MarketParams, sim SimulationConfig) error {
	switch {
	case !positive(market.Spot):
		return ErrNonPositiveSpot
	case !positive(market.Volatility):
		return ErrNonPositiveVolatility
	case sim.TimeSteps <= 0:
		return ErrNonPositiveTimeSteps
	case !positive(sim.Maturity):
		return ErrNonPositiveMaturity
	case sim.Paths <= 0:
		return ErrNonPositivePaths
	}
	return nil
}

// positive 有限正数，NaN 与 +Inf 均不通过
func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

// validPercentile 严格位于 (0, 1)，NaN 不通过
func validPercentile(p float64) bool {
	return p > 0 && p < 1
}

func normalize(sim SimulationConfig) SimulationConfig {
	if sim.BlockSize <= 0 {
		sim.BlockSize = DefaultBlockSize
	}
	if sim.Workers <= 0 {
		sim.Workers = runtime.GOMAXPROCS(0)
	}
	return sim
}
