package application

import "github.com/wyfcoding/riskengine/internal/simulation/domain"

// DefaultSampleSizes 收敛分析默认样本量
var DefaultSampleSizes = []int{5000, 20000, 80000, 160000}

// Parameters 市场与模拟参数
type Parameters struct {
	Market     domain.MarketParams
	Simulation domain.SimulationConfig
}

// DefaultParameters 返回默认参数。
// Workers 保持为 0，由服务按配置填充。
func DefaultParameters() Parameters {
	return Parameters{
		Market: domain.MarketParams{
			Spot:          100,
			RiskFreeRate:  0.02,
			DividendYield: 0.01,
			Volatility:    0.2,
		},
		Simulation: domain.SimulationConfig{
			Maturity:           1,
			TimeSteps:          252,
			Paths:              200000,
			Seed:               42,
			UseAntithetic:      true,
			UseControlVariate:  true,
			BlockSize:          4096,
			VaRConfidenceLevel: 0.99,
		},
	}
}

// PriceOptionCommand 欧式期权定价命令
type PriceOptionCommand struct {
	Parameters
	Option domain.OptionConfig
}

// NewPriceOptionCommand 默认平值看涨
func NewPriceOptionCommand() PriceOptionCommand {
	p := DefaultParameters()
	return PriceOptionCommand{
		Parameters: p,
		Option:     domain.OptionConfig{Strike: p.Market.Spot, IsCall: true},
	}
}

// EstimateVaRCommand VaR/ES 估计命令
type EstimateVaRCommand struct {
	Parameters
	VaR domain.VaRConfig
}

// NewEstimateVaRCommand 默认无股息、关闭控制变量，名义本金一百万，99% 分位
func NewEstimateVaRCommand() EstimateVaRCommand {
	p := DefaultParameters()
	p.Market.DividendYield = 0
	p.Simulation.UseControlVariate = false
	return EstimateVaRCommand{
		Parameters: p,
		VaR:        domain.VaRConfig{Percentile: p.Simulation.VaRConfidenceLevel, Notional: 1_000_000},
	}
}

// ConvergenceCommand 收敛分析命令
type ConvergenceCommand struct {
	Parameters
	Option      domain.OptionConfig
	SampleSizes []int
}

// NewConvergenceCommand 默认平值看涨与默认样本量
func NewConvergenceCommand() ConvergenceCommand {
	p := DefaultParameters()
	return ConvergenceCommand{
		Parameters:  p,
		Option:      domain.OptionConfig{Strike: p.Market.Spot, IsCall: true},
		SampleSizes: append([]int(nil), DefaultSampleSizes...),
	}
}
