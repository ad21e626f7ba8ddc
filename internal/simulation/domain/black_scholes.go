package domain

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// minMaturity 计算 sqrt(T) 前对期限的下限
const minMaturity = 1e-12

// BlackScholesPrice 带连续股息率的 Black-Scholes 欧式期权闭式解
func BlackScholesPrice(market MarketParams, maturity float64, opt OptionConfig) float64 {
	sqrtT := math.Sqrt(math.Max(minMaturity, maturity))
	volSqrtT := market.Volatility * sqrtT

	d1 := (math.Log(market.Spot/opt.Strike) +
		(market.RiskFreeRate-market.DividendYield+0.5*market.Volatility*market.Volatility)*maturity) / volSqrtT
	d2 := d1 - volSqrtT

	forward := market.Spot * math.Exp(-market.DividendYield*maturity)
	discountedStrike := opt.Strike * math.Exp(-market.RiskFreeRate*maturity)

	if opt.IsCall {
		return forward*distuv.UnitNormal.CDF(d1) - discountedStrike*distuv.UnitNormal.CDF(d2)
	}
	return discountedStrike*distuv.UnitNormal.CDF(-d2) - forward*distuv.UnitNormal.CDF(-d1)
}
