package domain

import (
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestBlackScholesReferenceValues(t *testing.T) {
	market := MarketParams{Spot: 100, RiskFreeRate: 0.02, DividendYield: 0.01, Volatility: 0.2}

	call := BlackScholesPrice(market, 1, OptionConfig{Strike: 100, IsCall: true})
	if !approxEqual(call, 8.3494, 5e-3) {
		t.Errorf("call price = %.6f, want ~8.3494", call)
	}

	put := BlackScholesPrice(market, 1, OptionConfig{Strike: 100, IsCall: false})
	if !approxEqual(put, 7.3643, 5e-3) {
		t.Errorf("put price = %.6f, want ~7.3643", put)
	}
}

func TestBlackScholesPutCallParity(t *testing.T) {
	cases := []struct {
		name   string
		market MarketParams
		T, K   float64
	}{
		{"atm", MarketParams{Spot: 100, RiskFreeRate: 0.02, DividendYield: 0.01, Volatility: 0.2}, 1, 100},
		{"otm call", MarketParams{Spot: 90, RiskFreeRate: 0.05, DividendYield: 0, Volatility: 0.35}, 0.5, 110},
		{"long dated", MarketParams{Spot: 250, RiskFreeRate: 0.01, DividendYield: 0.03, Volatility: 0.15}, 5, 200},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			call := BlackScholesPrice(tc.market, tc.T, OptionConfig{Strike: tc.K, IsCall: true})
			put := BlackScholesPrice(tc.market, tc.T, OptionConfig{Strike: tc.K, IsCall: false})
			want := tc.market.Spot*math.Exp(-tc.market.DividendYield*tc.T) - tc.K*math.Exp(-tc.market.RiskFreeRate*tc.T)
			if !approxEqual(call-put, want, 1e-9) {
				t.Errorf("call - put = %.12f, want %.12f", call-put, want)
			}
		})
	}
}

func TestBlackScholesTinyMaturityIsFinite(t *testing.T) {
	market := MarketParams{Spot: 100, RiskFreeRate: 0.02, Volatility: 0.2}
	price := BlackScholesPrice(market, 0, OptionConfig{Strike: 90, IsCall: true})
	if math.IsNaN(price) || math.IsInf(price, 0) {
		t.Fatalf("price = %v, want finite", price)
	}
	if !approxEqual(price, 10, 1e-6) {
		t.Errorf("price = %.8f, want intrinsic 10", price)
	}
}
