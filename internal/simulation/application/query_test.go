package application

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

type staticHistory struct {
	symbol string
	points []domain.MarketDataPoint
}

func (h staticHistory) Symbol() string { return h.symbol }

func (h staticHistory) Latest(_ context.Context, n int) ([]domain.MarketDataPoint, error) {
	if n >= len(h.points) {
		return h.points, nil
	}
	return h.points[len(h.points)-n:], nil
}

func geometricHistory(n int, daily float64) []domain.MarketDataPoint {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.MarketDataPoint, n)
	price := 100.0
	for i := range out {
		// 交替涨跌，保证波动率非零
		step := daily
		if i%2 == 1 {
			step = -daily / 2
		}
		price *= math.Exp(step)
		out[i] = domain.MarketDataPoint{Date: base.AddDate(0, 0, i), Close: price, AdjustedClose: price}
	}
	return out
}

func TestHistoryLimit(t *testing.T) {
	cases := map[int]int{0: 120, -3: 120, 5: 10, 10: 10, 250: 250, 5000: 1000}
	for in, want := range cases {
		if got := HistoryLimit(in); got != want {
			t.Errorf("HistoryLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestHistoricalLatest(t *testing.T) {
	ctx := context.Background()

	empty, err := NewSimulationService(nil).HistoricalLatest(ctx, 50)
	if err != nil || len(empty) != 0 {
		t.Errorf("no history: %v %v", empty, err)
	}

	svc := NewSimulationService(nil, WithHistory(staticHistory{symbol: "SPY", points: geometricHistory(300, 0.01)}))
	pts, err := svc.HistoricalLatest(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 120 || pts[0].Symbol != "SPY" {
		t.Fatalf("len=%d first=%+v", len(pts), pts[0])
	}
	if pts[119].Date != "2024-10-26" {
		t.Errorf("last date = %s", pts[119].Date)
	}
}

func TestCalibrate(t *testing.T) {
	ctx := context.Background()
	if _, err := NewSimulationService(nil).Calibrate(ctx, CalibrationQuery{}); !errors.Is(err, ErrHistoryUnavailable) {
		t.Errorf("err = %v, want ErrHistoryUnavailable", err)
	}

	svc := NewSimulationService(nil, WithHistory(staticHistory{symbol: "SPY", points: geometricHistory(400, 0.01)}))
	cal, err := svc.Calibrate(ctx, CalibrationQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if cal.Observations != 252 || cal.Symbol != "SPY" {
		t.Errorf("observations=%d symbol=%s", cal.Observations, cal.Symbol)
	}
	// 一半 +1%、一半 -0.5%，日均 0.25%
	if math.Abs(cal.Drift-0.0025*252) > 1e-9 {
		t.Errorf("drift = %v", cal.Drift)
	}
	if cal.Volatility <= 0 {
		t.Errorf("volatility = %v", cal.Volatility)
	}
	// 最大日损失为 0.5% 的名义本金
	if cal.HistoricalVaR != 5000 || cal.Notional != 1e6 || cal.Percentile != 0.99 {
		t.Errorf("historical var = %+v", cal)
	}

	if _, err := svc.Calibrate(ctx, CalibrationQuery{Percentile: 1.5}); !errors.Is(err, domain.ErrPercentileOutOfRange) {
		t.Errorf("err = %v", err)
	}
}
