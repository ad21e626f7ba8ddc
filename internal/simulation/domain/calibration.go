package domain

import (
	"context"
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear 年化使用的交易日数
const TradingDaysPerYear = 252

// ErrInsufficientHistory 历史数据不足以计算收益率
var ErrInsufficientHistory = errors.New("at least three closing prices are required")

// MarketDataPoint 单日行情
type MarketDataPoint struct {
	Date          time.Time `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adj_close"`
	Volume        float64   `json:"volume"`
}

// HistoricalSource 历史行情来源
type HistoricalSource interface {
	Symbol() string
	// Latest 返回最近 n 条行情，按日期升序
	Latest(ctx context.Context, n int) ([]MarketDataPoint, error)
}

// Calibration 由历史收盘价估计的 GBM 参数
type Calibration struct {
	Symbol       string    `json:"symbol"`
	Observations int       `json:"observations"`
	LastClose    float64   `json:"last_close"`
	AsOf         time.Time `json:"as_of"`
	Drift        float64   `json:"drift"`
	Volatility   float64   `json:"volatility"`
}

// LogReturns 相邻收盘价的对数收益率，忽略非正价格
func LogReturns(points []MarketDataPoint) []float64 {
	out := make([]float64, 0, len(points))
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1].Close, points[i].Close
		if prev <= 0 || cur <= 0 {
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// Calibrate 年化漂移与波动率（样本标准差）
func Calibrate(symbol string, points []MarketDataPoint) (Calibration, error) {
	returns := LogReturns(points)
	if len(returns) < 2 {
		return Calibration{}, ErrInsufficientHistory
	}
	mean, std := stat.MeanStdDev(returns, nil)
	last := points[len(points)-1]
	return Calibration{
		Symbol:       symbol,
		Observations: len(returns),
		LastClose:    last.Close,
		AsOf:         last.Date,
		Drift:        mean * TradingDaysPerYear,
		Volatility:   std * math.Sqrt(TradingDaysPerYear),
	}, nil
}

// HistoricalVaR 以日对数收益率计算的历史模拟 VaR，取不低于分位点的最近样本
func HistoricalVaR(points []MarketDataPoint, notional, percentile float64) (float64, error) {
	if !validPercentile(percentile) {
		return 0, ErrPercentileOutOfRange
	}
	returns := LogReturns(points)
	if len(returns) == 0 {
		return 0, ErrInsufficientHistory
	}
	losses := make([]float64, len(returns))
	for i, r := range returns {
		losses[i] = -notional * r
	}
	idx := int(math.Ceil(percentile * float64(len(losses)-1)))
	idx = max(0, min(idx, len(losses)-1))
	return selectKth(losses, idx), nil
}
