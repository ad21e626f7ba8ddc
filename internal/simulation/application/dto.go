package application

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

// RunInfo 一次运行的公共信息
type RunInfo struct {
	RecordID   string    `json:"record_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs float64   `json:"duration_ms"`
	Workers    int       `json:"workers"`
	Throughput float64   `json:"throughput"`
	Cached     bool      `json:"cached"`
}

// OptionRun 期权定价运行结果
type OptionRun struct {
	RunInfo
	Result domain.OptionResult `json:"result"`
}

// VaRRun VaR 运行结果
type VaRRun struct {
	RunInfo
	Result domain.VaRResult `json:"result"`
}

// ConvergenceRun 收敛分析运行结果
type ConvergenceRun struct {
	RunInfo
	AnalyticPrice float64                   `json:"analytic_price"`
	Result        []domain.ConvergencePoint `json:"result"`
}

// HistoricalPointDTO 历史行情输出
type HistoricalPointDTO struct {
	Symbol        string  `json:"symbol"`
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adj_close"`
	Volume        float64 `json:"volume"`
}

// CalibrationDTO 历史校准与历史模拟 VaR
type CalibrationDTO struct {
	domain.Calibration
	Notional      float64 `json:"notional"`
	Percentile    float64 `json:"percentile"`
	HistoricalVaR float64 `json:"historical_var"`
}

func toHistoricalDTO(symbol string, points []domain.MarketDataPoint) []HistoricalPointDTO {
	out := make([]HistoricalPointDTO, len(points))
	for i, p := range points {
		out[i] = HistoricalPointDTO{
			Symbol:        symbol,
			Date:          p.Date.Format("2006-01-02"),
			Open:          p.Open,
			High:          p.High,
			Low:           p.Low,
			Close:         p.Close,
			AdjustedClose: p.AdjustedClose,
			Volume:        p.Volume,
		}
	}
	return out
}

func runInfo(rec *domain.SimulationRecord) RunInfo {
	return RunInfo{
		RecordID:   rec.ID,
		Timestamp:  rec.CreatedAt,
		DurationMs: round(rec.DurationMs, 3),
		Workers:    rec.Workers,
		Throughput: round(rec.Throughput, 2),
	}
}

// round 按十进制舍入，非有限值原样返回
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
