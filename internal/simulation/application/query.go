package application

import (
	"context"
	"errors"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

const (
	defaultHistoryLimit = 120
	minHistoryLimit     = 10
	maxHistoryLimit     = 1000

	defaultCalibrationWindow = domain.TradingDaysPerYear
)

// ErrHistoryUnavailable 未加载历史行情
var ErrHistoryUnavailable = errors.New("historical data not loaded")

// ErrStoreUnavailable 未配置持久化台账
var ErrStoreUnavailable = errors.New("persistent record store not configured")

// ListRecords 内存台账中最新的 limit 条记录
func (s *SimulationService) ListRecords(ctx context.Context, limit int) ([]*domain.SimulationRecord, error) {
	if s.ledger == nil {
		return []*domain.SimulationRecord{}, nil
	}
	return s.ledger.List(ctx, limit)
}

// ListStoredRecords 持久化台账中最新的 limit 条记录
func (s *SimulationService) ListStoredRecords(ctx context.Context, limit int) ([]*domain.SimulationRecord, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	return s.store.List(ctx, limit)
}

// HistoryLimit 默认 120，限制在 [10, 1000]
func HistoryLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	return min(max(limit, minHistoryLimit), maxHistoryLimit)
}

// HistoricalLatest 最近的历史行情，无数据时返回空列表
func (s *SimulationService) HistoricalLatest(ctx context.Context, limit int) ([]HistoricalPointDTO, error) {
	if s.history == nil {
		return []HistoricalPointDTO{}, nil
	}
	points, err := s.history.Latest(ctx, HistoryLimit(limit))
	if err != nil {
		return nil, err
	}
	return toHistoricalDTO(s.history.Symbol(), points), nil
}

// CalibrationQuery 校准参数，零值使用默认
type CalibrationQuery struct {
	// Window 使用的交易日数，默认 252
	Window     int
	Notional   float64
	Percentile float64
}

// Calibrate 由历史收盘价估计漂移与波动率，并计算历史模拟 VaR
func (s *SimulationService) Calibrate(ctx context.Context, q CalibrationQuery) (*CalibrationDTO, error) {
	if s.history == nil {
		return nil, ErrHistoryUnavailable
	}
	if q.Window <= 0 {
		q.Window = defaultCalibrationWindow
	}
	if q.Notional <= 0 {
		q.Notional = 1_000_000
	}
	if q.Percentile == 0 {
		q.Percentile = 0.99
	}

	points, err := s.history.Latest(ctx, q.Window+1)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrHistoryUnavailable
	}
	cal, err := domain.Calibrate(s.history.Symbol(), points)
	if err != nil {
		return nil, err
	}
	hvar, err := domain.HistoricalVaR(points, q.Notional, q.Percentile)
	if err != nil {
		return nil, err
	}
	return &CalibrationDTO{
		Calibration:   cal,
		Notional:      q.Notional,
		Percentile:    q.Percentile,
		HistoricalVaR: round(hvar, 2),
	}, nil
}
