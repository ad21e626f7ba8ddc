package domain

import (
	"context"
	"time"
)

const SimulationCompletedEventType = "SimulationCompleted"

// SimulationCompletedEvent 模拟运行完成事件
type SimulationCompletedEvent struct {
	RecordID   string      `json:"record_id"`
	Command    CommandKind `json:"command"`
	Scenarios  int         `json:"scenarios"`
	Workers    int         `json:"workers"`
	DurationMs float64     `json:"duration_ms"`
	// Headline 期权为价格，VaR 为 VaR 值，收敛分析为最后一个点的绝对误差
	Headline   float64   `json:"headline"`
	OccurredOn time.Time `json:"occurred_on"`
}

// NewSimulationCompletedEvent 由台账记录构造事件
func NewSimulationCompletedEvent(rec *SimulationRecord) SimulationCompletedEvent {
	ev := SimulationCompletedEvent{
		RecordID:   rec.ID,
		Command:    rec.Command,
		Scenarios:  rec.Scenarios,
		Workers:    rec.Workers,
		DurationMs: rec.DurationMs,
		OccurredOn: rec.CreatedAt,
	}
	switch {
	case rec.OptionResult != nil:
		ev.Headline = rec.OptionResult.Price
	case rec.VaRResult != nil:
		ev.Headline = rec.VaRResult.ValueAtRisk
	case len(rec.Convergence) > 0:
		ev.Headline = rec.Convergence[len(rec.Convergence)-1].AbsoluteError
	}
	return ev
}

// EventPublisher 事件发布者接口
type EventPublisher interface {
	// PublishSimulationCompleted 发布模拟完成事件
	PublishSimulationCompleted(ctx context.Context, event SimulationCompletedEvent) error
}
