package mysql

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

// SimulationRunModel 模拟运行表映射。摘要列便于查询，完整记录保存在 payload。
type SimulationRunModel struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	RecordID   string    `gorm:"column:record_id;type:char(36);uniqueIndex;not null"`
	Command    string    `gorm:"column:command;type:varchar(16);index;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;index"`
	DurationMs float64   `gorm:"column:duration_ms"`
	Workers    int       `gorm:"column:workers"`
	Scenarios  int64     `gorm:"column:scenarios"`
	Headline   string    `gorm:"column:headline;type:decimal(32,8)"`
	Payload    []byte    `gorm:"column:payload;type:json;not null"`
}

func (SimulationRunModel) TableName() string { return "simulation_runs" }

func toModel(rec *domain.SimulationRecord) (*SimulationRunModel, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record payload: %w", err)
	}
	ev := domain.NewSimulationCompletedEvent(rec)
	return &SimulationRunModel{
		RecordID:   rec.ID,
		Command:    string(rec.Command),
		CreatedAt:  rec.CreatedAt,
		DurationMs: rec.DurationMs,
		Workers:    rec.Workers,
		Scenarios:  int64(rec.Scenarios),
		Headline:   decimal.NewFromFloat(ev.Headline).Round(8).String(),
		Payload:    payload,
	}, nil
}

func toRecord(m *SimulationRunModel) (*domain.SimulationRecord, error) {
	var rec domain.SimulationRecord
	if err := json.Unmarshal(m.Payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", m.RecordID, err)
	}
	return &rec, nil
}
