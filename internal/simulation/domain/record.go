package domain

import (
	"context"
	"time"
)

// CommandKind 模拟命令类型
type CommandKind string

const (
	CommandOption      CommandKind = "option"
	CommandVaR         CommandKind = "var"
	CommandConvergence CommandKind = "convergence"
)

// SimulationRecord 一次模拟运行的台账记录
type SimulationRecord struct {
	ID         string           `json:"id"`
	Command    CommandKind      `json:"command"`
	CreatedAt  time.Time        `json:"timestamp"`
	DurationMs float64          `json:"duration_ms"`
	Workers    int              `json:"workers"`
	Scenarios  int              `json:"samples"`
	Throughput float64          `json:"throughput"`
	Market     MarketParams     `json:"market"`
	Simulation SimulationConfig `json:"simulation"`

	Option       *OptionConfig      `json:"option,omitempty"`
	OptionResult *OptionResult      `json:"option_result,omitempty"`
	VaR          *VaRConfig         `json:"var,omitempty"`
	VaRResult    *VaRResult         `json:"var_result,omitempty"`
	Convergence  []ConvergencePoint `json:"convergence,omitempty"`
}

// RecordRepository 运行台账的持久化
type RecordRepository interface {
	Save(ctx context.Context, record *SimulationRecord) error
	// List 返回最新的 limit 条记录，按时间倒序
	List(ctx context.Context, limit int) ([]*SimulationRecord, error)
}

// ResultCache 确定性请求的结果缓存。miss 时返回 false 且不报错。
type ResultCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}
