// Package ledger 有界的内存运行台账，最新记录在前
package ledger

import (
	"context"
	"sync"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

// DefaultCapacity 默认保留的记录数
const DefaultCapacity = 128

// Ledger 并发安全的有界台账
type Ledger struct {
	mu       sync.RWMutex
	records  []*domain.SimulationRecord
	capacity int
}

// New 创建台账，capacity <= 0 时使用 DefaultCapacity
func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{records: make([]*domain.SimulationRecord, 0, capacity), capacity: capacity}
}

// Save 插入到最前，超出容量时丢弃最旧的记录
func (l *Ledger) Save(_ context.Context, rec *domain.SimulationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.records) < l.capacity {
		l.records = append(l.records, nil)
	}
	copy(l.records[1:], l.records[:len(l.records)-1])
	l.records[0] = rec
	return nil
}

// List 返回最新的 limit 条，limit <= 0 表示全部
func (l *Ledger) List(_ context.Context, limit int) ([]*domain.SimulationRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*domain.SimulationRecord, n)
	copy(out, l.records[:n])
	return out, nil
}

// Len 当前记录数
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
