// Package mysql 基于 GORM 的运行台账仓储
package mysql

import (
	"context"
	"fmt"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
	"gorm.io/gorm"
)

type recordRepository struct {
	db *gorm.DB
}

// NewRecordRepository 创建仓储并迁移表结构
func NewRecordRepository(ctx context.Context, db *gorm.DB) (domain.RecordRepository, error) {
	if err := db.WithContext(ctx).AutoMigrate(&SimulationRunModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate simulation_runs: %w", err)
	}
	return &recordRepository{db: db}, nil
}

func (r *recordRepository) Save(ctx context.Context, rec *domain.SimulationRecord) error {
	model, err := toModel(rec)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to insert simulation run: %w", err)
	}
	return nil
}

func (r *recordRepository) List(ctx context.Context, limit int) ([]*domain.SimulationRecord, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var models []SimulationRunModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query simulation runs: %w", err)
	}

	out := make([]*domain.SimulationRecord, 0, len(models))
	for i := range models {
		rec, err := toRecord(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
