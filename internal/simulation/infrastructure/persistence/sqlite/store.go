// Package sqlite 基于 SQLite 的本地运行台账
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	// 注册 sqlite3 驱动
	_ "github.com/mattn/go-sqlite3"
	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS simulation_runs(
	record_id   TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	duration_ms REAL,
	workers     INTEGER,
	scenarios   INTEGER,
	payload     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_simulation_runs_created ON simulation_runs(created_at);`

// Store SQLite 台账
type Store struct {
	db *sql.DB
}

// Open 打开数据库并初始化表结构
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// sqlite 单写者
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close 关闭数据库
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Save(ctx context.Context, rec *domain.SimulationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO simulation_runs(record_id,command,created_at,duration_ms,workers,scenarios,payload) VALUES(?,?,?,?,?,?,?)`,
		rec.ID, string(rec.Command), rec.CreatedAt.UnixNano(), rec.DurationMs, rec.Workers, rec.Scenarios, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert simulation run: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, limit int) ([]*domain.SimulationRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM simulation_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulation runs: %w", err)
	}
	defer rows.Close()

	var out []*domain.SimulationRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec domain.SimulationRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
