// Package file 追加写的 JSON Lines 台账存储
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
	"github.com/wyfcoding/riskengine/pkg/logger"
)

// maxLineSize 单条记录上限，收敛分析记录包含多个点
const maxLineSize = 4 << 20

// Store 每条记录一行 JSON，只追加不修改
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore 创建存储并确保父目录存在
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return &Store{path: path}, nil
}

// Path 存储文件路径
func (s *Store) Path() string { return s.path }

// Save 追加一条记录
func (s *Store) Save(ctx context.Context, rec *domain.SimulationRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	logger.Debug(ctx, "simulation record persisted", "id", rec.ID, "path", s.path)
	return nil
}

// List 读取最新的 limit 条记录，按时间倒序；损坏的行被跳过
func (s *Store) List(ctx context.Context, limit int) ([]*domain.SimulationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer f.Close()

	var out []*domain.SimulationRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		var rec domain.SimulationRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			logger.Warn(ctx, "skipping malformed record line", "error", err)
			continue
		}
		out = append(out, &rec)
		if limit > 0 && len(out) > limit {
			out = out[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}
