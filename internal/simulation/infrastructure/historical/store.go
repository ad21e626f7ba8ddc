// Package historical 从 CSV 加载日线行情
package historical

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

const dateLayout = "2006-01-02"

// Store 内存中的行情序列，按日期升序
type Store struct {
	mu     sync.RWMutex
	symbol string
	points []domain.MarketDataPoint
}

// NewStore 以给定序列构造 Store
func NewStore(symbol string, points []domain.MarketDataPoint) *Store {
	return &Store{symbol: symbol, points: points}
}

// LoadFile 读取 CSV 文件
func LoadFile(path, symbol string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open historical csv %s: %w", path, err)
	}
	defer f.Close()

	points, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewStore(symbol, points), nil
}

// Parse 解析 date,open,high,low,close[,adj_close[,volume]]。
// 首行视为表头；缺列或数值非法的行被跳过。adj_close 非法时取 close，volume 非法时为 0。
func Parse(r io.Reader) ([]domain.MarketDataPoint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv appears empty")
		}
		return nil, err
	}

	var points []domain.MarketDataPoint
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, err
		}
		if p, ok := parseRow(row); ok {
			points = append(points, p)
		}
	}
	return points, nil
}

func parseRow(row []string) (domain.MarketDataPoint, bool) {
	var p domain.MarketDataPoint
	if len(row) < 5 {
		return p, false
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(row[0]))
	if err != nil {
		return p, false
	}
	p.Date = date

	prices := [4]*float64{&p.Open, &p.High, &p.Low, &p.Close}
	for i, dst := range prices {
		v, err := parseFloat(row[i+1])
		if err != nil {
			return p, false
		}
		*dst = v
	}

	p.AdjustedClose = p.Close
	if len(row) > 5 {
		if v, err := parseFloat(row[5]); err == nil {
			p.AdjustedClose = v
		}
	}
	if len(row) > 6 {
		if v, err := parseFloat(row[6]); err == nil {
			p.Volume = v
		}
	}
	return p, true
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Symbol 标的代码
func (s *Store) Symbol() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.symbol
}

// Empty 是否无数据
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points) == 0
}

// Len 行情条数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Latest 返回最近 n 条行情的副本，按日期升序
func (s *Store) Latest(_ context.Context, n int) ([]domain.MarketDataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || len(s.points) == 0 {
		return []domain.MarketDataPoint{}, nil
	}
	begin := 0
	if len(s.points) > n {
		begin = len(s.points) - n
	}
	out := make([]domain.MarketDataPoint, len(s.points)-begin)
	copy(out, s.points[begin:])
	return out, nil
}
