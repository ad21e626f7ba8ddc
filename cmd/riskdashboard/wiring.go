package main

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/riskengine/internal/simulation/application"
	"github.com/wyfcoding/riskengine/internal/simulation/domain"
	"github.com/wyfcoding/riskengine/internal/simulation/infrastructure/historical"
	"github.com/wyfcoding/riskengine/internal/simulation/infrastructure/ledger"
	"github.com/wyfcoding/riskengine/internal/simulation/infrastructure/messaging"
	"github.com/wyfcoding/riskengine/internal/simulation/infrastructure/persistence/file"
	"github.com/wyfcoding/riskengine/internal/simulation/infrastructure/persistence/mysql"
	"github.com/wyfcoding/riskengine/internal/simulation/infrastructure/persistence/sqlite"
	"github.com/wyfcoding/riskengine/pkg/cache"
	"github.com/wyfcoding/riskengine/pkg/config"
	"github.com/wyfcoding/riskengine/pkg/db"
	"github.com/wyfcoding/riskengine/pkg/logger"
	"github.com/wyfcoding/riskengine/pkg/metrics"
	"github.com/wyfcoding/riskengine/pkg/mq"
	"github.com/wyfcoding/riskengine/pkg/ratelimit"
)

// dependencies 服务依赖及其释放函数
type dependencies struct {
	ledger  *ledger.Ledger
	options []application.Option
	limiter ratelimit.Limiter
	closers []func() error
}

// Close 逆序释放
func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logger.Warn(context.Background(), "failed to release dependency", "error", err)
		}
	}
}

func buildDependencies(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*dependencies, error) {
	deps := &dependencies{ledger: ledger.New(cfg.Ledger.MaxRecords)}
	deps.options = append(deps.options,
		application.WithWorkers(cfg.Simulation.Workers),
		application.WithBlockSize(cfg.Simulation.BlockSize),
	)
	if m != nil {
		deps.options = append(deps.options, application.WithMetrics(m))
	}

	store, err := openStore(ctx, cfg.Data, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}
	if store != nil {
		deps.options = append(deps.options, application.WithStore(store))
	}

	if cfg.Data.Redis.Host != "" {
		wireRedis(ctx, cfg, deps)
	}

	if len(cfg.Data.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Data.Kafka.Brokers,
			MaxRetries:   cfg.Data.Kafka.MaxRetries,
			RetryBackoff: cfg.Data.Kafka.RetryBackoff,
		})
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, producer.Close)
		deps.options = append(deps.options,
			application.WithPublisher(messaging.NewKafkaPublisher(producer, cfg.Data.Kafka.Topic)))
	}

	if cfg.Historical.CSVPath != "" {
		hist, err := historical.LoadFile(cfg.Historical.CSVPath, cfg.Historical.Symbol)
		if err != nil {
			logger.Warn(ctx, "historical data unavailable", "path", cfg.Historical.CSVPath, "error", err)
		} else {
			logger.Info(ctx, "historical data loaded", "symbol", hist.Symbol(), "points", hist.Len())
			deps.options = append(deps.options, application.WithHistory(hist))
		}
	}

	return deps, nil
}

// openStore 按配置选择持久化台账，none 时返回 nil
func openStore(ctx context.Context, cfg config.DataConfig, deps *dependencies) (domain.RecordRepository, error) {
	switch cfg.LedgerBackend {
	case "file":
		s, err := file.NewStore(cfg.FileStore)
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "persisting simulation runs", "backend", "file", "path", s.Path())
		return s, nil
	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, s.Close)
		logger.Info(ctx, "persisting simulation runs", "backend", "sqlite", "path", cfg.SQLite.Path)
		return s, nil
	case "mysql":
		conn, err := db.InitMySQL(ctx, db.Config{
			DSN:                cfg.MySQL.DSN,
			MaxOpenConns:       cfg.MySQL.MaxOpenConns,
			MaxIdleConns:       cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime:    cfg.MySQL.ConnMaxLifetime,
			LogEnabled:         cfg.MySQL.LogEnabled,
			SlowQueryThreshold: cfg.MySQL.SlowQueryThreshold,
		})
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, conn.Close)
		repo, err := mysql.NewRecordRepository(ctx, conn.DB)
		if err != nil {
			return nil, fmt.Errorf("migrate simulation_runs failed: %w", err)
		}
		logger.Info(ctx, "persisting simulation runs", "backend", "mysql")
		return repo, nil
	default:
		return nil, nil
	}
}

// wireRedis 结果缓存与限流共用一个客户端，连接失败时降级运行
func wireRedis(ctx context.Context, cfg *config.Config, deps *dependencies) {
	rc := cfg.Data.Redis
	cacheCfg := cache.Config{
		Host:         rc.Host,
		Port:         rc.Port,
		Password:     rc.Password,
		DB:           rc.DB,
		MaxPoolSize:  rc.MaxPoolSize,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
		TTL:          time.Duration(rc.ResultTTL) * time.Second,
		Prefix:       cfg.ServiceName + ":result:",
	}
	client, err := cache.NewClient(ctx, cacheCfg)
	if err != nil {
		logger.Warn(ctx, "redis unavailable, result cache and rate limit disabled", "error", err)
		return
	}
	deps.closers = append(deps.closers, client.Close)
	deps.options = append(deps.options, application.WithCache(cache.New(client, cacheCfg)))
	if cfg.RateLimit.Enabled {
		deps.limiter = ratelimit.NewRedisLimiter(client)
	}
}
