// Package config 提供 TOML 配置加载、环境变量覆盖与校验
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 风险引擎配置
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// 静态资源目录，为空时不提供前端页面
	StaticRoot string `mapstructure:"static_root"`

	HTTP       HTTPConfig       `mapstructure:"http"`
	GRPC       GRPCConfig       `mapstructure:"grpc"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Data       DataConfig       `mapstructure:"data"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Historical HistoricalConfig `mapstructure:"historical"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout"`
	// 写超时（秒），收敛分析可能较慢
	WriteTimeout int `mapstructure:"write_timeout"`
}

// GRPCConfig gRPC 服务配置，Port 为 0 时不启动
type GRPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	WithCaller bool   `mapstructure:"with_caller"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// 独立端口，0 表示挂在 HTTP 主路由上
	Port int    `mapstructure:"port"`
	Path string `mapstructure:"path"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	// 采样比例 (0, 1]
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// RateLimitConfig 基于 Redis 的限流配置
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	QPS     int  `mapstructure:"qps"`
	Burst   int  `mapstructure:"burst"`
}

// DataConfig 外部数据源
type DataConfig struct {
	// 台账持久化后端：file, mysql, sqlite, none
	LedgerBackend string       `mapstructure:"ledger_backend"`
	FileStore     string       `mapstructure:"file_store"`
	MySQL         MySQLConfig  `mapstructure:"mysql"`
	SQLite        SQLiteConfig `mapstructure:"sqlite"`
	Redis         RedisConfig  `mapstructure:"redis"`
	Kafka         KafkaConfig  `mapstructure:"kafka"`
}

// MySQLConfig MySQL 配置
type MySQLConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogEnabled      bool   `mapstructure:"log_enabled"`
	// 慢查询阈值（毫秒）
	SlowQueryThreshold int `mapstructure:"slow_query_threshold"`
}

// SQLiteConfig SQLite 配置
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig Redis 配置，Host 为空时不启用结果缓存与限流
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	MaxPoolSize  int    `mapstructure:"max_pool_size"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	// 结果缓存 TTL（秒）
	ResultTTL int `mapstructure:"result_ttl"`
}

// KafkaConfig Kafka 配置，Brokers 为空时不发布事件
type KafkaConfig struct {
	Brokers      []string `mapstructure:"brokers"`
	Topic        string   `mapstructure:"topic"`
	MaxRetries   int      `mapstructure:"max_retries"`
	RetryBackoff int      `mapstructure:"retry_backoff"`
}

// LedgerConfig 内存台账配置
type LedgerConfig struct {
	MaxRecords int `mapstructure:"max_records"`
}

// HistoricalConfig 历史行情 CSV
type HistoricalConfig struct {
	Symbol  string `mapstructure:"symbol"`
	CSVPath string `mapstructure:"csv_path"`
}

// SimulationConfig 模拟默认参数
type SimulationConfig struct {
	Workers   int `mapstructure:"workers"`
	BlockSize int `mapstructure:"block_size"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return decode(v)
}

// LoadWithDefaults 加载配置，文件不存在时仅使用默认值和环境变量
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		_ = v.ReadInConfig()
	}

	return decode(v)
}

// Bind 将已绑定命令行参数的 viper 实例解析为配置
func Bind(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	// 环境变量前缀 APP_，key 中的 . 替换为 _
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.GRPC.Port < 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}
	switch c.Data.LedgerBackend {
	case "file", "none":
	case "mysql":
		if c.Data.MySQL.DSN == "" {
			return fmt.Errorf("data.mysql.dsn is required for mysql ledger backend")
		}
	case "sqlite":
		if c.Data.SQLite.Path == "" {
			return fmt.Errorf("data.sqlite.path is required for sqlite ledger backend")
		}
	default:
		return fmt.Errorf("unsupported ledger backend: %s", c.Data.LedgerBackend)
	}
	if c.Ledger.MaxRecords <= 0 {
		return fmt.Errorf("ledger.max_records must be positive")
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "riskengine")
	v.SetDefault("environment", "dev")
	v.SetDefault("static_root", "web")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 300)

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/riskengine.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 0)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "riskengine")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.qps", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("data.ledger_backend", "file")
	v.SetDefault("data.file_store", "data/simulations.jsonl")
	v.SetDefault("data.mysql.max_open_conns", 10)
	v.SetDefault("data.mysql.max_idle_conns", 2)
	v.SetDefault("data.mysql.conn_max_lifetime", 300)
	v.SetDefault("data.mysql.slow_query_threshold", 500)
	v.SetDefault("data.sqlite.path", "data/simulations.db")
	v.SetDefault("data.redis.port", 6379)
	v.SetDefault("data.redis.max_pool_size", 10)
	v.SetDefault("data.redis.read_timeout", 3)
	v.SetDefault("data.redis.write_timeout", 3)
	v.SetDefault("data.redis.result_ttl", 600)
	v.SetDefault("data.kafka.topic", "riskengine.simulations")
	v.SetDefault("data.kafka.max_retries", 3)
	v.SetDefault("data.kafka.retry_backoff", 100)

	v.SetDefault("ledger.max_records", 128)

	v.SetDefault("historical.symbol", "SPY")
	v.SetDefault("historical.csv_path", "data/spy_2020_2024.csv")

	v.SetDefault("simulation.workers", 0)
	v.SetDefault("simulation.block_size", 4096)
}
