package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env      string         `yaml:"env"`
	Logging  LoggingConfig  `yaml:"logging"`
	Account  AccountConfig  `yaml:"account"`
	Broker   BrokerConfig   `yaml:"broker"`
	Engine   EngineConfig   `yaml:"engine"`
	Strategy StrategyConfig `yaml:"strategy"`
	Policy   PolicyConfig   `yaml:"policy"`
	Feed     FeedConfig     `yaml:"feed"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AccountConfig struct {
	Currency string  `yaml:"currency"`
	Deposit  float64 `yaml:"deposit"`
}

type BrokerConfig struct {
	SpreadBps float64 `yaml:"spreadBps"`
}

type EngineConfig struct {
	ChannelCapacity int    `yaml:"channelCapacity"`
	Episodes        int    `yaml:"episodes"`
	Start           string `yaml:"start"`           // RFC3339，留空时取 feed 覆盖区间
	End             string `yaml:"end"`             // RFC3339
	ValidationStart string `yaml:"validationStart"` // 留空表示无验证阶段
	ValidationEnd   string `yaml:"validationEnd"`
}

type StrategyConfig struct {
	FastPeriod int `yaml:"fastPeriod"`
	SlowPeriod int `yaml:"slowPeriod"`
}

type PolicyConfig struct {
	OrderPct float64 `yaml:"orderPct"`
}

type FeedConfig struct {
	Kind       string   `yaml:"kind"` // random 或 live
	Symbols    []string `yaml:"symbols"`
	IntervalMs int      `yaml:"intervalMs"`
	Seed       int64    `yaml:"seed"`
	StartPrice float64  `yaml:"startPrice"`
	Volatility float64  `yaml:"volatility"`
	Endpoint   string   `yaml:"endpoint"` // live 源的 websocket 地址
}

type MetricsConfig struct {
	PrometheusAddr string `yaml:"prometheusAddr"` // 为空不启动导出端点
	NATSUrl        string `yaml:"natsUrl"`        // 为空不发布
	NATSSubject    string `yaml:"natsSubject"`
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides 在 Load 之上应用环境变量覆盖，便于容器部署。
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("BACKSIM_EPISODES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Episodes = n
		}
	}
	if v := os.Getenv("BACKSIM_DEPOSIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Account.Deposit = f
		}
	}
	if v := os.Getenv("BACKSIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BACKSIM_FEED_ENDPOINT"); v != "" {
		cfg.Feed.Endpoint = v
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Account.Currency == "" {
		cfg.Account.Currency = "USD"
	}
	if cfg.Account.Deposit <= 0 {
		cfg.Account.Deposit = 1_000_000
	}
	if cfg.Engine.ChannelCapacity <= 0 {
		cfg.Engine.ChannelCapacity = 10
	}
	if cfg.Engine.Episodes <= 0 {
		cfg.Engine.Episodes = 1
	}
	if cfg.Strategy.FastPeriod <= 0 {
		cfg.Strategy.FastPeriod = 12
	}
	if cfg.Strategy.SlowPeriod <= 0 {
		cfg.Strategy.SlowPeriod = 26
	}
	if cfg.Policy.OrderPct <= 0 {
		cfg.Policy.OrderPct = 0.1
	}
	if cfg.Feed.Kind == "" {
		cfg.Feed.Kind = "random"
	}
	if cfg.Feed.IntervalMs <= 0 {
		cfg.Feed.IntervalMs = int(time.Minute / time.Millisecond)
	}
}

// ParseTime 解析 RFC3339 时间字符串，空串返回零值。
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
