package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"coinsync/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is sent with every upstream request.
	DefaultUserAgent = "coinsync/1.0 (+https://www.coingecko.com/en/api)"

	// DefaultBaseURL is the public CoinGecko v3 API.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		CoinGecko struct {
			BaseURL       string `yaml:"base_url"`
			APIKey        string `yaml:"api_key"`
			VsCurrency    string `yaml:"vs_currency"`
			PerPage       int    `yaml:"per_page"`
			TimeoutSec    int    `yaml:"timeout_sec"`
			MinIntervalMS int    `yaml:"min_interval_ms"`
		} `yaml:"coingecko"`
	} `yaml:"api"`

	Sync struct {
		MaxRetries         int `yaml:"max_retries"`
		BackoffBaseMS      int `yaml:"backoff_base_ms"`
		LoadMoreDebounceMS int `yaml:"load_more_debounce_ms"`
	} `yaml:"sync"`

	Alerts struct {
		SpikeThreshold  decimal.Decimal `yaml:"spike_threshold"`
		HighThreshold   decimal.Decimal `yaml:"high_threshold"`
		DisplayWindowMS int             `yaml:"display_window_ms"`
	} `yaml:"alerts"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with the upstream's documented limits.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "coinsync"
	cfg.App.Version = "1.0.0"

	cfg.API.CoinGecko.BaseURL = DefaultBaseURL
	cfg.API.CoinGecko.VsCurrency = "usd"
	cfg.API.CoinGecko.PerPage = domain.PageSize
	cfg.API.CoinGecko.TimeoutSec = 10
	cfg.API.CoinGecko.MinIntervalMS = 100

	cfg.Sync.MaxRetries = domain.MaxRetries
	cfg.Sync.BackoffBaseMS = 1000
	cfg.Sync.LoadMoreDebounceMS = 200

	cfg.Alerts.SpikeThreshold = decimal.NewFromInt(10)
	cfg.Alerts.HighThreshold = decimal.NewFromInt(20)
	cfg.Alerts.DisplayWindowMS = 5000

	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	cfg.Logging.File = "coinsync.log"
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
// Keys missing from the file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// 4원칙: 보안 우선 - 환경 변수 오버라이드 지원
	overrideWithEnv(cfg)

	// 5원칙: 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	cg := c.API.CoinGecko
	if !strings.HasPrefix(cg.BaseURL, "http://") && !strings.HasPrefix(cg.BaseURL, "https://") {
		return &domain.ConfigError{Field: "api.coingecko.base_url", Err: fmt.Errorf("invalid URL: %q", cg.BaseURL)}
	}
	// hasMore is derived from a full page of domain.PageSize records.
	if cg.PerPage != domain.PageSize {
		return &domain.ConfigError{Field: "api.coingecko.per_page", Err: fmt.Errorf("must be %d, got %d", domain.PageSize, cg.PerPage)}
	}
	if cg.TimeoutSec < 1 {
		return &domain.ConfigError{Field: "api.coingecko.timeout_sec", Err: errors.New("must be at least 1")}
	}
	if cg.MinIntervalMS < 0 {
		return &domain.ConfigError{Field: "api.coingecko.min_interval_ms", Err: errors.New("must not be negative")}
	}

	if c.Sync.MaxRetries < 1 {
		return &domain.ConfigError{Field: "sync.max_retries", Err: errors.New("must be at least 1")}
	}
	if c.Sync.BackoffBaseMS < 0 {
		return &domain.ConfigError{Field: "sync.backoff_base_ms", Err: errors.New("must not be negative")}
	}

	if !c.Alerts.SpikeThreshold.IsPositive() {
		return &domain.ConfigError{Field: "alerts.spike_threshold", Err: errors.New("must be positive")}
	}
	if !c.Alerts.HighThreshold.GreaterThan(c.Alerts.SpikeThreshold) {
		return &domain.ConfigError{Field: "alerts.high_threshold", Err: errors.New("must exceed spike_threshold")}
	}

	return nil
}

// RequestTimeout is the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.CoinGecko.TimeoutSec) * time.Second
}

// MinInterval is the minimum delay before each upstream request.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.API.CoinGecko.MinIntervalMS) * time.Millisecond
}

// BackoffBase is the unit of the linear rate-limit backoff.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.Sync.BackoffBaseMS) * time.Millisecond
}

// LoadMoreDebounce is the window in which load-more triggers are coalesced.
func (c *Config) LoadMoreDebounce() time.Duration {
	return time.Duration(c.Sync.LoadMoreDebounceMS) * time.Millisecond
}

// AlertDisplayWindow is how long the presentation layer shows alerts before clearing them.
func (c *Config) AlertDisplayWindow() time.Duration {
	return time.Duration(c.Alerts.DisplayWindowMS) * time.Millisecond
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("COINSYNC_API_URL"); url != "" {
		cfg.API.CoinGecko.BaseURL = url
	}
	if key := os.Getenv("COINSYNC_API_KEY"); key != "" {
		cfg.API.CoinGecko.APIKey = key
	}
	if level := os.Getenv("COINSYNC_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
