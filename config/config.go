package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Whaleflow WhaleflowConfig `yaml:"whaleflow"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Detectors DetectorsConfig `yaml:"detectors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WhaleflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
	Dashboard string `yaml:"dashboard"`
}

type GatewayConfig struct {
	BaseURL     string          `yaml:"base_url"`
	TimeoutMs   int             `yaml:"timeout_ms"`
	MaxInflight int             `yaml:"max_inflight"`
	BatchSize   int             `yaml:"batch_size"`
	CacheTTLMs  int             `yaml:"cache_ttl_ms"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Retry       RetryConfig     `yaml:"retry"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
}

// DetectorsConfig carries engine-wide default thresholds. Individual scans
// may override any of these through their per-detector parameter structs.
type DetectorsConfig struct {
	BigTradeUSD   float64 `yaml:"big_trade_usd"`
	SmallCloseUSD float64 `yaml:"small_close_usd"`
	MinWallets    int     `yaml:"min_wallets"`
	TopN          int     `yaml:"top_n"`
}

type LoggingConfig struct {
	Level         string                 `yaml:"level"`
	Format        string                 `yaml:"format"`
	Output        string                 `yaml:"output"`
	MaxAge        int                    `yaml:"max_age"`
	Fields        map[string]interface{} `yaml:"fields"`
	DashboardName string                 `yaml:"dashboard_name"`
}

func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

func (g GatewayConfig) CacheTTL() time.Duration {
	return time.Duration(g.CacheTTLMs) * time.Millisecond
}

func (r RetryConfig) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMs) * time.Millisecond
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override the upstream endpoint from the environment if present
	if v := os.Getenv("WHALEFLOW_API_URL"); v != "" {
		config.Gateway.BaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_REGION"); v != "" && config.Metrics.Region == "" {
		config.Metrics.Region = strings.TrimSpace(v)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func defaultConfig() Config {
	return Config{
		Metrics: MetricsConfig{
			Enabled: false,
		},
		Gateway: GatewayConfig{
			TimeoutMs:   10000,
			MaxInflight: 6,
			BatchSize:   20,
			CacheTTLMs:  60000,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 20,
				BurstSize:         40,
			},
			Retry: RetryConfig{
				MaxAttempts: 3,
				BaseDelayMs: 500,
			},
		},
		Detectors: DetectorsConfig{
			BigTradeUSD:   50000,
			SmallCloseUSD: 2000,
			MinWallets:    3,
			TopN:          5,
		},
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Whaleflow.Name == "" {
		return fmt.Errorf("whaleflow.name is required")
	}

	if cfg.Whaleflow.Version == "" {
		return fmt.Errorf("whaleflow.version is required")
	}

	if cfg.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is required")
	}

	if !isValidEndpointURL(cfg.Gateway.BaseURL) {
		return fmt.Errorf("gateway.base_url '%s' is invalid", cfg.Gateway.BaseURL)
	}

	if cfg.Gateway.MaxInflight <= 0 {
		return fmt.Errorf("gateway.max_inflight must be greater than 0")
	}

	if cfg.Gateway.BatchSize <= 0 {
		return fmt.Errorf("gateway.batch_size must be greater than 0")
	}

	if cfg.Gateway.TimeoutMs <= 0 {
		return fmt.Errorf("gateway.timeout_ms must be greater than 0")
	}

	if cfg.Gateway.CacheTTLMs <= 0 {
		return fmt.Errorf("gateway.cache_ttl_ms must be greater than 0")
	}

	if cfg.Gateway.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("gateway.retry.max_attempts must be greater than 0")
	}

	if cfg.Detectors.BigTradeUSD <= 0 {
		return fmt.Errorf("detectors.big_trade_usd must be greater than 0")
	}

	return nil
}

var endpointURLRegexp = regexp.MustCompile(`^https?://[a-zA-Z0-9.-]+(:[0-9]+)?(/.*)?$`)

func isValidEndpointURL(raw string) bool {
	return endpointURLRegexp.MatchString(raw)
}
