package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/jackliao/marketmood/internal/core"
	"github.com/spf13/viper"
)

// ClosePolicy controls how an open position at the end of a backtest
// is treated.
type ClosePolicy string

const (
	// CloseMarkToLast force-closes the open position at the last
	// available close and counts it in the trade log.
	CloseMarkToLast ClosePolicy = "mark_to_last"
	// CloseReportOpen leaves the position open and reports it
	// separately from the realized trade log.
	CloseReportOpen ClosePolicy = "report_open"
)

type Config struct {
	Signals  SignalsConfig  `mapstructure:"signals"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	Data     DataConfig     `mapstructure:"data"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Journal  JournalConfig  `mapstructure:"journal"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// SignalsConfig holds the four threshold knobs of the contrarian rule.
type SignalsConfig struct {
	BuyFearGreedMax  float64 `mapstructure:"buy_fear_greed_max"`
	BuyVIXMin        float64 `mapstructure:"buy_vix_min"`
	SellFearGreedMin float64 `mapstructure:"sell_fear_greed_min"`
	SellVIXMax       float64 `mapstructure:"sell_vix_max"`
}

type BacktestConfig struct {
	InitialCapital float64     `mapstructure:"initial_capital"`
	ClosePolicy    ClosePolicy `mapstructure:"close_policy"`
}

// DataConfig describes what the fetch command downloads.
type DataConfig struct {
	PriceSymbol string `mapstructure:"price_symbol"` // e.g. "SPY"
	VIXSymbol   string `mapstructure:"vix_symbol"`   // e.g. "^VIX"
	StartDate   string `mapstructure:"start_date"`   // YYYY-MM-DD
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"` // sqlite file path
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults. The signal
// thresholds reproduce the documented historical distribution of
// roughly 1772 HOLD / 52 BUY / 27 SELL days.
func Defaults() *Config {
	return &Config{
		Signals: SignalsConfig{
			BuyFearGreedMax:  20,
			BuyVIXMin:        30,
			SellFearGreedMin: 80,
			SellVIXMax:       15,
		},
		Backtest: BacktestConfig{
			InitialCapital: 1.0,
			ClosePolicy:    CloseMarkToLast,
		},
		Data: DataConfig{
			PriceSymbol: "SPY",
			VIXSymbol:   "^VIX",
			StartDate:   "2000-01-01",
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "data",
		},
		Journal: JournalConfig{
			Enabled: false,
			DSN:     "marketmood.db",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	s := c.Signals
	if s.BuyFearGreedMax < 0 || s.BuyFearGreedMax > 100 ||
		s.SellFearGreedMin < 0 || s.SellFearGreedMin > 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fear/greed thresholds must be within [0, 100]"))
	}
	if s.BuyFearGreedMax >= s.SellFearGreedMin {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("buy_fear_greed_max (%.1f) must be below sell_fear_greed_min (%.1f)",
				s.BuyFearGreedMax, s.SellFearGreedMin))
	}
	if s.BuyVIXMin <= 0 || s.SellVIXMax <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("VIX thresholds must be positive"))
	}
	if s.SellVIXMax >= s.BuyVIXMin {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("sell_vix_max (%.1f) must be below buy_vix_min (%.1f)",
				s.SellVIXMax, s.BuyVIXMin))
	}

	if c.Backtest.InitialCapital <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_capital must be positive, got %f", c.Backtest.InitialCapital))
	}
	switch c.Backtest.ClosePolicy {
	case CloseMarkToLast, CloseReportOpen:
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown close_policy: %s", c.Backtest.ClosePolicy))
	}

	switch c.Storage.Type {
	case "localfs", "s3":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type: %s", c.Storage.Type))
	}
	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("s3 bucket required when storage type is s3"))
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown LLM provider: %s", c.LLM.Provider))
		}
	}

	return nil
}
