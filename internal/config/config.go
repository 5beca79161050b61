package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the surge forecasting service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Oracles   OraclesConfig   `yaml:"oracles"`
	Logging   LoggingConfig   `yaml:"logging"`
	Baselines BaselinesConfig `yaml:"baselines"`
	Costs     CostsConfig     `yaml:"costs"`
	Events    EventsConfig    `yaml:"events"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Cache     CacheConfig     `yaml:"cache"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Forecast  ForecastConfig  `yaml:"forecast"`
	LLM       LLMConfig       `yaml:"llm"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// OraclesConfig groups upstream data-source integrations.
type OraclesConfig struct {
	Signal SignalOracleConfig `yaml:"signal"`
}

// SignalOracleConfig configures the environmental signal oracle client.
type SignalOracleConfig struct {
	BaseURL      string        `yaml:"baseURL"`
	SignalPath   string        `yaml:"signalPath"`
	EventsPath   string        `yaml:"eventsPath"`
	APIKey       string        `yaml:"apiKey"`
	Timeout      time.Duration `yaml:"timeout"`
	RetryBackoff time.Duration `yaml:"retryBackoff"`
	RateLimit    float64       `yaml:"rateLimit"`
	RateBurst    int           `yaml:"rateBurst"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// BaselinesConfig controls city baseline loading.
type BaselinesConfig struct {
	Path string `yaml:"path"`
}

// CostsConfig controls unit-cost table loading for resource estimates.
type CostsConfig struct {
	Path string `yaml:"path"`
}

// EventsConfig controls the scheduled-event calendar source.
type EventsConfig struct {
	Path string `yaml:"path"`
}

// PipelineConfig controls orchestration policy.
type PipelineConfig struct {
	HorizonDays     int           `yaml:"horizonDays"`
	FreshnessWindow time.Duration `yaml:"freshnessWindow"`
	AlertExpiry     time.Duration `yaml:"alertExpiry"`
}

// SchedulerConfig controls cron-driven refresh of tracked cities.
type SchedulerConfig struct {
	Enabled bool     `yaml:"enabled"`
	Spec    string   `yaml:"spec"`
	Cities  []string `yaml:"cities"`
}

// CacheConfig controls Valkey-backed caching of oracle lookups.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	SignalTTL    time.Duration `yaml:"signalTTL"`
	EventsTTL    time.Duration `yaml:"eventsTTL"`
}

// ArchiveConfig controls the optional long-term record archive.
type ArchiveConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
	ListTTL  time.Duration `yaml:"listTTL"`
}

// Forecast engine modes.
const (
	ForecastModeRules = "rules"
	ForecastModeLLM   = "llm"
)

// ForecastConfig selects the forecast engine. The deterministic rule engine
// is the reference; the generative engine is opt-in and independent of the
// advisory generator.
type ForecastConfig struct {
	Mode string `yaml:"mode"`
}

// LLMConfig controls the optional generative model used for advisories and,
// when forecast.mode is llm, the forecast engine.
type LLMConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SURGECAST_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Oracles: OraclesConfig{
			Signal: SignalOracleConfig{
				SignalPath:   "/api/v1/signal",
				EventsPath:   "/api/v1/events",
				Timeout:      5 * time.Second,
				RetryBackoff: 500 * time.Millisecond,
				RateLimit:    10,
				RateBurst:    5,
			},
		},
		Logging:   LoggingConfig{Level: "info", JSON: false},
		Baselines: BaselinesConfig{Path: "configs/baselines.yaml"},
		Costs:     CostsConfig{Path: "configs/costs.yaml"},
		Events:    EventsConfig{Path: "configs/events.yaml"},
		Pipeline: PipelineConfig{
			HorizonDays:     7,
			FreshnessWindow: time.Hour,
			AlertExpiry:     24 * time.Hour,
		},
		Scheduler: SchedulerConfig{
			Enabled: false,
			Spec:    "0 */6 * * *",
		},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			SignalTTL:    10 * time.Minute,
			EventsTTL:    time.Hour,
		},
		Archive: ArchiveConfig{
			Timeout: 10 * time.Second,
			ListTTL: 5 * time.Minute,
		},
		Forecast: ForecastConfig{Mode: ForecastModeRules},
		LLM:      LLMConfig{Model: "gpt-4o-mini"},
	}
}

func (c *Config) validate() error {
	if c.Pipeline.HorizonDays < 1 || c.Pipeline.HorizonDays > 14 {
		return fmt.Errorf("pipeline.horizonDays must be between 1 and 14, got %d", c.Pipeline.HorizonDays)
	}
	if c.Pipeline.FreshnessWindow <= 0 {
		return fmt.Errorf("pipeline.freshnessWindow must be positive")
	}
	if c.Pipeline.AlertExpiry <= 0 {
		return fmt.Errorf("pipeline.alertExpiry must be positive")
	}
	switch c.Forecast.Mode {
	case ForecastModeRules, ForecastModeLLM:
	default:
		return fmt.Errorf("forecast.mode must be %q or %q, got %q", ForecastModeRules, ForecastModeLLM, c.Forecast.Mode)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SURGECAST_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("SURGECAST_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("SURGECAST_SIGNAL_BASE_URL"); v != "" {
		cfg.Oracles.Signal.BaseURL = v
	}
	if v := os.Getenv("SURGECAST_SIGNAL_PATH"); v != "" {
		cfg.Oracles.Signal.SignalPath = v
	}
	if v := os.Getenv("SURGECAST_EVENTS_PATH"); v != "" {
		cfg.Oracles.Signal.EventsPath = v
	}
	if v := os.Getenv("SURGECAST_SIGNAL_API_KEY"); v != "" {
		cfg.Oracles.Signal.APIKey = v
	}
	if v := os.Getenv("SURGECAST_SIGNAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Oracles.Signal.Timeout = d
		}
	}
	if v := os.Getenv("SURGECAST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SURGECAST_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("SURGECAST_BASELINES_PATH"); v != "" {
		cfg.Baselines.Path = v
	}
	if v := os.Getenv("SURGECAST_COSTS_PATH"); v != "" {
		cfg.Costs.Path = v
	}
	if v := os.Getenv("SURGECAST_EVENTS_FILE"); v != "" {
		cfg.Events.Path = v
	}
	if v := os.Getenv("SURGECAST_HORIZON_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.HorizonDays = n
		}
	}
	if v := os.Getenv("SURGECAST_FRESHNESS_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Pipeline.FreshnessWindow = d
		}
	}
	if v := os.Getenv("SURGECAST_ALERT_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Pipeline.AlertExpiry = d
		}
	}
	if v := os.Getenv("SURGECAST_SCHEDULER_ENABLED"); v != "" {
		cfg.Scheduler.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("SURGECAST_SCHEDULER_SPEC"); v != "" {
		cfg.Scheduler.Spec = v
	}
	if v := os.Getenv("SURGECAST_SCHEDULER_CITIES"); v != "" {
		cities := strings.Split(v, ",")
		cfg.Scheduler.Cities = cfg.Scheduler.Cities[:0]
		for _, c := range cities {
			if c = strings.TrimSpace(c); c != "" {
				cfg.Scheduler.Cities = append(cfg.Scheduler.Cities, c)
			}
		}
	}
	if v := os.Getenv("SURGECAST_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("SURGECAST_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("SURGECAST_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("SURGECAST_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("SURGECAST_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("SURGECAST_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("SURGECAST_CACHE_SIGNAL_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.SignalTTL = d
		}
	}
	if v := os.Getenv("SURGECAST_CACHE_EVENTS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.EventsTTL = d
		}
	}
	if v := os.Getenv("SURGECAST_ARCHIVE_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("SURGECAST_ARCHIVE_API_KEY"); v != "" {
		cfg.Archive.APIKey = v
	}
	if v := os.Getenv("SURGECAST_FORECAST_MODE"); v != "" {
		cfg.Forecast.Mode = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("SURGECAST_LLM_ENABLED"); v != "" {
		cfg.LLM.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("SURGECAST_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("SURGECAST_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
}
