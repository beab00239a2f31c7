package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SwingDesk/pkg/logger"
	"SwingDesk/pkg/util"
)

type Provider struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Timeout           time.Duration `yaml:"timeout" default:"10s"`
	RequestsPerSecond float64       `yaml:"requests_per_second" default:"5"`
	Burst             int           `yaml:"burst" default:"5"`
}

type Account struct {
	ID            int    `yaml:"id"`
	Name          string `yaml:"name"`
	Strategy      string `yaml:"strategy"`
	HoldingPeriod string `yaml:"holding_period"`
}

type Config struct {
	Environment string        `yaml:"environment"`
	Log         logger.Config `yaml:"log"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RefreshLimit    struct {
			Capacity     float64 `yaml:"capacity" default:"2"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"0.0333"`
		} `yaml:"refresh_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Scanner struct {
		Symbols         []string      `yaml:"symbols"`
		Workers         int           `yaml:"workers" default:"8"`
		FetchTimeout    time.Duration `yaml:"fetch_timeout" default:"20s"`
		RefreshInterval time.Duration `yaml:"refresh_interval" default:"5m"`
		MarketHoursOnly bool          `yaml:"market_hours_only"`
		CalendarMIC     string        `yaml:"calendar_mic" default:"xnys"`
	} `yaml:"scanner"`
	Providers struct {
		FMP        Provider `yaml:"fmp"`
		TwelveData Provider `yaml:"twelve_data"`
		Yahoo      Provider `yaml:"yahoo"`
		Finnhub    Provider `yaml:"finnhub"`
	} `yaml:"providers"`
	Cache struct {
		MemorySize  int           `yaml:"memory_size" default:"1000"`
		SnapshotTTL time.Duration `yaml:"snapshot_ttl" default:"5m"`
		Redis       struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Sink struct {
		Backend string `yaml:"backend" default:"none"`
	} `yaml:"sink"`
	Kafka struct {
		Brokers        []string `yaml:"brokers"`
		DecisionsTopic string   `yaml:"decisions_topic" default:"swingdesk.decisions"`
		SnapshotsTopic string   `yaml:"snapshots_topic"`
		RequiredAcks   int      `yaml:"required_acks" default:"-1"`
		Compression    string   `yaml:"compression" default:"snappy"`
		Producer       struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"swingdesk"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"swingdesk"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Accounts []Account `yaml:"accounts"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML, then .env (if present), then overrides
// with environment variables before validating.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FMP_API_KEY"); v != "" {
		c.Providers.FMP.APIKey = v
	}
	if v := os.Getenv("TWELVE_DATA_API_KEY"); v != "" {
		c.Providers.TwelveData.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Providers.Finnhub.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Scanner.Symbols = util.SplitSymbols(v)
	}
	if v := os.Getenv("SINK_BACKEND"); v != "" {
		c.Sink.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Sink.Backend {
	case "none", "kafka", "clickhouse":
	default:
		return fmt.Errorf("sink.backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Sink.Backend)
	}
	if (c.Sink.Backend == "kafka" || c.Kafka.SnapshotsTopic != "") && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is in use")
	}
	if c.Sink.Backend == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when sink.backend is 'clickhouse'")
	}
	if len(c.Scanner.Symbols) == 0 {
		return fmt.Errorf("scanner.symbols cannot be empty")
	}
	if c.Scanner.Workers < 1 {
		return fmt.Errorf("scanner.workers must be >= 1, got %d", c.Scanner.Workers)
	}
	for _, a := range c.Accounts {
		if a.ID < 1 || a.Name == "" {
			return fmt.Errorf("accounts: id must be >= 1 and name set, got %+v", a)
		}
	}
	return nil
}
