package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/samirrijal/geolisten/internal/core/domain"
)

const (
	SourceTwitter = "twitter"
	SourceNATS    = "nats"
)

// Config holds all application configuration.
type Config struct {
	Collector CollectorConfig `mapstructure:"collector"`
	Output    OutputConfig    `mapstructure:"output"`
	Boundary  BoundaryConfig  `mapstructure:"boundary"`
	Twitter   TwitterConfig   `mapstructure:"twitter"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type CollectorConfig struct {
	RecordLimit int    `mapstructure:"record_limit"`
	Region      string `mapstructure:"region"`
	// BBox is "west,south,east,north".
	BBox string `mapstructure:"bbox"`
	// Near is "lat,lon,radius_meters".
	Near   string `mapstructure:"near"`
	Source string `mapstructure:"source"`
}

type OutputConfig struct {
	Dir       string `mapstructure:"dir"`
	Basename  string `mapstructure:"basename"`
	WrapWidth int    `mapstructure:"wrap_width"`
}

type BoundaryConfig struct {
	Source string `mapstructure:"source"`
	// NameProperty is a comma separated list of feature properties.
	NameProperty string        `mapstructure:"name_property"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// Properties splits NameProperty.
func (b BoundaryConfig) Properties() []string {
	var out []string
	for _, p := range strings.Split(b.NameProperty, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type TwitterConfig struct {
	StreamURL      string        `mapstructure:"stream_url"`
	TokenURL       string        `mapstructure:"token_url"`
	ConsumerKey    string        `mapstructure:"consumer_key"`
	ConsumerSecret string        `mapstructure:"consumer_secret"`
	BearerToken    string        `mapstructure:"bearer_token"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
	Queue   string `mapstructure:"queue"`
	// PublishSubject relays accepted records when set.
	PublishSubject string `mapstructure:"publish_subject"`
}

type ValkeyConfig struct {
	// Addr enables the boundary cache when set.
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type MetricsConfig struct {
	// Addr enables the status server when set, e.g. ":9090".
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"limit":        "collector.record_limit",
	"region":       "collector.region",
	"bbox":         "collector.bbox",
	"near":         "collector.near",
	"source":       "collector.source",
	"output-dir":   "output.dir",
	"log-level":    "log.level",
	"metrics-addr": "metrics.addr",
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to a config file (default ./config.yaml)")
	fs.IntP("limit", "n", 100, "number of matching records to collect")
	fs.StringP("region", "r", "", "named region to collect from")
	fs.StringP("bbox", "b", "", "bounding box to collect from as west,south,east,north")
	fs.String("near", "", "collect within a radius as lat,lon,radius_meters")
	fs.String("source", SourceTwitter, "stream source: twitter or nats")
	fs.StringP("output-dir", "o", "", "directory for the collected artifacts")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("metrics-addr", "", "serve /health and /metrics on this address")
}

// Load reads and validates configuration. See Read.
func Load(service string, flags *pflag.FlagSet) (*Config, error) {
	cfg, err := Read(service, flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read reads configuration from defaults, an optional config file, .env,
// environment variables and flags, in increasing order of precedence,
// without validating it. flags may be nil.
func Read(service string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("collector.record_limit", 100)
	v.SetDefault("collector.region", "")
	v.SetDefault("collector.bbox", "")
	v.SetDefault("collector.near", "")
	v.SetDefault("collector.source", SourceTwitter)
	v.SetDefault("output.dir", defaultOutputDir())
	v.SetDefault("output.basename", "tweet_stream")
	v.SetDefault("output.wrap_width", 70)
	v.SetDefault("boundary.source", "boundaries.geojson")
	v.SetDefault("boundary.name_property", "name,abbr")
	v.SetDefault("boundary.cache_ttl", "24h")
	v.SetDefault("twitter.stream_url", "https://stream.twitter.com/1.1/statuses/filter.json")
	v.SetDefault("twitter.token_url", "https://api.twitter.com/oauth2/token")
	v.SetDefault("twitter.consumer_key", "")
	v.SetDefault("twitter.consumer_secret", "")
	v.SetDefault("twitter.bearer_token", "")
	v.SetDefault("twitter.idle_timeout", "90s")
	v.SetDefault("twitter.max_retries", 0)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "geolisten.records")
	v.SetDefault("nats.queue", "")
	v.SetDefault("nats.publish_subject", "")
	v.SetDefault("valkey.addr", "")
	v.SetDefault("valkey.prefix", "geolisten:")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "geolisten")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "geolisten")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Config file (optional unless named explicitly)
	var explicit string
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", explicit, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// .env does not override variables already set in the environment
	_ = godotenv.Load()

	// Environment variables: GEOLISTEN_COLLECTOR_REGION → collector.region
	v.SetEnvPrefix("GEOLISTEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// defaultOutputDir is the output directory next to the executable.
func defaultOutputDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "output"
	}
	return filepath.Join(filepath.Dir(exe), "output")
}

// ValidationError lists every problem found by Validate.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (e *ValidationError) Unwrap() []error {
	return e.Errs
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []error

	region := strings.TrimSpace(c.Collector.Region)
	bbox := strings.TrimSpace(c.Collector.BBox)
	near := strings.TrimSpace(c.Collector.Near)
	set := 0
	for _, v := range []string{region, bbox, near} {
		if v != "" {
			set++
		}
	}
	switch {
	case set == 0:
		errs = append(errs, domain.ErrNoRegion)
	case set > 1:
		errs = append(errs, domain.ErrRegionConflict)
	case bbox != "":
		if _, err := c.Collector.ParsedBBox(); err != nil {
			errs = append(errs, fmt.Errorf("collector.bbox: %w", err))
		}
	case near != "":
		if _, err := c.Collector.ParsedCircle(); err != nil {
			errs = append(errs, fmt.Errorf("collector.near: %w", err))
		}
	}

	if c.Collector.RecordLimit <= 0 {
		errs = append(errs, fmt.Errorf("collector.record_limit must be positive, got %d", c.Collector.RecordLimit))
	}
	switch c.Collector.Source {
	case SourceTwitter:
		if c.Twitter.BearerToken == "" && (c.Twitter.ConsumerKey == "" || c.Twitter.ConsumerSecret == "") {
			errs = append(errs, errors.New("twitter.bearer_token or twitter.consumer_key and twitter.consumer_secret are required"))
		}
		if c.Twitter.MaxRetries < 0 {
			errs = append(errs, errors.New("twitter.max_retries must not be negative"))
		}
	case SourceNATS:
		if c.NATS.URL == "" {
			errs = append(errs, errors.New("nats.url is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("collector.source must be %q or %q, got %q", SourceTwitter, SourceNATS, c.Collector.Source))
	}

	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir is required"))
	}
	if c.Output.Basename == "" {
		errs = append(errs, errors.New("output.basename is required"))
	}
	if c.Output.WrapWidth <= 4 {
		errs = append(errs, fmt.Errorf("output.wrap_width must be greater than 4, got %d", c.Output.WrapWidth))
	}
	if region != "" && c.Boundary.Source == "" {
		errs = append(errs, errors.New("boundary.source is required to resolve a region"))
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required"))
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Errorf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.DBName == "" {
			errs = append(errs, errors.New("database.dbname is required"))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errs: errs}
	}
	return nil
}

// ParsedBBox parses the configured bounding box.
func (c CollectorConfig) ParsedBBox() (domain.BBox, error) {
	return domain.ParseBBox(c.BBox)
}

// ParsedCircle parses the configured radius filter.
func (c CollectorConfig) ParsedCircle() (domain.Circle, error) {
	return domain.ParseCircle(c.Near)
}
