package config

import (
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go-simpler.org/env"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMasterlistURL   = "https://master.vc-mp.org/servers/"
	DefaultStatusAPIBase   = "https://vcmp-servers-status.onrender.com"
	DefaultRefreshInterval = 30 * time.Second
	DefaultListen          = ":8080"

	OutputLog   = "log"
	OutputTable = "table"
)

type Config struct {
	Masterlist MasterlistConfig `yaml:"masterlist"`
	Status     StatusConfig     `yaml:"status"`
	Cache      CacheConfig      `yaml:"cache"`
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
	Filter     FilterConfig     `yaml:"filter"`

	// Output selects the presenter: "log" or "table".
	Output string `yaml:"output" env:"VCMP_OUTPUT"`
}

// ---- MASTERLIST ----

type MasterlistConfig struct {
	URL             string        `yaml:"url" env:"VCMP_MASTERLIST_URL"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"VCMP_REFRESH_INTERVAL"`
}

// ---- STATUS API ----

type StatusConfig struct {
	BaseURL string `yaml:"base_url" env:"VCMP_STATUS_API_BASE"`

	// Workers > 1 switches the enricher to a bounded pool.
	Workers int `yaml:"workers" env:"VCMP_STATUS_WORKERS"`

	// RequestsPerSecond paces status requests; 0 disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"VCMP_STATUS_RPS"`
}

// ---- SHARED HTTP CLIENT / SERVER ----

type HTTPConfig struct {
	Listen string `yaml:"listen" env:"VCMP_LISTEN"`
	Port   string `yaml:"-" env:"PORT"`

	// RequestTimeout bounds upstream requests; 0 leaves transport defaults.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"VCMP_REQUEST_TIMEOUT"`
}

// ---- CACHE ----

type CacheConfig struct {
	// PruneInterval > 0 enables dropping keys that left the masterlist.
	PruneInterval time.Duration `yaml:"prune_interval" env:"VCMP_PRUNE_INTERVAL"`
}

// ---- LOGGING ----

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// ---- DEFAULT FILTER (pushed render passes) ----

type FilterConfig struct {
	Search       string `yaml:"search" env:"VCMP_FILTER_SEARCH"`
	OfficialOnly bool   `yaml:"official_only" env:"VCMP_FILTER_OFFICIAL_ONLY"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Masterlist: MasterlistConfig{
			URL:             DefaultMasterlistURL,
			RefreshInterval: DefaultRefreshInterval,
		},
		Status: StatusConfig{
			BaseURL: DefaultStatusAPIBase,
			Workers: 1,
		},
		HTTP: HTTPConfig{
			Listen: DefaultListen,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputLog,
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, a .env file if present and the process environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	// a missing .env file is the normal case
	_ = godotenv.Load()

	if err := env.Load(cfg, nil); err != nil {
		return nil, errors.Wrap(err, "load environment")
	}

	if cfg.HTTP.Port != "" {
		cfg.HTTP.Listen = ":" + cfg.HTTP.Port
	}

	return cfg, nil
}

// Validate rejects configurations the browser cannot run with.
func Validate(cfg *Config) error {
	if err := validateURL("masterlist.url", cfg.Masterlist.URL); err != nil {
		return err
	}
	if err := validateURL("status.base_url", cfg.Status.BaseURL); err != nil {
		return err
	}
	if cfg.Masterlist.RefreshInterval <= 0 {
		return errors.New("masterlist.refresh_interval must be > 0")
	}
	if cfg.Status.Workers < 1 {
		return errors.New("status.workers must be >= 1")
	}
	if cfg.Status.RequestsPerSecond < 0 {
		return errors.New("status.requests_per_second must be >= 0")
	}
	if cfg.HTTP.RequestTimeout < 0 {
		return errors.New("http.request_timeout must be >= 0")
	}
	if cfg.Cache.PruneInterval < 0 {
		return errors.New("cache.prune_interval must be >= 0")
	}
	switch cfg.Output {
	case OutputLog, OutputTable:
	default:
		return errors.Errorf("output must be %q or %q, got %q", OutputLog, OutputTable, cfg.Output)
	}
	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return errors.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Errorf("%s: %v", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("%s: unsupported scheme %q", field, u.Scheme)
	}
	if u.Host == "" {
		return errors.Errorf("%s: missing host", field)
	}
	return nil
}
