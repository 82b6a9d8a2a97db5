// Package config loads the learncache configuration from a YAML file and
// LEARNCACHE_* environment variables.
//
// Precedence, lowest first: Default(), the YAML file, environment variables.
// The result is validated before it is returned.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/learn-cache/pkg/api"
	"github.com/Sternrassler/learn-cache/pkg/kvstore"
	"github.com/Sternrassler/learn-cache/pkg/logging"
)

// ErrConfigNotFound is returned when an explicitly named config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LEARNCACHE_"

// Config is the complete application configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
	Cache  CacheConfig  `yaml:"cache"`
	API    APIConfig    `yaml:"api"`
	Assets AssetsConfig `yaml:"assets"`
	Server ServerConfig `yaml:"server"`
	Warmup WarmupConfig `yaml:"warmup"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error disabled"`
	Pretty bool   `yaml:"pretty"`
}

// BackendConfig configures one kvstore backend.
type BackendConfig struct {
	Backend  string `yaml:"backend" validate:"oneof=memory redis sqlite clover"`
	Addr     string `yaml:"addr" validate:"required_if=Backend redis"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0,lte=15"`
	Path     string `yaml:"path" validate:"required_if=Backend sqlite,required_if=Backend clover"`
	Table    string `yaml:"table"`
}

// StoreConfig configures where payloads and ttl flags live. Flags share the
// content backend unless configured.
type StoreConfig struct {
	Content BackendConfig  `yaml:"content"`
	Flags   *BackendConfig `yaml:"flags"`
}

// CacheConfig configures the cached item store.
type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" validate:"gt=0"`
}

// APIConfig configures the platform API client.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url" validate:"required,url"`
	Token        string        `yaml:"token"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxAttempts  int           `yaml:"max_attempts" validate:"gte=1,lte=10"`
	FormPath     string        `yaml:"form_path" validate:"required,startswith=/"`
	SettingsPath string        `yaml:"settings_path" validate:"required,startswith=/"`
}

// AssetsConfig locates bundled fallback assets. An empty Dir disables them.
type AssetsConfig struct {
	Dir         string `yaml:"dir"`
	FormDir     string `yaml:"form_dir"`
	SettingsDir string `yaml:"settings_dir"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string        `yaml:"addr" validate:"required"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
}

// FormJob names a form kept warm by the scheduler.
type FormJob struct {
	Type      string `yaml:"type" validate:"required"`
	SubType   string `yaml:"sub_type" validate:"required"`
	Action    string `yaml:"action" validate:"required"`
	Component string `yaml:"component"`
	RootOrgID string `yaml:"root_org_id"`
	Framework string `yaml:"framework"`
}

// WarmupConfig configures background refreshes. An empty Schedule disables them.
type WarmupConfig struct {
	Schedule    string    `yaml:"schedule"`
	Concurrency int       `yaml:"concurrency" validate:"gte=1,lte=64"`
	Forms       []FormJob `yaml:"forms" validate:"dive"`
	Settings    []string  `yaml:"settings" validate:"dive,required"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: string(logging.LevelInfo)},
		Store: StoreConfig{
			Content: BackendConfig{Backend: kvstore.BackendMemory},
		},
		Cache: CacheConfig{DefaultTTL: 2 * time.Hour},
		API: APIConfig{
			BaseURL:      "http://localhost:9000/api",
			Timeout:      30 * time.Second,
			MaxAttempts:  3,
			FormPath:     "/data/v1/form",
			SettingsPath: "/data/v1/system/settings",
		},
		Assets: AssetsConfig{
			FormDir:     "data/form",
			SettingsDir: "data/system-settings",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 30 * time.Second,
		},
		Warmup: WarmupConfig{Concurrency: 4},
	}
}

// Load reads the configuration. path may be empty to run on defaults and
// environment only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnv overlays LEARNCACHE_* variables on cfg.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return v, ok && v != ""
	}

	var errs []error
	setString := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	setString("LOG_LEVEL", &cfg.Log.Level)
	if v, ok := get("LOG_PRETTY"); ok {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sLOG_PRETTY: %w", EnvPrefix, err))
		}
		cfg.Log.Pretty = pretty
	}

	setString("STORE_BACKEND", &cfg.Store.Content.Backend)
	setString("STORE_PATH", &cfg.Store.Content.Path)
	setString("REDIS_ADDR", &cfg.Store.Content.Addr)
	setString("REDIS_PASSWORD", &cfg.Store.Content.Password)
	setInt("REDIS_DB", &cfg.Store.Content.DB)

	setDuration("CACHE_TTL", &cfg.Cache.DefaultTTL)

	setString("API_BASE_URL", &cfg.API.BaseURL)
	setString("API_TOKEN", &cfg.API.Token)
	setDuration("API_TIMEOUT", &cfg.API.Timeout)

	setString("ASSETS_DIR", &cfg.Assets.Dir)
	setString("SERVER_ADDR", &cfg.Server.Addr)

	setString("WARMUP_SCHEDULE", &cfg.Warmup.Schedule)
	setInt("WARMUP_CONCURRENCY", &cfg.Warmup.Concurrency)
	if v, ok := get("WARMUP_SETTINGS"); ok {
		cfg.Warmup.Settings = splitList(v)
	}

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// KVStore maps the backend settings onto kvstore.Config.
func (b BackendConfig) KVStore() kvstore.Config {
	return kvstore.Config{
		Backend:  b.Backend,
		Addr:     b.Addr,
		Password: b.Password,
		DB:       b.DB,
		Path:     b.Path,
		Table:    b.Table,
	}
}

// FlagsBackend returns the ttl flag backend and whether it is separate from
// the content backend.
func (s StoreConfig) FlagsBackend() (BackendConfig, bool) {
	if s.Flags == nil {
		return s.Content, false
	}
	return *s.Flags, true
}

// Logging maps the log settings onto logging.Config.
func (l LogConfig) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if level, ok := logging.ParseLevel(l.Level); ok {
		cfg.Level = level
	}
	cfg.Pretty = l.Pretty
	return cfg
}

// Client maps the API settings onto api.Config.
func (a APIConfig) Client() api.Config {
	cfg := api.DefaultConfig(a.BaseURL)
	cfg.APIToken = a.Token
	cfg.Timeout = a.Timeout
	cfg.Retry.MaxAttempts = a.MaxAttempts
	return cfg
}
