package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultPort            = 3000
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultUpstreamTimeout = 6 * time.Second
	DefaultKeyEnv          = "GUIDELINES_API_KEY"
	DefaultS3Region        = "us-east-1"
	DefaultMetricsPath     = "/metrics"
)

// Viper keys for values that may come from the environment or CLI flags.
const (
	KeyPort         = "port"
	KeyUpstreamBase = "upstream_base"
	KeyPublicDir    = "public_dir"
	KeyLogLevel     = "log_level"
	KeyWatch        = "watch"
)

// Config is the full careguide-server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`

	// Watch enables hot reload of the config file. Only upstream settings
	// take effect on reload; everything else needs a restart.
	Watch bool `yaml:"watch"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Port is the HTTP port (default 3000, env PORT).
	Port int `yaml:"port"`

	// PublicDir serves the front-end from a directory on disk.
	// Empty means the front-end compiled into the binary.
	PublicDir string `yaml:"public_dir"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// UpstreamConfig describes the external guideline API.
type UpstreamConfig struct {
	// Base is the API base URL (env GUIDELINES_API_BASE). Empty disables
	// upstream mode and every lookup is answered from the sample dataset.
	Base string `yaml:"base"`

	// KeyEnv is the name of the environment variable that holds the bearer token.
	KeyEnv string `yaml:"key_env"`

	// Timeout bounds a single upstream request (default 6s).
	Timeout time.Duration `yaml:"timeout"`
}

// Enabled reports whether an upstream base URL is configured.
func (u UpstreamConfig) Enabled() bool {
	return u.Base != ""
}

// Key returns the bearer token resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (u UpstreamConfig) Key() string {
	if u.KeyEnv == "" {
		return ""
	}
	return os.Getenv(u.KeyEnv)
}

// DatasetConfig selects where the sample dataset is loaded from.
type DatasetConfig struct {
	// Path is empty (built-in dataset), a local .json/.yaml file, or s3://bucket/key.
	Path string   `yaml:"path"`
	S3   S3Config `yaml:"s3"`
}

// S3Config holds object-store options used when Path is an s3:// URL.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // optional, e.g. MinIO
	PathStyle bool   `yaml:"path_style"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: json | text.
	Format string `yaml:"format"`
}

// SlogLevel converts Level to a slog.Level. Unknown values map to info;
// validate rejects them before this is reached.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewViper returns a viper instance with the environment variables bound.
// CLI flags are bound by the caller with BindPFlag using the Key* names.
func NewViper() *viper.Viper {
	v := viper.New()
	_ = v.BindEnv(KeyPort, "PORT")
	_ = v.BindEnv(KeyUpstreamBase, "GUIDELINES_API_BASE")
	return v
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then any value set in v (environment or flags), then
// validation. v may be nil.
func Load(path string, v *viper.Viper) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if v != nil {
		if err := overlay(cfg, v); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Upstream: UpstreamConfig{
			KeyEnv:  DefaultKeyEnv,
			Timeout: DefaultUpstreamTimeout,
		},
		Dataset: DatasetConfig{
			S3: S3Config{Region: DefaultS3Region},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// overlay copies values explicitly set through the environment or flags.
func overlay(cfg *Config, v *viper.Viper) error {
	if v.IsSet(KeyPort) {
		raw := strings.TrimSpace(v.GetString(KeyPort))
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("port %q is not a number", raw)
		}
		cfg.Server.Port = port
	}
	if v.IsSet(KeyUpstreamBase) {
		cfg.Upstream.Base = strings.TrimSpace(v.GetString(KeyUpstreamBase))
	}
	if v.IsSet(KeyPublicDir) {
		cfg.Server.PublicDir = v.GetString(KeyPublicDir)
	}
	if v.IsSet(KeyLogLevel) {
		cfg.Log.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyWatch) {
		cfg.Watch = v.GetBool(KeyWatch)
	}
	return nil
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}
	if cfg.Upstream.Base != "" {
		u, err := url.Parse(cfg.Upstream.Base)
		if err != nil {
			return fmt.Errorf("upstream.base: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("upstream.base %q must be an absolute http(s) URL", cfg.Upstream.Base)
		}
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if strings.HasPrefix(cfg.Dataset.Path, "s3://") {
		if _, _, err := SplitS3URL(cfg.Dataset.Path); err != nil {
			return fmt.Errorf("dataset.path: %w", err)
		}
	}
	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") || strings.HasPrefix(cfg.Metrics.Path, "/api/") {
			return fmt.Errorf("metrics.path %q must start with / and lie outside /api/", cfg.Metrics.Path)
		}
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q unknown: want json|text", cfg.Log.Format)
	}
	return nil
}

// SplitS3URL splits s3://bucket/key into its bucket and key.
func SplitS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%q is not an s3:// URL", raw)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%q needs both a bucket and a key", raw)
	}
	return bucket, key, nil
}
