package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Serve    ServeConfig    `mapstructure:"serve"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds listener configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ServeConfig holds the file-serving configuration: the root directory the
// server is confined to, extra response headers, and the optional index file.
type ServeConfig struct {
	Root string `mapstructure:"root" validate:"required"`

	// IndexFile, when non-empty, names a file (e.g. "index.html") that is
	// served instead of a listing when present in a requested directory.
	// Empty disables the short-circuit and directories always list.
	IndexFile string `mapstructure:"index_file"`

	// ExtraHeaders are "Name: Value" pairs attached to every successful
	// response.
	ExtraHeaders []string `mapstructure:"extra_headers"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	RateLimitRequests int           `mapstructure:"rate_limit_requests" validate:"gte=1"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds the ops listener configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"gte=1,lte=65535"`
}

// Load loads configuration from environment variables and defaults
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "servemd")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 4000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Serve defaults
	viper.SetDefault("serve.root", ".")
	viper.SetDefault("serve.index_file", "")
	viper.SetDefault("serve.extra_headers", []string{})

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output", "stdout")

	// Security defaults
	viper.SetDefault("security.rate_limit_requests", 100)
	viper.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.port", 9090)
}

func bindEnvVars() {
	// App
	viper.BindEnv("app.name", "APP_NAME")
	viper.BindEnv("app.version", "APP_VERSION")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")

	// Server
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")

	// Serve
	viper.BindEnv("serve.root", "SERVE_ROOT")
	viper.BindEnv("serve.index_file", "SERVE_INDEX_FILE")
	viper.BindEnv("serve.extra_headers", "SERVE_EXTRA_HEADERS")

	// Logger
	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.format", "LOG_FORMAT")
	viper.BindEnv("logger.output", "LOG_OUTPUT")
	viper.BindEnv("logger.filename", "LOG_FILENAME")

	// Security
	viper.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")

	// Metrics
	viper.BindEnv("metrics.enabled", "ENABLE_METRICS")
	viper.BindEnv("metrics.port", "METRICS_PORT")
}

func validateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	info, err := os.Stat(cfg.Serve.Root)
	if err != nil {
		return fmt.Errorf("serve root %q: %w", cfg.Serve.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("serve root %q is not a directory", cfg.Serve.Root)
	}

	if strings.ContainsAny(cfg.Serve.IndexFile, `/\`) {
		return fmt.Errorf("index file %q must be a bare file name", cfg.Serve.IndexFile)
	}

	if _, err := cfg.Serve.HeaderPairs(); err != nil {
		return err
	}

	return nil
}

// HeaderPairs parses ExtraHeaders into name/value pairs. Each element must
// be of the form "Name: Value".
func (c *ServeConfig) HeaderPairs() ([][2]string, error) {
	pairs := make([][2]string, 0, len(c.ExtraHeaders))
	for _, h := range c.ExtraHeaders {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed extra header %q, want \"Name: Value\"", h)
		}
		pairs = append(pairs, [2]string{name, value})
	}
	return pairs, nil
}

// ListenAddr returns the host:port the file server listens on
func (cfg *ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}
