// Package config handles application configuration from defaults, an
// optional config file and environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/phishlens/internal/domain"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "PHISHLENS"

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Prediction backend configuration
	Backend BackendConfig

	// Dashboard behaviour
	Dashboard DashboardConfig

	// Logging configuration
	Logging LoggingConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP port to listen on.
	Port string

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration

	// RateLimitRPS is the sustained analyze requests per second per client.
	// Zero disables rate limiting.
	RateLimitRPS float64

	// RateLimitBurst is the token bucket size per client.
	RateLimitBurst int
}

// BackendConfig contains prediction backend settings.
type BackendConfig struct {
	// BaseURL is the root URL of the prediction backend.
	BaseURL string

	// Timeout bounds one exchange with the backend. Zero leaves it to the
	// transport.
	Timeout time.Duration

	// MockMode serves simulated backend responses without network calls.
	MockMode bool
}

// DashboardConfig contains dashboard settings.
type DashboardConfig struct {
	// DefaultMode is the analysis mode selected at startup.
	DefaultMode domain.AnalysisMode
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string

	// Development selects the human-readable console encoder.
	Development bool
}

// Load reads configuration. configFile may be empty, in which case
// phishlens.yaml is looked up in the usual places and is optional.
func Load(configFile string) (*Config, error) {
	return LoadViper(NewViper(), configFile)
}

// LoadViper is Load on a caller-prepared Viper instance, for callers that
// bind command-line flags first.
func LoadViper(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("phishlens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.phishlens")
		v.AddConfigPath("/etc/phishlens/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", domain.ErrInvalidConfig, err)
		}
	}

	return FromViper(v)
}

// NewViper returns a Viper instance with defaults and environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short names kept for container platforms.
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("backend.base_url", EnvPrefix+"_BACKEND_BASE_URL", "BACKEND_URL")
	_ = v.BindEnv("logging.level", EnvPrefix+"_LOGGING_LEVEL", "LOG_LEVEL")

	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.rate_limit_rps", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)

	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", "0s")
	v.SetDefault("backend.mock_mode", false)

	v.SetDefault("dashboard.default_mode", string(domain.ModeFullEmail))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", true)
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	readTimeout, err := getDuration(v, "server.read_timeout")
	if err != nil {
		return nil, err
	}
	writeTimeout, err := getDuration(v, "server.write_timeout")
	if err != nil {
		return nil, err
	}
	backendTimeout, err := getDuration(v, "backend.timeout")
	if err != nil {
		return nil, err
	}

	mode, err := domain.ParseMode(v.GetString("dashboard.default_mode"))
	if err != nil {
		return nil, fmt.Errorf("%w: dashboard.default_mode: %v", domain.ErrInvalidConfig, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("server.port"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			RateLimitRPS:   v.GetFloat64("server.rate_limit_rps"),
			RateLimitBurst: v.GetInt("server.rate_limit_burst"),
		},
		Backend: BackendConfig{
			BaseURL:  strings.TrimSuffix(v.GetString("backend.base_url"), "/"),
			Timeout:  backendTimeout,
			MockMode: v.GetBool("backend.mock_mode"),
		},
		Dashboard: DashboardConfig{
			DefaultMode: mode,
		},
		Logging: LoggingConfig{
			Level:       v.GetString("logging.level"),
			Development: v.GetBool("logging.development"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("%w: server.port is required", domain.ErrInvalidConfig)
	}

	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("%w: server.rate_limit_rps must not be negative", domain.ErrInvalidConfig)
	}

	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("%w: server.rate_limit_burst must be at least 1", domain.ErrInvalidConfig)
	}

	if c.Backend.Timeout < 0 {
		return fmt.Errorf("%w: backend.timeout must not be negative", domain.ErrInvalidConfig)
	}

	// The base URL is unused in mock mode
	if !c.Backend.MockMode {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: backend.base_url must be an http(s) URL, got %q", domain.ErrInvalidConfig, c.Backend.BaseURL)
		}
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("%w: logging.level %q is not a valid level", domain.ErrInvalidConfig, c.Logging.Level)
	}

	return nil
}

// getDuration accepts plain seconds ("15") as well as duration strings ("15s", "1m").
func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	val := strings.TrimSpace(v.GetString(key))
	if val == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, key, err)
	}
	return d, nil
}
