package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration environment variable.
const EnvPrefix = "ADAPTIVE"

// ConfigFileEnv names the environment variable pointing at an optional config file.
const ConfigFileEnv = "ADAPTIVE_CONFIG_FILE"

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFromFile(os.Getenv(ConfigFileEnv))
}

// LoadFromFile behaves like Load but reads the given file first.
// An empty path skips file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadAdaptive reads configuration like LoadFromFile but validates only the
// adaptive section, so engine thresholds can be used without a database or
// server settings. An empty path falls back to ADAPTIVE_CONFIG_FILE.
func LoadAdaptive(path string) (*AdaptiveConfig, error) {
	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}

	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := validate(&cfg.Adaptive); err != nil {
		return nil, err
	}

	return &cfg.Adaptive, nil
}

// read merges defaults, the optional file and the environment without validating.
func read(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to AutomaticEnv during Unmarshal
	for _, key := range []string{"database.url", "redis.addr", "redis.password"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.service_name", "adaptive-service")
	v.SetDefault("server.version", "1.0.0")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stats_ttl", 5*time.Minute)

	v.SetDefault("adaptive.min_difficulty", 1)
	v.SetDefault("adaptive.max_difficulty", 5)
	v.SetDefault("adaptive.consecutive_correct_threshold", 3)
	v.SetDefault("adaptive.error_rate_threshold_high", 0.5)
	v.SetDefault("adaptive.error_rate_threshold_low", 0.25)
	v.SetDefault("adaptive.fast_response_time", 5*time.Second)
	v.SetDefault("adaptive.slow_response_time", 30*time.Second)
	v.SetDefault("adaptive.accuracy_threshold", 0.75)
	v.SetDefault("adaptive.history_window", 20)

	v.SetDefault("recorder.async", true)
	v.SetDefault("recorder.queue_size", 256)
	v.SetDefault("recorder.worker_count", 2)
	v.SetDefault("recorder.write_timeout", 5*time.Second)
}

func validate(section interface{}) error {
	if err := validator.New().Struct(section); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("validation failed: %s: %w", strings.Join(fields, ", "), err)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
