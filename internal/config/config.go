package config

import (
	"time"

	"github.com/phrazzld/adaptive-api/internal/domain/adaptive"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Adaptive AdaptiveConfig `mapstructure:"adaptive" validate:"required"`
	Recorder RecorderConfig `mapstructure:"recorder" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ServiceName     string        `mapstructure:"service_name" validate:"required"`
	Version         string        `mapstructure:"version" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// RedisConfig configures the user-stats cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	StatsTTL time.Duration `mapstructure:"stats_ttl" validate:"gte=0"`
}

// Enabled reports whether a cache address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// AdaptiveConfig contains the difficulty engine thresholds and the history
// window the service passes to it.
type AdaptiveConfig struct {
	MinDifficulty               int           `mapstructure:"min_difficulty" validate:"gte=1,lte=5"`
	MaxDifficulty               int           `mapstructure:"max_difficulty" validate:"gte=1,lte=5,gtefield=MinDifficulty"`
	ConsecutiveCorrectThreshold int           `mapstructure:"consecutive_correct_threshold" validate:"gte=1"`
	ErrorRateThresholdHigh      float64       `mapstructure:"error_rate_threshold_high" validate:"gt=0,lte=1"`
	ErrorRateThresholdLow       float64       `mapstructure:"error_rate_threshold_low" validate:"gt=0,ltfield=ErrorRateThresholdHigh"`
	FastResponseTime            time.Duration `mapstructure:"fast_response_time" validate:"gt=0"`
	SlowResponseTime            time.Duration `mapstructure:"slow_response_time" validate:"gtfield=FastResponseTime"`
	AccuracyThreshold           float64       `mapstructure:"accuracy_threshold" validate:"gt=0,lte=1"`
	HistoryWindow               int           `mapstructure:"history_window" validate:"gt=0,lte=500"`
}

// ToParamsConfig converts the thresholds into engine parameters.
func (c AdaptiveConfig) ToParamsConfig() adaptive.ParamsConfig {
	return adaptive.ParamsConfig{
		MinDifficulty:               c.MinDifficulty,
		MaxDifficulty:               c.MaxDifficulty,
		ConsecutiveCorrectThreshold: c.ConsecutiveCorrectThreshold,
		ErrorRateThresholdHigh:      c.ErrorRateThresholdHigh,
		ErrorRateThresholdLow:       c.ErrorRateThresholdLow,
		FastResponseTime:            c.FastResponseTime,
		SlowResponseTime:            c.SlowResponseTime,
		AccuracyThreshold:           c.AccuracyThreshold,
	}
}

// RecorderConfig controls how decision logs are written.
type RecorderConfig struct {
	Async        bool          `mapstructure:"async"`
	QueueSize    int           `mapstructure:"queue_size" validate:"gt=0"`
	WorkerCount  int           `mapstructure:"worker_count" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
}
