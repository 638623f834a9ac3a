package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Widget   WidgetConfig   `mapstructure:"widget"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`

	// AllowedOrigins lists browser origins allowed to call the API; empty
	// means same-origin only
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig locates the SQLite database
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// WidgetConfig locates the files shared with the widget process
type WidgetConfig struct {
	QueuePath   string `mapstructure:"queue_path"`
	DisplayPath string `mapstructure:"display_path"`
	Watch       bool   `mapstructure:"watch"`
}

// LedgerConfig holds the defaults used before the user changes a setting
type LedgerConfig struct {
	DefaultRolloverHour int  `mapstructure:"default_rollover_hour"`
	DefaultGoalML       int  `mapstructure:"default_goal_ml"`
	VerifyOnStart       bool `mapstructure:"verify_on_start"`
}

// ScheduleConfig holds cron specs for the background jobs
type ScheduleConfig struct {
	Reconcile string `mapstructure:"reconcile"`
	Rollover  string `mapstructure:"rollover"`
}

// LogConfig selects the logging backend and level
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	Backend string `mapstructure:"backend"`
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	// A .env file is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set default values
	v.SetDefault("server.port", "8787")
	v.SetDefault("server.env", "development")
	v.SetDefault("storage.path", "hydromate.db")
	v.SetDefault("widget.queue_path", "widget_queue.json")
	v.SetDefault("widget.display_path", "widget_display.json")
	v.SetDefault("widget.watch", true)
	v.SetDefault("ledger.default_rollover_hour", 0)
	v.SetDefault("ledger.default_goal_ml", 2000)
	v.SetDefault("ledger.verify_on_start", false)
	v.SetDefault("schedule.reconcile", "@every 5m")
	v.SetDefault("schedule.rollover", "@every 1m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.backend", logger.BackendSlog)

	// Read from environment variables
	v.SetEnvPrefix("HYDROMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("server.port", "PORT")

	// Read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// It's okay if config file doesn't exist
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that all required configuration values are present
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Ledger.DefaultRolloverHour < 0 || c.Ledger.DefaultRolloverHour > 23 {
		return fmt.Errorf("ledger.default_rollover_hour must be between 0 and 23, got %d", c.Ledger.DefaultRolloverHour)
	}
	if c.Ledger.DefaultGoalML <= 0 {
		return fmt.Errorf("ledger.default_goal_ml must be positive, got %d", c.Ledger.DefaultGoalML)
	}
	if c.Widget.QueuePath == "" || c.Widget.DisplayPath == "" {
		return fmt.Errorf("widget.queue_path and widget.display_path are required")
	}
	switch c.Log.Backend {
	case logger.BackendSlog, logger.BackendZap, logger.BackendZerolog:
	default:
		return fmt.Errorf("log.backend must be one of slog, zap, zerolog, got %q", c.Log.Backend)
	}
	return nil
}

// LoggerConfig converts the log section into a logger configuration
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:     logger.ParseLevel(c.Log.Level),
		Format:    c.Log.Format,
		Backend:   c.Log.Backend,
		AddSource: c.Server.Env == "development",
	}
}
