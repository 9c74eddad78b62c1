package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix scopes environment overrides, e.g. DASH_DEVICE_BASE_URL.
const envPrefix = "DASH"

var ErrInvalidConfig = errors.New("invalid config")

// Config is the full application configuration.
type Config struct {
	Port      string          `mapstructure:"port"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Device    DeviceConfig    `mapstructure:"device"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Reboot    RebootConfig    `mapstructure:"reboot"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// DeviceConfig points at the vendor management API. The session token is
// obtained out of band (pairing is not handled here).
type DeviceConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	SessionToken string        `mapstructure:"session_token"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type TelemetryConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	HistorySize      int           `mapstructure:"history_size"`
	SubscriberBuffer int           `mapstructure:"subscriber_buffer"`
}

type ScheduleConfig struct {
	// Store is "file" (JSON next to the device credentials) or "sqlite".
	Store    string `mapstructure:"store"`
	Path     string `mapstructure:"path"`
	Timezone string `mapstructure:"timezone"`
}

type RebootConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// MinInterval throttles the manual reboot endpoint.
	MinInterval time.Duration `mapstructure:"min_interval"`
}

type AuthConfig struct {
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"` // bcrypt
	SigningKey   string        `mapstructure:"signing_key"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

// Load reads config.yml from dir (missing file means defaults) and applies
// DASH_* environment overrides.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Telemetry.PollInterval <= 0 {
		return fmt.Errorf("%w: telemetry.poll_interval must be positive, got %s", ErrInvalidConfig, c.Telemetry.PollInterval)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)

	v.SetDefault("db.path", "data/dashboard.db")

	v.SetDefault("device.base_url", "http://mafreebox.freebox.fr/api/v4")
	v.SetDefault("device.session_token", "")
	v.SetDefault("device.timeout", 5*time.Second)

	v.SetDefault("telemetry.poll_interval", 2*time.Second)
	v.SetDefault("telemetry.history_size", 60)
	v.SetDefault("telemetry.subscriber_buffer", 16)

	v.SetDefault("schedule.store", "file")
	v.SetDefault("schedule.path", "data/reboot_schedule.json")
	v.SetDefault("schedule.timezone", "Local")

	v.SetDefault("reboot.timeout", 30*time.Second)
	v.SetDefault("reboot.min_interval", time.Minute)

	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password_hash", "")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
}
