package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ELITEPANEL"

// MQTTConfig holds configuration for the optional status publisher.
type MQTTConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	Broker        string  `mapstructure:"broker"`
	ClientID      string  `mapstructure:"client_id"`
	TopicPrefix   string  `mapstructure:"topic_prefix"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
	ChangesOnly   bool    `mapstructure:"changes_only"`
	QoS           int     `mapstructure:"qos"`
	Retain        bool    `mapstructure:"retain"`
}

// LedgerConfig holds configuration for the event ledgers.
type LedgerConfig struct {
	DedupeWindow int `mapstructure:"dedupe_window"`
}

// Config holds all runtime configuration for an elitepanel process.
// Values are populated from .elitepanel.yaml, ELITEPANEL_* env vars, and CLI flags.
type Config struct {
	JournalDir       string        `mapstructure:"journal_dir"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	CatchupWindow    time.Duration `mapstructure:"catchup_window"`
	CatchupTailBytes int64         `mapstructure:"catchup_tail_bytes"`
	JumpTimeout      time.Duration `mapstructure:"jump_timeout"`
	Debounce         time.Duration `mapstructure:"debounce"`
	Verbose          bool          `mapstructure:"verbose"`
	LogFormat        string        `mapstructure:"log_format"`
	Ledger           LedgerConfig  `mapstructure:"ledger"`
	MQTT             MQTTConfig    `mapstructure:"mqtt"`
}

// SetupEnv maps ELITEPANEL_* variables onto config keys; nested keys use
// underscores, so mqtt.broker reads ELITEPANEL_MQTT_BROKER.
func SetupEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("journal_dir", DefaultJournalDir())
	viper.SetDefault("poll_interval", 100*time.Millisecond)
	viper.SetDefault("catchup_window", 5*time.Minute)
	viper.SetDefault("catchup_tail_bytes", 10*1024)
	viper.SetDefault("jump_timeout", 60*time.Second)
	viper.SetDefault("debounce", 16*time.Millisecond)
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_format", "text")
	viper.SetDefault("ledger.dedupe_window", 4096)
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://127.0.0.1:1883")
	viper.SetDefault("mqtt.client_id", "")
	viper.SetDefault("mqtt.topic_prefix", "elitepanel")
	viper.SetDefault("mqtt.rate_per_second", 2.0)
	viper.SetDefault("mqtt.burst", 4)
	viper.SetDefault("mqtt.changes_only", true)
	viper.SetDefault("mqtt.qos", 0)
	viper.SetDefault("mqtt.retain", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate reports every setting the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.JournalDir == "" {
		errs = append(errs, errors.New("journal_dir must be set"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if c.CatchupWindow <= 0 {
		errs = append(errs, fmt.Errorf("catchup_window must be positive, got %s", c.CatchupWindow))
	}
	if c.JumpTimeout <= 0 {
		errs = append(errs, fmt.Errorf("jump_timeout must be positive, got %s", c.JumpTimeout))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt.broker must be set when mqtt is enabled"))
		}
		if c.MQTT.RatePerSecond <= 0 || c.MQTT.RatePerSecond > 100 {
			errs = append(errs, fmt.Errorf("mqtt.rate_per_second must be in (0, 100], got %g", c.MQTT.RatePerSecond))
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// DefaultJournalDir returns where the game writes its journal on this
// platform, or "" when the home directory is unknown.
func DefaultJournalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	base := filepath.Join(home, "Saved Games", "Frontier Developments", "Elite Dangerous")
	if runtime.GOOS == "windows" {
		return base
	}
	// Proton prefix used by the Steam release on Linux.
	proton := filepath.Join(home, ".local", "share", "Steam", "steamapps", "compatdata",
		"359320", "pfx", "drive_c", "users", "steamuser", "Saved Games",
		"Frontier Developments", "Elite Dangerous")
	if _, err := os.Stat(proton); err == nil {
		return proton
	}
	return base
}
