// Package config loads client settings from flags, environment and an
// optional config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. WHEDIFAQAUI_API_URL.
const EnvPrefix = "WHEDIFAQAUI"

// Keys.
const (
	KeyAPIURL        = "api_url"
	KeyTimeout       = "timeout"
	KeyPollInterval  = "poll_interval"
	KeyDBPath        = "db_path"
	KeyLogLevel      = "log_level"
	KeyLogFile       = "log_file"
	KeyCacheSize     = "cache_size"
	KeyCacheTTL      = "cache_ttl"
	KeyPlayerCommand = "player_command"
)

// Config is the resolved client configuration.
type Config struct {
	APIURL        string
	Timeout       time.Duration
	PollInterval  time.Duration
	DBPath        string
	LogLevel      string
	LogFile       string
	CacheSize     int
	CacheTTL      time.Duration
	PlayerCommand string
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAPIURL, api.DefaultBaseURL)
	v.SetDefault(KeyTimeout, api.DefaultTimeout)
	v.SetDefault(KeyPollInterval, api.DefaultPollInterval)
	v.SetDefault(KeyDBPath, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyCacheSize, 32)
	v.SetDefault(KeyCacheTTL, 10*time.Minute)
	v.SetDefault(KeyPlayerCommand, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Dir is the per-user config directory.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "whedifaqaui"), nil
}

// Load reads the config file into v and returns the resolved settings. An
// explicit file must exist; otherwise config.yaml in the user config dir is
// read when present.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		APIURL:        strings.TrimRight(v.GetString(KeyAPIURL), "/"),
		Timeout:       v.GetDuration(KeyTimeout),
		PollInterval:  v.GetDuration(KeyPollInterval),
		DBPath:        v.GetString(KeyDBPath),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFile:       v.GetString(KeyLogFile),
		CacheSize:     v.GetInt(KeyCacheSize),
		CacheTTL:      v.GetDuration(KeyCacheTTL),
		PlayerCommand: v.GetString(KeyPlayerCommand),
	}
	if cfg.DBPath == "" {
		cfg.DBPath = store.DefaultDBPath()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.APIURL == "":
		return errors.New("config: api_url is empty")
	case !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://"):
		return fmt.Errorf("config: api_url %q must be http(s)", c.APIURL)
	case c.Timeout <= 0:
		return fmt.Errorf("config: timeout %s must be positive", c.Timeout)
	case c.PollInterval <= 0:
		return fmt.Errorf("config: poll_interval %s must be positive", c.PollInterval)
	}
	return nil
}

// DefaultLogFile is where the TUI logs when no log_file is set.
func (c *Config) DefaultLogFile() string {
	return filepath.Join(filepath.Dir(c.DBPath), "whedifaqaui.log")
}
