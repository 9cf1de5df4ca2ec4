package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/session"
)

// EnvPrefix prefixes every environment override, e.g. DEM_ADDRESS
const EnvPrefix = "DEM"

// Setting keys
const (
	KeyAddress     = "address"
	KeyPort        = "port"
	KeyDryRun      = "dry_run"
	KeyLogLevel    = "log_level"
	KeyListen      = "listen"
	KeyRedfish     = "redfish"
	KeySession     = "session_file"
	KeyDefinitions = "definitions"
	KeyTimeout     = "timeout"
)

// Config holds the console settings
type Config struct {
	Address     string        `mapstructure:"address"`
	Port        int           `mapstructure:"port"`
	DryRun      bool          `mapstructure:"dry_run"`
	LogLevel    string        `mapstructure:"log_level"`
	Listen      string        `mapstructure:"listen"`
	Redfish     string        `mapstructure:"redfish"`
	SessionFile string        `mapstructure:"session_file"`
	Definitions string        `mapstructure:"definitions"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// New returns a viper instance with defaults and DEM_* environment
// overrides. Flags are bound on top by the command line.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyPort, constants.DefaultPort)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyListen, constants.DefaultListenAddr)
	v.SetDefault(KeyDefinitions, ".")
	v.SetDefault(KeyTimeout, "30s")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about
	for _, key := range []string{KeyAddress, KeyRedfish, KeySession} {
		_ = v.BindEnv(key)
	}

	v.SetConfigName("dem-console")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "dem-console"))
	}
	return v
}

// Load reads the config file (an explicit one, or dem-console.yaml from the
// search path) and decodes every layer into a Config
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the decoded settings
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s", c.Timeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the logrus level of LogLevel
func (c *Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// SessionPath returns the session file, defaulting below the user config
// directory
func (c *Config) SessionPath() (string, error) {
	if c.SessionFile != "" {
		return c.SessionFile, nil
	}
	return session.DefaultPath()
}

// NewLogger builds the structured logger used by the long-running commands
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := c.Level(); err == nil {
		logger.SetLevel(level)
	}
	return logger
}
