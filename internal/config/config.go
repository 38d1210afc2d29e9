// Package config loads toolkit configuration from defaults, an optional
// YAML file and TINYHTML_* environment variables, in that order of
// precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface is the read surface handed to components, so tests can swap in
// fixed records.
type Interface interface {
	Logger() LoggerConfig
	Environment() EnvironmentConfig
	Effects() EffectsConfig
	Messaging() MessagingConfig
}

// Config holds the whole toolkit configuration. Fields are private; access
// goes through the Interface getters.
type Config struct {
	logger      LoggerConfig
	environment EnvironmentConfig
	effects     EffectsConfig
	messaging   MessagingConfig
}

func (c *Config) Logger() LoggerConfig           { return c.logger }
func (c *Config) Environment() EnvironmentConfig { return c.environment }
func (c *Config) Effects() EffectsConfig         { return c.effects }
func (c *Config) Messaging() MessagingConfig     { return c.messaging }

// SetEnvironmentViewport overrides the emulated viewport.
func (c *Config) SetEnvironmentViewport(w, h float64) {
	c.environment.ViewportWidth = w
	c.environment.ViewportHeight = h
}

// SetEffectsCancelOnReplace flips the animation replacement policy.
func (c *Config) SetEffectsCancelOnReplace(b bool) { c.effects.CancelOnReplace = b }

// LoggerConfig mirrors the observability package's knobs.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal color names for the console
// encoder.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// EnvironmentConfig shapes the emulated browsing environment.
type EnvironmentConfig struct {
	ViewportWidth  float64 `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight float64 `mapstructure:"viewport_height" yaml:"viewport_height"`
}

// EffectsConfig tunes the animation dispatcher.
type EffectsConfig struct {
	DefaultDuration time.Duration `mapstructure:"default_duration" yaml:"default_duration"`
	CancelOnReplace bool          `mapstructure:"cancel_on_replace" yaml:"cancel_on_replace"`
}

// MessagingConfig tunes cross-context sessions.
type MessagingConfig struct {
	LivenessInterval time.Duration `mapstructure:"liveness_interval" yaml:"liveness_interval"`
	PeerOrigin       string        `mapstructure:"peer_origin" yaml:"peer_origin"`
}

// SetDefaults seeds every key so a bare viper instance unmarshals into a
// complete record.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "tinyhtml")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	v.SetDefault("environment.viewport_width", 1280)
	v.SetDefault("environment.viewport_height", 800)

	v.SetDefault("effects.default_duration", "400ms")
	v.SetDefault("effects.cancel_on_replace", true)

	v.SetDefault("messaging.liveness_interval", "500ms")
	v.SetDefault("messaging.peer_origin", "")
}

// NewDefaultConfig returns a config populated purely from defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := fromViper(v)
	if err != nil {
		panic(fmt.Sprintf("config: unmarshalling defaults: %v", err))
	}
	return cfg
}

// Load reads configuration: defaults, then the YAML file at path when path
// is non-empty, then TINYHTML_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("TINYHTML")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var raw struct {
		Logger      LoggerConfig      `mapstructure:"logger"`
		Environment EnvironmentConfig `mapstructure:"environment"`
		Effects     EffectsConfig     `mapstructure:"effects"`
		Messaging   MessagingConfig   `mapstructure:"messaging"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}
	if raw.Environment.ViewportWidth <= 0 || raw.Environment.ViewportHeight <= 0 {
		return nil, fmt.Errorf("config: viewport dimensions must be positive")
	}
	if raw.Effects.DefaultDuration <= 0 {
		return nil, fmt.Errorf("config: effects default duration must be positive")
	}
	if raw.Messaging.LivenessInterval <= 0 {
		return nil, fmt.Errorf("config: messaging liveness interval must be positive")
	}
	return &Config{
		logger:      raw.Logger,
		environment: raw.Environment,
		effects:     raw.Effects,
		messaging:   raw.Messaging,
	}, nil
}
