// Package config loads manager settings from YAML files and TASKMANAGER_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Swind/go-task-manager/core"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// TASKMANAGER_CAPACITY=8.
const EnvPrefix = "TASKMANAGER"

// Settings is the file and environment form of a manager configuration.
type Settings struct {
	Name            string        `mapstructure:"name" yaml:"name"`
	Capacity        int           `mapstructure:"capacity" yaml:"capacity"`
	MonitorInterval time.Duration `mapstructure:"monitor_interval" yaml:"monitor_interval"`
	StopTimeout     time.Duration `mapstructure:"stop_timeout" yaml:"stop_timeout"`
	Backpressure    string        `mapstructure:"backpressure" yaml:"backpressure"`
	MaxQueueSize    int           `mapstructure:"max_queue_size" yaml:"max_queue_size"`
	HistorySize     int           `mapstructure:"history_size" yaml:"history_size"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	MetricsAddr     string        `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// Defaults returns the settings used when neither file nor environment set a key.
func Defaults() Settings {
	return Settings{
		Name:            "task-manager",
		Capacity:        4,
		MonitorInterval: core.DefaultMonitorInterval,
		StopTimeout:     core.DefaultStopTimeout,
		Backpressure:    core.BackpressureUnbounded.String(),
		HistorySize:     core.DefaultHistorySize,
		LogLevel:        zerolog.InfoLevel.String(),
	}
}

// Load reads settings from path (YAML) when it is not empty, then applies
// environment overrides. A missing file is an error; an empty path uses
// defaults and the environment only.
func Load(path string) (Settings, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("name", d.Name)
	v.SetDefault("capacity", d.Capacity)
	v.SetDefault("monitor_interval", d.MonitorInterval)
	v.SetDefault("stop_timeout", d.StopTimeout)
	v.SetDefault("backpressure", d.Backpressure)
	v.SetDefault("max_queue_size", d.MaxQueueSize)
	v.SetDefault("history_size", d.HistorySize)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("metrics_addr", d.MetricsAddr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return s, nil
}

// CoreConfig converts s into a validated core.Config. Logs go to stderr at
// the configured level.
func (s Settings) CoreConfig() (core.Config, error) {
	return s.CoreConfigWithOutput(os.Stderr)
}

// CoreConfigWithOutput is CoreConfig with logs written to w.
func (s Settings) CoreConfigWithOutput(w io.Writer) (core.Config, error) {
	policy, err := core.ParseBackpressurePolicy(s.Backpressure)
	if err != nil {
		return core.Config{}, err
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil {
		return core.Config{}, errors.Join(core.ErrInvalidConfiguration, err)
	}

	cfg := core.DefaultConfig(s.Capacity)
	cfg.Name = s.Name
	cfg.MonitorInterval = s.MonitorInterval
	cfg.StopTimeout = s.StopTimeout
	cfg.Backpressure = policy
	cfg.MaxQueueSize = s.MaxQueueSize
	cfg.HistorySize = s.HistorySize
	cfg.Logger = core.NewConsoleLogger(w, level)

	if err := cfg.Validate(); err != nil {
		return core.Config{}, err
	}
	return cfg, nil
}

// Dump writes s to w as YAML.
func Dump(w io.Writer, s Settings) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(s)
}
