// Package config implements the layered configuration scheme shared by every
// cmd/<service> binary: CLI flags override environment variables
// (PROTOHACKERS_<SERVICE>_<KEY>) override a YAML config file override
// code defaults, decoded with mapstructure and checked with
// go-playground/validator before a service is allowed to start.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var validate = validator.New()

// TelemetryConfig configures the OpenTelemetry exporter (internal/telemetry
// consumes the equivalent shape; this is the config-layer mirror of it).
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Endpoint   string  `mapstructure:"endpoint"`
	Insecure   bool    `mapstructure:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// Base holds the fields every one of the ten services configures the same
// way; service-specific structs embed it.
type Base struct {
	ListenAddr  string `mapstructure:"listen_addr" validate:"required"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	LogLevel    string `mapstructure:"log_level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	LogFormat   string `mapstructure:"log_format" validate:"omitempty,oneof=text json"`
	Profiling   bool   `mapstructure:"profiling"`

	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// DefaultBase returns the Base defaults applied before any layer overrides.
func DefaultBase() Base {
	return Base{
		ListenAddr:  ":0",
		MetricsAddr: "",
		LogLevel:    "INFO",
		LogFormat:   "text",
		Telemetry: TelemetryConfig{
			Enabled:    false,
			Endpoint:   "localhost:4317",
			Insecure:   true,
			SampleRate: 1.0,
		},
	}
}

// New returns a viper.Viper preconfigured with the service's environment
// prefix and config-file search path. service is e.g. "speeddaemon".
func New(service string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PROTOHACKERS_" + strings.ToUpper(service))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(service)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/protohackers")

	return v
}

// Load reads the config file (if present), lets environment variables and
// any flags already bound to v override it, decodes into target, and
// validates the result. target must be a pointer to a struct embedding Base.
func Load(v *viper.Viper, target any) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: reading config file: %w", err)
		}
	}

	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(target, viper.DecodeHook(decodeHook)); err != nil {
		return fmt.Errorf("config: decoding: %w", err)
	}

	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("config: validation: %w", err)
	}
	return nil
}

// MustLoad is Load but panics on error, for use in cobra RunE wrappers that
// have already decided a bad config is fatal to process startup.
func MustLoad(v *viper.Viper, target any) {
	if err := Load(v, target); err != nil {
		panic(err)
	}
}

// WatchForChanges re-invokes onChange every time the config file backing v
// is modified on disk, via fsnotify. No cmd binary calls it; each reads its
// config once at startup.
func WatchForChanges(v *viper.Viper, onChange func(fsnotify.Event)) {
	v.OnConfigChange(onChange)
	v.WatchConfig()
}
