// Package config holds the typed runtime options of the engine and the
// command line tool.
//
// Options load from a yaml file through viper, with every key overridable
// from the environment: logging.level becomes GEOMKERNEL_LOGGING_LEVEL.
package config

import (
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides
const EnvPrefix = "GEOMKERNEL"

type Options struct {
	// Derivative worker count; 0 means GOMAXPROCS
	Threads               int  `yaml:"threads" mapstructure:"threads"`
	TreatWarningsAsErrors bool `yaml:"treat_warnings_as_errors" mapstructure:"treat_warnings_as_errors"`

	Logging Logging `yaml:"logging" mapstructure:"logging"`
	Store   Store   `yaml:"store" mapstructure:"store"`
	Metrics Metrics `yaml:"metrics" mapstructure:"metrics"`
}

type Logging struct {
	Level    string `yaml:"level" mapstructure:"level"`
	Encoding string `yaml:"encoding" mapstructure:"encoding"` // json or console
}

// Store locates the persisted container
type Store struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	InMemory   bool   `yaml:"in_memory" mapstructure:"in_memory"`
	CacheBytes int64  `yaml:"cache_bytes" mapstructure:"cache_bytes"`
}

type Metrics struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
}

func Default() Options {
	return Options{
		Logging: Logging{Level: "info", Encoding: "console"},
		Store:   Store{Dir: "geomkernel.db", CacheBytes: 64 << 20},
		Metrics: Metrics{Namespace: "geomkernel"},
	}
}

// Validate reports the first invalid option
func (o Options) Validate() error {
	if o.Threads < 0 {
		return errors.Errorf("threads must be >= 0, got %d", o.Threads)
	}
	if _, err := zapcore.ParseLevel(o.Logging.Level); err != nil {
		return errors.Wrapf(err, "logging.level")
	}
	switch o.Logging.Encoding {
	case "json", "console":
	default:
		return errors.Errorf("logging.encoding must be json or console, got %q", o.Logging.Encoding)
	}
	if !o.Store.InMemory && o.Store.Dir == "" {
		return errors.New("store.dir is required unless store.in_memory is set")
	}
	if o.Store.CacheBytes < 0 {
		return errors.Errorf("store.cache_bytes must be >= 0, got %d", o.Store.CacheBytes)
	}
	if o.Metrics.Enabled && o.Metrics.Namespace == "" {
		return errors.New("metrics.namespace is required when metrics are enabled")
	}
	return nil
}

// EffectiveThreads resolves Threads against GOMAXPROCS
func (o Options) EffectiveThreads() int {
	if o.Threads > 0 {
		return o.Threads
	}
	return runtime.GOMAXPROCS(0)
}

// FromYAML parses yaml over the defaults
func FromYAML(data []byte) (Options, error) {
	o := Default()
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, errors.Wrap(err, "parse config")
	}
	return o, o.Validate()
}

// YAML renders the options
func (o Options) YAML() ([]byte, error) {
	return yaml.Marshal(o)
}

// NewViper returns a viper instance primed with the defaults and the
// environment overrides. Callers may bind flags to it before FromViper.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("threads", d.Threads)
	v.SetDefault("treat_warnings_as_errors", d.TreatWarningsAsErrors)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.in_memory", d.Store.InMemory)
	v.SetDefault("store.cache_bytes", d.Store.CacheBytes)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	return v
}

// FromViper decodes and validates the options held by v
func FromViper(v *viper.Viper) (Options, error) {
	var o Options
	if err := v.Unmarshal(&o); err != nil {
		return o, errors.Wrap(err, "decode config")
	}
	return o, o.Validate()
}

// Load reads the yaml file at path, if any, under the environment
// overrides. A missing file at a non-empty path is an error.
func Load(path string) (Options, error) {
	v := NewViper()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Default(), errors.Wrap(err, "read config")
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Default(), errors.Wrapf(err, "read config %s", path)
		}
	}
	return FromViper(v)
}
