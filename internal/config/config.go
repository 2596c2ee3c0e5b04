// Package config loads settings for the sealfile service and CLI from an
// optional YAML file and SEALFILE_* environment variables.
package config

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/absfs/sealfile"
)

const (
	// DefaultListen is the address the HTTP service binds to
	DefaultListen = ":8000"

	// DefaultMaxUploadBytes bounds a single multipart upload
	DefaultMaxUploadBytes = 32 << 20

	envPrefix = "SEALFILE"
)

// Config is the service configuration.
type Config struct {
	Listen            string
	LogLevel          uint32
	MaxUploadBytes    int64
	Cipher            sealfile.CipherSuite
	RoundtripEnabled  bool
	AllowEmptyPayload bool
	BatchMaxWorkers   int
}

// NewDefaultConfig creates a new Config with default settings.
func NewDefaultConfig() *Config {
	return &Config{
		Listen:           DefaultListen,
		LogLevel:         uint32(log.InfoLevel),
		MaxUploadBytes:   DefaultMaxUploadBytes,
		Cipher:           sealfile.CipherAES256GCM,
		RoundtripEnabled: true,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", DefaultListen)
	v.SetDefault("log.level", "info")
	v.SetDefault("upload.max.bytes", DefaultMaxUploadBytes)
	v.SetDefault("cipher", sealfile.CipherAES256GCM.String())
	v.SetDefault("roundtrip.enabled", true)
	v.SetDefault("payload.allow.empty", false)
	v.SetDefault("batch.max.workers", 0)
	return v
}

// NewConfig creates a new Config with default settings and applies any
// settings from the given configuration file and the environment. An empty
// configFile skips the file.
func NewConfig(configFile string) (*Config, error) {
	v := newViper()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", configFile)
		}
	}

	config := NewDefaultConfig()
	config.Listen = v.GetString("listen")
	config.MaxUploadBytes = v.GetInt64("upload.max.bytes")
	config.RoundtripEnabled = v.GetBool("roundtrip.enabled")
	config.AllowEmptyPayload = v.GetBool("payload.allow.empty")
	config.BatchMaxWorkers = v.GetInt("batch.max.workers")

	level, err := sealfile.ParseLogLevel(v.GetString("log.level"))
	if err != nil {
		return nil, err
	}
	config.LogLevel = level

	cipher, err := sealfile.ParseCipherSuite(v.GetString("cipher"))
	if err != nil {
		return nil, err
	}
	config.Cipher = cipher

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the settings that have no safe fallback.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return sealfile.NewValidationError("listen", c.Listen, "listen address cannot be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return sealfile.NewValidationError("upload.max.bytes", c.MaxUploadBytes, "must be positive")
	}
	if c.BatchMaxWorkers < 0 {
		return sealfile.NewValidationError("batch.max.workers", c.BatchMaxWorkers, "cannot be negative")
	}
	return nil
}

// PipelineConfig returns the sealfile configuration for these settings. Key
// derivation always uses the container defaults.
func (c *Config) PipelineConfig() sealfile.Config {
	pc := sealfile.DefaultConfig()
	pc.Cipher = c.Cipher
	pc.AllowEmptyPayload = c.AllowEmptyPayload
	if c.BatchMaxWorkers > 0 {
		pc.Parallel.MaxWorkers = c.BatchMaxWorkers
	}
	return pc
}
