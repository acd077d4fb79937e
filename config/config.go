// Package config holds the configuration for negentropy process embedders
// such as cmd/negentropy-harness. The reconciliation library itself never
// requires this package; it is a convenience for callers that want the
// teacher's config-file/flag conventions instead of constructing
// reconcile.New and wire parameters by hand.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

const defaultConfigFileName = "negentropy.yaml"

// defaultIDSize is the protocol's default 32-byte id length, the full
// width of the fingerprint accumulator register.
const defaultIDSize = 32

// defaultFrameSizeLimit of 0 disables truncation.
const defaultFrameSizeLimit = uint64(0)

// Config is the root configuration for a negentropy process.
type Config struct {
	IDSize         int          `mapstructure:"id-size"`
	FrameSizeLimit uint64       `mapstructure:"frame-size-limit"`
	Logging        LoggerConfig `mapstructure:"logging"`
}

// LogEncoder selects the zapcore encoder used by the configured logger.
type LogEncoder = string

const (
	// ConsoleLogEncoder represents logging with plain text.
	ConsoleLogEncoder LogEncoder = "console"
	// JSONLogEncoder represents logging with JSON.
	JSONLogEncoder LogEncoder = "json"
)

const defaultLoggingLevel = "info"

// LoggerConfig configures the single process-wide logger.
type LoggerConfig struct {
	Encoder LogEncoder `mapstructure:"log-encoder"`
	Level   string     `mapstructure:"log-level"`
}

func defaultLoggingConfig() LoggerConfig {
	return LoggerConfig{
		Encoder: ConsoleLogEncoder,
		Level:   defaultLoggingLevel,
	}
}

// DefaultConfig returns the default configuration for a negentropy process.
func DefaultConfig() Config {
	return Config{
		IDSize:         defaultIDSize,
		FrameSizeLimit: defaultFrameSizeLimit,
		Logging:        defaultLoggingConfig(),
	}
}

// LoadConfig loads the config file at fileLocation into vip, falling back to
// defaultConfigFileName if fileLocation can't be read.
func LoadConfig(fileLocation string, vip *viper.Viper) (err error) {
	if fileLocation == "" {
		fileLocation = defaultConfigFileName
	}

	vip.SetConfigFile(fileLocation)
	err = vip.ReadInConfig()
	if err != nil {
		if fileLocation != defaultConfigFileName {
			vip.SetConfigFile(defaultConfigFileName)
			err = vip.ReadInConfig()
		}
		if err != nil {
			return fmt.Errorf("failed to read config file %v", err)
		}
	}

	return nil
}
