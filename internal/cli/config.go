package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tally/internal/paths"
	"github.com/mesh-intelligence/tally/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "TALLY"

	// Config keys.
	keyBackend        = "backend"
	keyDataDir        = "data_dir"
	keyContext        = "context"
	keyMinRatio       = "min_ratio"
	keyJoinCoalitions = "join_coalitions"
	keyReturnPartial  = "return_partial"
	keyLogLevel       = "log_level"

	defaultLogLevel = "info"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend        string  `yaml:"backend"`
	DataDir        string  `yaml:"data_dir,omitempty"`
	Context        string  `yaml:"context"`
	MinRatio       float64 `yaml:"min_ratio"`
	JoinCoalitions bool    `yaml:"join_coalitions"`
	ReturnPartial  bool    `yaml:"return_partial"`
	LogLevel       string  `yaml:"log_level"`
}

func defaultConfig() configFile {
	opts := types.DefaultValueOptions()
	return configFile{
		Backend:        types.BackendSQLite,
		MinRatio:       opts.MinRatio,
		JoinCoalitions: opts.JoinCoalitions,
		ReturnPartial:  opts.ReturnPartial,
		LogLevel:       defaultLogLevel,
	}
}

// loadConfig reads config.yaml from configDir using Viper. Environment
// variables prefixed TALLY_ override the file.
func loadConfig(configDir string) (*viper.Viper, error) {
	defaults := defaultConfig()

	v := viper.New()
	v.SetDefault(keyBackend, defaults.Backend)
	v.SetDefault(keyDataDir, "")
	v.SetDefault(keyContext, defaults.Context)
	v.SetDefault(keyMinRatio, defaults.MinRatio)
	v.SetDefault(keyJoinCoalitions, defaults.JoinCoalitions)
	v.SetDefault(keyReturnPartial, defaults.ReturnPartial)
	v.SetDefault(keyLogLevel, defaults.LogLevel)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. Returns false when the file was already there.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}

	cfg := defaultConfig()
	cfg.DataDir = dataDir
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}
