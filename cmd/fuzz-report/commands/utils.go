/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the fuzz-report command. Provides configuration
loading from files, flags and environment, plus logging setup.
*/

package commands

import (
	"fmt"
	"strings"

	"github.com/kleascm/fuzz-report/pkg/config"
	"github.com/kleascm/fuzz-report/pkg/logging"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FUZZ_REPORT_LAYOUT_STATS_DIR
const EnvPrefix = "FUZZ_REPORT"

// LoadConfig loads configuration from files and environment
func LoadConfig(v *viper.Viper) (*config.Config, error) {
	// Set config file if specified
	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Set environment variable prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SetupLogging configures the logging system
func SetupLogging(v *viper.Viper) (*logging.Logger, error) {
	logConfig := logging.DefaultLoggerConfig()
	if level := v.GetString("log_level"); level != "" {
		logConfig.Level = logging.LogLevel(level)
	}
	if format := v.GetString("log_format"); format != "" {
		logConfig.Format = logging.LogFormat(format)
	}
	logConfig.OutputDir = v.GetString("log_dir")

	logger, err := logging.NewLogger(logConfig, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	return logger, nil
}
