package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultSettingsDir is used when no config file was found
const DefaultSettingsDir = ".partstream"

func BaseSettingsDir() string {
	// Check if config.path is explicitly set (for testing)
	if configPath := viper.GetString("config.path"); configPath != "" {
		return configPath
	}

	currentConfig := viper.ConfigFileUsed()
	if currentConfig == "" {
		return DefaultSettingsDir
	}
	return filepath.Dir(currentConfig)
}

func BuildSettingsPath(target string) string {
	return filepath.Join(BaseSettingsDir(), target)
}
