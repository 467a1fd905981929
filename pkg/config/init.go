package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Settings holds all configuration values
type Settings struct {
	// Logging configuration
	Logging struct {
		LogFile string
		Persist bool
		Level   string
	}

	// Aggregation configuration
	Aggregation struct {
		ExcludeTools    []string
		MaxVisibleIcons int
	}

	// Icons configuration
	Icons struct {
		// File is an optional YAML icon table merged over the built-ins
		File string
	}

	// Display settings
	Display struct {
		Mode  string
		Width int
	}

	// Stream configuration
	Stream struct {
		Source string
	}

	// ConfigFile stores the path to the config file used
	ConfigFile string
}

// Global settings instance
var Global *Settings

// Init initializes the configuration system
func Init(cfgFile string) error {
	Global = &Settings{}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		Global.ConfigFile = cfgFile
	} else {
		viper.AddConfigPath("./.partstream")
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
		Global.ConfigFile = ".partstream/settings.yaml"
	}

	setDefaults()

	// PARTSTREAM_LOGGING_LEVEL maps to logging.level
	viper.SetEnvPrefix("PARTSTREAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return Load()
}

// setDefaults sets all default configuration values
func setDefaults() {
	// Logging defaults
	viper.SetDefault("logging.log_file", "system.log")
	viper.SetDefault("logging.persist", false)
	viper.SetDefault("logging.level", "info")

	// Aggregation defaults
	viper.SetDefault("aggregation.exclude_tools", []string{"commit", "git_commit", "create_checkpoint"})
	viper.SetDefault("aggregation.max_visible_icons", 6)

	viper.SetDefault("icons.file", "")

	// Display defaults
	viper.SetDefault("display.mode", "chat")
	viper.SetDefault("display.width", 100)

	viper.SetDefault("stream.source", "")
}

// Load loads configuration from viper into the Settings struct
func Load() error {
	if Global == nil {
		Global = &Settings{}
	}

	// Logging settings
	Global.Logging.LogFile = viper.GetString("logging.log_file")
	Global.Logging.Persist = viper.GetBool("logging.persist")
	Global.Logging.Level = viper.GetString("logging.level")

	// Aggregation settings
	Global.Aggregation.ExcludeTools = viper.GetStringSlice("aggregation.exclude_tools")
	Global.Aggregation.MaxVisibleIcons = viper.GetInt("aggregation.max_visible_icons")
	if Global.Aggregation.MaxVisibleIcons <= 0 {
		return fmt.Errorf("aggregation.max_visible_icons must be positive, got %d", Global.Aggregation.MaxVisibleIcons)
	}

	Global.Icons.File = viper.GetString("icons.file")

	// Display settings
	Global.Display.Mode = viper.GetString("display.mode")
	Global.Display.Width = viper.GetInt("display.width")
	switch Global.Display.Mode {
	case "chat", "compact":
	default:
		return fmt.Errorf("display.mode must be chat or compact, got %q", Global.Display.Mode)
	}

	Global.Stream.Source = viper.GetString("stream.source")

	return nil
}

// WriteDefaultConfig writes default configuration values to disk, preserving existing settings
func WriteDefaultConfig() error {
	if Global == nil || Global.ConfigFile == "" {
		return fmt.Errorf("config file path not set")
	}

	configDir := filepath.Dir(Global.ConfigFile)
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := viper.WriteConfigAs(Global.ConfigFile); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}

	return nil
}

// Get returns the global settings instance
func Get() *Settings {
	if Global == nil {
		panic("config not initialized - call Init() first")
	}
	return Global
}
