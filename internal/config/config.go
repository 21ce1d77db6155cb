// Package config loads gpioskill configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config contains all gpioskill settings.
type Config struct {
	// DataDir is the directory holding the device document and history DB.
	DataDir string `mapstructure:"data_dir"`

	// DeviceFile is the path of the JSON document with devices and routines.
	// Defaults to <DataDir>/pin_config.json.
	DeviceFile string `mapstructure:"device_file"`

	// HistoryDB is the path of the SQLite run history database.
	// Empty disables history recording.
	HistoryDB string `mapstructure:"history_db"`

	// LogLevel sets the zerolog level (trace..error). Default: warn.
	LogLevel string `mapstructure:"log_level"`

	// GPIOChip is the character device used when pinctrl is unavailable.
	GPIOChip string `mapstructure:"gpio_chip"`

	// SerialPort is the default UART device.
	SerialPort string `mapstructure:"serial_port"`

	// SerialBaud is the default UART baud rate.
	SerialBaud int `mapstructure:"serial_baud"`

	// LCDAddress is the default I2C address of the LCD backpack.
	LCDAddress int `mapstructure:"lcd_address"`
}

// DefaultDataDir returns the per-user data directory.
func DefaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", "gpioskill")
	}
	return "."
}

// Load reads configuration from the given file (optional) and the
// GPIOSKILL_* environment, applying defaults for anything unset.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("history_db", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("gpio_chip", "gpiochip0")
	v.SetDefault("serial_port", "/dev/serial0")
	v.SetDefault("serial_baud", 9600)
	v.SetDefault("lcd_address", 0x27)

	v.SetEnvPrefix("GPIOSKILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDataDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.DeviceFile == "" {
		cfg.DeviceFile = filepath.Join(cfg.DataDir, "pin_config.json")
	}

	return &cfg, nil
}

// RoutineSearchPaths returns routine YAML directories in precedence order.
func (c *Config) RoutineSearchPaths() []string {
	paths := make([]string, 0, 2)
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, ".gpioskill", "routines"))
	}
	paths = append(paths, filepath.Join(c.DataDir, "routines"))
	return paths
}
