package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server struct {
		Port      string `json:"port"`
		StaticDir string `json:"static_dir"`
		PublicURL string `json:"public_url"` // encoded in /api/qr; derived from the request when empty
		Debug     bool   `json:"debug"`
	} `json:"server"`

	Database struct {
		Path string `json:"path"`
	} `json:"database"`

	Lookup struct {
		BaseURL        string `json:"base_url"`
		TimeoutSeconds int    `json:"timeout_seconds"` // 0 = no client timeout
	} `json:"lookup"`

	Decoder struct {
		Type   string `json:"type"` // "serial" or "stdin", terminal scanner only
		Device string `json:"device"`
		Baud   int    `json:"baud"`
	} `json:"decoder"`
}

// LookupTimeout returns the HTTP client timeout for product lookups
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.Lookup.TimeoutSeconds) * time.Second
}

// LoadConfig loads configuration from a JSON file. A missing file is
// an error only when requireFile is true.
func LoadConfig(configPath string, requireFile bool) (*Config, error) {
	var config Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err) && !requireFile:
		config.Server.Port = "8080"
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(&config)

	if config.Server.Port == "" {
		return nil, fmt.Errorf("server port is not set in config file")
	}
	if config.Lookup.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("lookup timeout must not be negative")
	}
	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.StaticDir == "" {
		config.Server.StaticDir = "./static"
	}
	if config.Database.Path == "" {
		config.Database.Path = ":memory:"
	}
	if config.Lookup.BaseURL == "" {
		config.Lookup.BaseURL = "https://world.openfoodfacts.org/api/v0"
	}
	if config.Decoder.Type == "" {
		if config.Decoder.Device != "" {
			config.Decoder.Type = "serial"
		} else {
			config.Decoder.Type = "stdin"
		}
	}
	if config.Decoder.Baud <= 0 {
		config.Decoder.Baud = 9600
	}
}

func applyEnv(config *Config) {
	if v := strings.TrimSpace(os.Getenv("NUTRISCAN_PORT")); v != "" {
		config.Server.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("NUTRISCAN_LOOKUP_URL")); v != "" {
		config.Lookup.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("NUTRISCAN_DB")); v != "" {
		config.Database.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("NUTRISCAN_SERIAL_DEVICE")); v != "" {
		config.Decoder.Device = v
	}
	if v := strings.TrimSpace(os.Getenv("NUTRISCAN_SERIAL_BAUD")); v != "" {
		if baud, err := strconv.Atoi(v); err == nil {
			config.Decoder.Baud = baud
		}
	}
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	// First try environment variable
	if path := os.Getenv("NUTRISCAN_CONFIG"); path != "" {
		return path
	}

	// Then try config directory
	configDir := "config"
	if _, err := os.Stat(configDir); err == nil {
		return filepath.Join(configDir, "config.json")
	}

	// Finally, try current directory
	return "config.json"
}
