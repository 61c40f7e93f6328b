package config

import (
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Dispatch DispatchConfig `yaml:"dispatch"`
}

type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type DispatchConfig struct {
	// TimeoutSeconds bounds each individual provider call so one hung vendor
	// cannot stall a dispatch forever. 0 disables the bound.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	MaxConcurrent  int `yaml:"max_concurrent"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Port:                8384,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 120,
		},
		Database: DatabaseConfig{
			Path: "./brandscope.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Dispatch: DispatchConfig{
			TimeoutSeconds: 60,
			MaxConcurrent:  4,
		},
	}
}

// Load reads a YAML config file and merges it over defaults, then applies
// BRANDSCOPE_* environment overrides. If the file does not exist, defaults
// are returned without error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("No config file found, using defaults", "path", path)
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BRANDSCOPE_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("BRANDSCOPE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BRANDSCOPE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("BRANDSCOPE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
