package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

type Config struct {
	ProgressFile          string `mapstructure:"progress_file"`
	ChunkSizeBytes        int    `mapstructure:"chunk_size_bytes"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
	WatchIntervalMs       int    `mapstructure:"watch_interval_ms"`
	UserAgent             string `mapstructure:"user_agent"`
	LogLevel              string `mapstructure:"log_level"`
	LogFormat             string `mapstructure:"log_format"`
	LogFile               string `mapstructure:"log_file"`
}

func Default() *Config {
	return &Config{
		ChunkSizeBytes:        1024 * 1024,
		RequestTimeoutSeconds: 300,
		WatchIntervalMs:       100,
		UserAgent:             "depotdl",
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	// Register every key so environment-only overrides survive Unmarshal.
	v.SetDefault("progress_file", cfg.ProgressFile)
	v.SetDefault("chunk_size_bytes", cfg.ChunkSizeBytes)
	v.SetDefault("request_timeout_seconds", cfg.RequestTimeoutSeconds)
	v.SetDefault("watch_interval_ms", cfg.WatchIntervalMs)
	v.SetDefault("user_agent", cfg.UserAgent)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("log_file", cfg.LogFile)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("depotdl")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("DEPOTDOWNLOADER")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "depotdl")
	case "darwin":
		return "/Library/Application Support/depotdl"
	default:
		return "/etc/depotdl"
	}
}
