package config

import (
	"fmt"
	"os"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Host: "127.0.0.1",
			Port: 9005,
		},
		Relay: RelayConfig{
			IngestQueueSize:    1024,
			EgressQueueSize:    1024,
			UserCacheQueueSize: 65536,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)

	if cfg.Relay.IngestQueueSize <= 0 {
		cfg.Relay.IngestQueueSize = 1024
	}
	if cfg.Relay.EgressQueueSize <= 0 {
		cfg.Relay.EgressQueueSize = 1024
	}
	if cfg.Relay.UserCacheQueueSize <= 0 {
		cfg.Relay.UserCacheQueueSize = 65536
	}

	return cfg, nil
}

// applyEnv overlays secrets and overrides from the environment.
func applyEnv(cfg *Config) {
	cfg.Database.PostgresDSN = os.Getenv("FACTRELAY_POSTGRES_DSN")

	if v := os.Getenv("FACTRELAY_DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("FACTRELAY_DISCORD_DEV_TOKEN"); v != "" {
		cfg.Discord.DevToken = v
	}
	if v := os.Getenv("FACTRELAY_ENGINE_PASSWORD"); v != "" {
		cfg.Engine.Password = v
	}
}
