package config

// Config is the root configuration for the factrelay gateway.
type Config struct {
	Discord  DiscordConfig  `json:"discord"`
	Engine   EngineConfig   `json:"engine"`
	Database DatabaseConfig `json:"database,omitempty"`
	Relay    RelayConfig    `json:"relay,omitempty"`
}

// DiscordConfig holds the bot tokens. The dev token is used with --dev.
type DiscordConfig struct {
	Token    string `json:"token"`
	DevToken string `json:"dev_token,omitempty"`
}

// EngineConfig locates the fact engine's line-protocol listener and carries
// its login credentials.
type EngineConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// DatabaseConfig configures Postgres.
// PostgresDSN is never read from the config file, only from the
// FACTRELAY_POSTGRES_DSN environment variable.
type DatabaseConfig struct {
	PostgresDSN string `json:"-"`
}

// RelayConfig tunes the relay pipeline.
type RelayConfig struct {
	// Debug restricts relaying to TestGuildID.
	Debug       bool   `json:"debug,omitempty"`
	TestGuildID string `json:"test_guild_id,omitempty"`

	IngestQueueSize    int `json:"ingest_queue_size,omitempty"`
	EgressQueueSize    int `json:"egress_queue_size,omitempty"`
	UserCacheQueueSize int `json:"user_cache_queue_size,omitempty"`
}
