package config

import "time"

// DefaultConfig returns the baseline configuration used when no config
// file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8080,
			Database: DatabaseConfig{
				DSN: "data/naturelog.db",
			},
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "naturelog.log",
		},
		Auth: AuthConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Media: MediaConfig{
			Dir:            "data/uploads",
			PublicPath:     "/uploads",
			MaxFileSize:    10 * 1024 * 1024,
			AllowedFormats: []string{"jpeg", "png", "gif", "webp"},
		},
		Queue: QueueConfig{
			Key: "pending_uploads",
			Store: StoreConfig{
				Type: "sqlite",
				SQLite: SQLiteStore{
					DSN: "data/agent.db",
				},
			},
		},
		Agent: AgentConfig{
			ServerURL:     "http://127.0.0.1:8080",
			CaptureDir:    "data/captures",
			ScanInterval:  5 * time.Second,
			FlushInterval: time.Minute,
		},
	}
}
