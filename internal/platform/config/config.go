package config

import (
	"time"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Auth   AuthConfig   `yaml:"auth"`
	Media  MediaConfig  `yaml:"media"`
	Queue  QueueConfig  `yaml:"queue"`
	Agent  AgentConfig  `yaml:"agent"`
}

type ServerConfig struct {
	IP       string         `yaml:"ip"`
	Port     int            `yaml:"port"`
	Database DatabaseConfig `yaml:"database"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type AuthConfig struct {
	Enabled bool          `yaml:"enabled"`
	Secret  string        `yaml:"secret"`
	TTL     time.Duration `yaml:"ttl"`
}

type MediaConfig struct {
	Dir            string   `yaml:"dir"`
	PublicPath     string   `yaml:"public_path"`
	MaxFileSize    int64    `yaml:"max_file_size"`
	AllowedFormats []string `yaml:"allowed_formats"`
}

// QueueConfig configures the pending upload queue and its durable store.
type QueueConfig struct {
	Key        string      `yaml:"key"`
	MaxEntries int         `yaml:"max_entries"`
	Store      StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	Type   string      `yaml:"type"`
	SQLite SQLiteStore `yaml:"sqlite,omitempty"`
	Redis  RedisStore  `yaml:"redis,omitempty"`
}

type SQLiteStore struct {
	DSN string `yaml:"dsn,omitempty"`
}

type RedisStore struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// AgentConfig drives the field-capture agent.
type AgentConfig struct {
	ServerURL     string         `yaml:"server_url"`
	Token         string         `yaml:"token,omitempty"`
	UserID        string         `yaml:"user_id,omitempty"`
	CaptureDir    string         `yaml:"capture_dir"`
	ScanInterval  time.Duration  `yaml:"scan_interval"`
	FlushInterval time.Duration  `yaml:"flush_interval"`
	Location      LocationConfig `yaml:"location"`
}

type LocationConfig struct {
	Granted     bool    `yaml:"granted"`
	Latitude    float64 `yaml:"lat,omitempty"`
	Longitude   float64 `yaml:"lng,omitempty"`
	PlaceName   string  `yaml:"place_name,omitempty"`
	GeocoderURL string  `yaml:"geocoder_url,omitempty"`
}
