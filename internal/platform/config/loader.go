package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	platformerrors "naturelog-go/internal/platform/errors"
)

const (
	// EnvConfigPath overrides the configuration file location.
	EnvConfigPath     = "NATURELOG_CONFIG"
	defaultConfigPath = ".config.yaml"
)

// Loader reads configuration from a yaml file with .env overrides.
type Loader struct {
	useDotEnv bool
	path      string
}

// NewLoader creates a loader using the default file location.
func NewLoader() *Loader {
	return &Loader{useDotEnv: true}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath overrides the configuration file path (useful for tests).
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load reads the config file, falling back to defaults when it is absent.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using system environment")
		}
	}

	path := l.path
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load", "failed to parse config file", err)
		}
	case os.IsNotExist(err):
		path = ""
	default:
		return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load", "failed to read config file", err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NATURELOG_SERVER_URL"); v != "" {
		cfg.Agent.ServerURL = v
	}
	if v := os.Getenv("NATURELOG_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("NATURELOG_DB_DSN"); v != "" {
		cfg.Server.Database.DSN = v
	}
}

// Validate checks the structural invariants of a configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return platformerrors.New(platformerrors.KindConfig, "config.validate", "config is nil")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return platformerrors.New(platformerrors.KindConfig, "config.validate",
			fmt.Sprintf("invalid server port: %d", cfg.Server.Port))
	}
	switch cfg.Queue.Store.Type {
	case "", "memory", "sqlite", "redis":
	default:
		return platformerrors.New(platformerrors.KindConfig, "config.validate",
			fmt.Sprintf("unsupported queue store type: %s", cfg.Queue.Store.Type))
	}
	if cfg.Queue.MaxEntries < 0 {
		return platformerrors.New(platformerrors.KindConfig, "config.validate", "queue max_entries must not be negative")
	}
	return nil
}
