package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override configuration values.
const (
	EnvAuthor  = "DEPMERGE_AUTHOR"
	EnvSource  = "DEPMERGE_SOURCE"
	EnvNATSURL = "DEPMERGE_NATS_URL"
	EnvToken   = "GITHUB_TOKEN"
	EnvGHToken = "GH_TOKEN"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env files that exist. Variables already set in the process win.
func loadEnvFiles() {
	for _, p := range envFiles {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvAuthor); v != "" {
		cfg.Forge.Author = v
	}
	if v := os.Getenv(EnvSource); v != "" {
		cfg.Forge.Source = SourceType(v)
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		cfg.Notify.NATSURL = v
	}
	if cfg.Forge.Token == "" {
		if v := os.Getenv(EnvToken); v != "" {
			cfg.Forge.Token = v
		} else if v := os.Getenv(EnvGHToken); v != "" {
			cfg.Forge.Token = v
		}
	}
}
