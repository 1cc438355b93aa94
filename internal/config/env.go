package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv fills credential and transport settings from the environment,
// honoring a .env file in the working directory when present. Secrets never
// travel through CLI flags so they stay out of shell history and ps output.
func LoadEnv(cfg *Config) {
	// Missing .env is the common case, not an error.
	_ = godotenv.Load()

	setIfPresent(&cfg.ServerAddress, "ZAPTIME_SERVER")
	setIfPresent(&cfg.Username, "ZAPTIME_USERNAME")
	setIfPresent(&cfg.Password, "ZAPTIME_PASSWORD")
	setIfPresent(&cfg.SSHHost, "ZAPTIME_SSH_HOST")
	setIfPresent(&cfg.SSHUser, "ZAPTIME_SSH_USER")
	setIfPresent(&cfg.SSHKeyPath, "ZAPTIME_SSH_KEY")
	setIfPresent(&cfg.ContainerName, "ZAPTIME_CONTAINER")
}

func setIfPresent(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
