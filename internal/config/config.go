package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	LocalMode() bool
	GetLocalDB() string
}

type mainConfig struct {
	EnvVars
	API
}

func New() Config {
	// Optional .env file for local development, real env vars win
	_ = godotenv.Load()
	return mainConfig{}
}
