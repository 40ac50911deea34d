package config

import (
	"strings"
	"time"
)

const (
	apiBaseURLVar  = "API_BASE_URL"
	httpTimeoutVar = "HTTP_TIMEOUT"
	localModeVar   = "LOCAL_MODE"
	localDBVar     = "LOCAL_DB"

	defaultHTTPTimeout = 30 * time.Second
)

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the base URL of the remote dashboard API,
// e.g. "http://127.0.0.1:8000/api". All endpoint paths are relative to it.
func (API) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiBaseURLVar, "http://127.0.0.1:8000/api"), "/")
}

func (API) GetHTTPTimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv(httpTimeoutVar, ""))
	if err != nil || d <= 0 {
		return defaultHTTPTimeout
	}
	return d
}

// LocalMode selects the embedded fixture backend instead of the remote API.
func (API) LocalMode() bool {
	switch strings.ToLower(GetEnv(localModeVar, "false")) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func (API) GetLocalDB() string {
	return GetEnv(localDBVar, "./data/fixture.db")
}
