package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when the environment sets nothing.
const (
	DefaultRunsPerHour     = 30
	DefaultRunBurst        = 3
	DefaultLimit           = 600
	DefaultWindow          = time.Minute
	DefaultCleanupInterval = 5 * time.Minute
	DefaultIdleTTL         = time.Hour
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Exact path, or a prefix when it ends with "/"
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window; 0 means unlimited
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an unused client bucket is kept.
	IdleTTL   time.Duration
	Allowlist map[string]bool
	Endpoints []EndpointConfig
}

// DefaultConfig returns the limits used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    DefaultLimit,
		DefaultWindow:   DefaultWindow,
		CleanupInterval: DefaultCleanupInterval,
		IdleTTL:         DefaultIdleTTL,
		Allowlist:       make(map[string]bool),
		Endpoints:       DefaultEndpoints(DefaultRunsPerHour, DefaultRunBurst),
	}
}

// DefaultEndpoints limits run starts per client to runsPerHour. /ping is unlimited.
func DefaultEndpoints(runsPerHour, burst int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/ping", Method: "GET", Limit: 0},
		{Path: "/extract", Method: "POST", Limit: runsPerHour, Window: time.Hour, Burst: burst},
		{Path: "/extract/stream", Method: "POST", Limit: runsPerHour, Window: time.Hour, Burst: burst},
		{Path: "/runs/", Method: "GET", Limit: DefaultLimit, Window: time.Minute},
	}
}

// LoadConfig loads rate limiting configuration from RATE_LIMIT_* environment
// variables on top of DefaultConfig.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = getEnvBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	if !cfg.Enabled {
		return cfg
	}

	cfg.DefaultLimit = getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.Allowlist = parseIPList(os.Getenv("RATE_LIMIT_ALLOWLIST"))
	cfg.Endpoints = DefaultEndpoints(
		getEnvInt("RATE_LIMIT_RUNS_PER_HOUR", DefaultRunsPerHour),
		getEnvInt("RATE_LIMIT_RUN_BURST", DefaultRunBurst),
	)
	return cfg
}

// MatchEndpoint returns the configuration for a request, preferring an exact
// path over a prefix. It returns nil when nothing matches.
func MatchEndpoint(path, method string, endpoints []EndpointConfig) *EndpointConfig {
	for i := range endpoints {
		if endpoints[i].Path == path && endpoints[i].Method == method {
			return &endpoints[i]
		}
	}
	for i := range endpoints {
		ep := &endpoints[i]
		if ep.Method == method && strings.HasSuffix(ep.Path, "/") && strings.HasPrefix(path, ep.Path) {
			return ep
		}
	}
	return nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
