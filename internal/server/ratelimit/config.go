package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule limits one method on one path. A Path ending in "/" matches every path below it.
type Rule struct {
	Path   string
	Method string
	Limit  int           // requests per Window; zero or less means unlimited
	Window time.Duration
	Burst  int // defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	Default         Rule
	CleanupInterval time.Duration
	IdleTTL         time.Duration // buckets unused this long are dropped
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	Rules           []Rule
}

// DefaultConfig is the configuration used when no environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Default:         Rule{Limit: 600, Window: time.Minute},
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		Rules:           DefaultRules(30, time.Hour),
	}
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	cfg := DefaultConfig()
	cfg.Default.Limit = getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.Default.Limit)
	cfg.Default.Window = getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.Default.Window)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.Whitelist = parseIPList(os.Getenv("RATE_LIMIT_WHITELIST"))
	cfg.Blacklist = parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST"))
	cfg.Rules = DefaultRules(
		getEnvInt("RATE_LIMIT_EXTRACT_LIMIT", 30),
		getEnvDuration("RATE_LIMIT_EXTRACT_WINDOW", time.Hour),
	)
	return cfg
}

// DefaultRules returns the per-endpoint rules. Every extraction spends one model call,
// so the /extract/ routes share the strictest budget.
func DefaultRules(extractLimit int, extractWindow time.Duration) []Rule {
	burst := max(extractLimit/6, 1)
	return []Rule{
		{Path: "/extract/", Method: "POST", Limit: extractLimit, Window: extractWindow, Burst: burst},

		{Path: "/forms", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/forms/", Method: "PATCH", Limit: 300, Window: time.Minute, Burst: 30},

		{Path: "/health", Method: "GET"},
		{Path: "/schemas", Method: "GET"},
		{Path: "/schemas/", Method: "GET"},
	}
}

// Match returns the rule for a request, or nil when only the default applies.
// Exact paths win over prefixes; among prefixes the longest wins.
func Match(path, method string, rules []Rule) *Rule {
	var best *Rule
	for i := range rules {
		r := &rules[i]
		if r.Method != method {
			continue
		}
		if r.Path == path {
			return r
		}
		if strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			if best == nil || len(r.Path) > len(best.Path) {
				best = r
			}
		}
	}
	return best
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of client addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
