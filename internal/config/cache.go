package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is disabled.
// LookupTimeout bounds every Redis round trip made on the request path.
type CacheConfig struct {
	Enabled       bool
	Methods       map[string]bool
	TTL           time.Duration
	LookupTimeout time.Duration
	Prefix        string
	MaxBodyBytes  int
}

// LoadCacheConfig reads CACHE_* variables to build a CacheConfig.  All
// methods are upper-cased.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:       envBool("CACHE_ENABLED", true),
		Methods:       parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:           envDur("CACHE_TTL", 30*time.Second),
		LookupTimeout: envDur("CACHE_LOOKUP_TIMEOUT", 100*time.Millisecond),
		Prefix:        envStr("CACHE_PREFIX", "chat-cache"),
		MaxBodyBytes:  envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
