package config

import "time"

// CacheConfig controls the Redis response cache in front of the public
// calendar.  Entries live for TTL or until a decision, cancellation or
// deletion bumps the generation stored under Prefix.  Bodies larger than
// MaxBodyBytes are served but not cached.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache:calendar"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
