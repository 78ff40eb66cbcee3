package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// AggregateCacheConfig defines settings for the availability aggregate cache.
// When Enabled is false or no Redis client is configured, section counts and
// totals are recomputed from the database on every request.  TTL bounds the
// staleness window of cached counts: a consumer may observe counts up to TTL
// old, which is acceptable because the allocation engine always re-reads
// ground truth at reservation time.  Prefix namespaces the cache keys so the
// same Redis instance can serve rate limiting alongside.
type AggregateCacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
}

// LoadAggregateCacheConfig reads environment variables to build an
// AggregateCacheConfig.  Defaults are used when variables are not set.
func LoadAggregateCacheConfig() AggregateCacheConfig {
    return AggregateCacheConfig{
        Enabled: strings.EqualFold(getenv("AGG_CACHE_ENABLED", "true"), "true"),
        TTL:     parseDur(getenv("AGG_CACHE_TTL", "15s")),
        Prefix:  getenv("AGG_CACHE_PREFIX", "agg"),
    }
}

// Helper functions shared with ratelimit.go
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func atoi(s string) int {
    i, _ := strconv.Atoi(s)
    return i
}

func parseDur(s string) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil {
        return time.Second
    }
    return d
}
