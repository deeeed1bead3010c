package config

import (
	"context"
	"crypto/tls"
	"log"
	"net"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection settings for the Redis instance that
// backs admin notices, the logout denylist and rate limiting.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	TLS       bool
	NoticeTTL time.Duration // lifetime of unread conflict notices
}

// LoadRedisConfig reads REDIS_* variables.  REDIS_HOST and REDIS_PORT
// together take precedence over REDIS_ADDR.
func LoadRedisConfig() RedisConfig {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = net.JoinHostPort(host, port)
	}
	return RedisConfig{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        envInt("REDIS_DB", 0),
		TLS:       envBool("REDIS_TLS", false),
		NoticeTTL: envDur("NOTICE_TTL", 7*24*time.Hour),
	}
}

// NewRedisClient connects to Redis and pings it.  It returns nil when the
// server cannot be reached; callers then fall back to in-process notices
// and run without rate limiting or token revocation.
func NewRedisClient(rc RedisConfig) *redis.Client {
	opts := &redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB}
	if rc.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis: %s unreachable: %v", rc.Addr, err)
		_ = client.Close()
		return nil
	}
	return client
}
