package redis

import (
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/simorq_sessions/config"
)

const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
	defaultDialTimeout  = 5 * time.Second
	defaultIOTimeout    = 3 * time.Second
)

type Config struct {
	Addr     string
	DB       int
	Username string
	Password string

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromCentralConfig fills unset pool sizes and timeouts with defaults.
func FromCentralConfig(c config.RedisConfig) Config {
	return Config{
		Addr:         c.Addr,
		DB:           c.DB,
		Username:     c.Username,
		Password:     c.Password,
		PoolSize:     orDefault(c.PoolSize, defaultPoolSize),
		MinIdleConns: orDefault(c.MinIdleConns, defaultMinIdleConns),
		DialTimeout:  seconds(c.DialTimeoutSeconds, defaultDialTimeout),
		ReadTimeout:  seconds(c.ReadTimeoutSeconds, defaultIOTimeout),
		WriteTimeout: seconds(c.WriteTimeoutSeconds, defaultIOTimeout),
	}
}

func (c Config) options() *goredis.Options {
	return &goredis.Options{
		Addr:         c.Addr,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func seconds(v int, def time.Duration) time.Duration {
	if v > 0 {
		return time.Duration(v) * time.Second
	}
	return def
}
