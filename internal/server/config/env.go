package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/mediashelf/internal/flagx"
	"github.com/joho/godotenv"
)

var lookupEnv = os.LookupEnv

// loadDotEnv copies ./.env into the process environment without
// overriding variables that are already set. A missing file is fine.
func loadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// parseEnv overlays the variables that are set:
//
//	PORT                  port (":PORT") or full address of the HTTP API
//	DATABASE_DSN          PostgreSQL DSN
//	JWT_SECRET            HMAC secret
//	ACCESS_TOKEN_TTL      duration, e.g. "1h"
//	BCRYPT_COST           integer
//	HASH_CONCURRENCY      integer
//	REDIS_ADDR            host:port, empty disables the cache
//	REDIS_PASSWORD
//	REDIS_DB              integer
//	SEARCH_CACHE_TTL      duration
//	CORS_ALLOWED_ORIGINS  comma separated
//	LOG_LEVEL
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			v = ":" + v
		}
		cfg.HTTPAddress = v
	}
	if v, ok := lookup("DATABASE_DSN"); ok && v != "" {
		cfg.DatabaseDSN = v
	}
	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		cfg.SecretKey = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok {
		cfg.RedisAddr = v
	}
	if v, ok := lookup("REDIS_PASSWORD"); ok {
		cfg.RedisPassword = v
	}
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		cfg.CORSAllowedOrigins = flagx.SplitList(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"ACCESS_TOKEN_TTL", &cfg.AccessTokenValidityDuration},
		{"SEARCH_CACHE_TTL", &cfg.SearchCacheTTL},
	}
	for _, d := range durations {
		v, ok := lookup(d.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"BCRYPT_COST", &cfg.BcryptCost},
		{"HASH_CONCURRENCY", &cfg.HashConcurrency},
		{"REDIS_DB", &cfg.RedisDB},
	}
	for _, i := range ints {
		v, ok := lookup(i.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.name, err)
		}
		*i.dst = parsed
	}

	return nil
}
