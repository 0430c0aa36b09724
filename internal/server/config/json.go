package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mediashelf/internal/flagx"
	"github.com/dmitrijs2005/mediashelf/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept both
// strings such as "1h" and integer nanoseconds. Absent keys leave the
// current value alone.
type JsonConfig struct {
	HTTPAddress                 string          `json:"http_address"`
	DatabaseDSN                 string          `json:"database_dsn"`
	SecretKey                   string          `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	BcryptCost                  *int            `json:"bcrypt_cost"`
	HashConcurrency             *int            `json:"hash_concurrency"`
	RedisAddr                   *string         `json:"redis_addr"`
	RedisPassword               *string         `json:"redis_password"`
	RedisDB                     *int            `json:"redis_db"`
	SearchCacheTTL              *timex.Duration `json:"search_cache_ttl"`
	CORSAllowedOrigins          []string        `json:"cors_allowed_origins"`
	LogLevel                    string          `json:"log_level"`
	RequestTimeout              *timex.Duration `json:"request_timeout"`
	ShutdownTimeout             *timex.Duration `json:"shutdown_timeout"`
	DBMaxOpenConns              *int            `json:"db_max_open_conns"`
	DBMaxIdleConns              *int            `json:"db_max_idle_conns"`
}

// parseJson overlays the file named by -c/-config in args, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)

	// nothing to load
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.applyTo(config)
	return nil
}

func (c *JsonConfig) applyTo(config *Config) {
	if c.HTTPAddress != "" {
		config.HTTPAddress = c.HTTPAddress
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.HashConcurrency != nil {
		config.HashConcurrency = *c.HashConcurrency
	}
	if c.RedisAddr != nil {
		config.RedisAddr = *c.RedisAddr
	}
	if c.RedisPassword != nil {
		config.RedisPassword = *c.RedisPassword
	}
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	if c.SearchCacheTTL != nil {
		config.SearchCacheTTL = c.SearchCacheTTL.Duration
	}
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.DBMaxOpenConns != nil {
		config.DBMaxOpenConns = *c.DBMaxOpenConns
	}
	if c.DBMaxIdleConns != nil {
		config.DBMaxIdleConns = *c.DBMaxIdleConns
	}
}
