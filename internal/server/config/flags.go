package config

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/mediashelf/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-k int      bcrypt cost
//	-w int      max concurrent password hashes
//	-r string   Redis address, empty disables the search cache
//	-x duration search cache TTL (e.g., "5m")
//	-o string   comma separated CORS origins
//	-l string   log level
//
// args is filtered with flagx.FilterArgs first so that -c/-config and any
// unknown flags do not trip the flag set.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-k", "-w", "-r", "-x", "-o", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddress, "a", config.HTTPAddress, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.HashConcurrency, "w", config.HashConcurrency, "max concurrent password hashes")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.DurationVar(&config.SearchCacheTTL, "x", config.SearchCacheTTL, "search cache TTL")
	origins := fs.String("o", strings.Join(config.CORSAllowedOrigins, ","), "CORS allowed origins")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "o":
			config.CORSAllowedOrigins = flagx.SplitList(*origins)
		}
	})

	return nil
}
