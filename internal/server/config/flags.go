package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authkit/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string                gRPC bind address (e.g., ":50051")
//	-m string                metrics bind address (e.g., ":9090")
//	-storage string          "postgres" or "memory"
//	-d string                PostgreSQL DSN
//	-access-secret string    access token HMAC secret
//	-refresh-secret string   refresh token HMAC secret
//	-t int                   access token validity, minutes
//	-r int                   refresh token validity, minutes
//	-exclude-deleted bool    hide soft-deleted users (use -exclude-deleted=false)
//	-log-backend string      "slog" or "zap"
//	-log-level string        debug, info, warn, error
//
// os.Args is first reduced to these flags with flagx.FilterArgs so that
// other components may define their own.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-m", "-storage", "-d", "-access-secret", "-refresh-secret",
		"-t", "-r", "-exclude-deleted", "-log-backend", "-log-level",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port to expose metrics")
	fs.StringVar(&config.Storage, "storage", config.Storage, "storage backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "access-secret", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "refresh-secret", config.RefreshTokenSecret, "refresh token secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.BoolVar(&config.ExcludeDeletedUsers, "exclude-deleted", config.ExcludeDeletedUsers, "hide soft-deleted users")
	fs.StringVar(&config.LogBackend, "log-backend", config.LogBackend, "log backend")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Minute flags only override when given, so sub-minute TTLs from JSON or
	// the environment survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
}
