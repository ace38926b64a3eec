package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by parseEnv.
const (
	EnvGRPCAddr            = "AUTHKIT_GRPC_ADDR"
	EnvMetricsAddr         = "AUTHKIT_METRICS_ADDR"
	EnvStorage             = "AUTHKIT_STORAGE"
	EnvDatabaseDSN         = "AUTHKIT_DATABASE_DSN"
	EnvAccessSecret        = "AUTHKIT_JWT_ACCESS_SECRET"
	EnvRefreshSecret       = "AUTHKIT_JWT_REFRESH_SECRET"
	EnvAccessTTL           = "AUTHKIT_JWT_ACCESS_TTL"
	EnvRefreshTTL          = "AUTHKIT_JWT_REFRESH_TTL"
	EnvExcludeDeletedUsers = "AUTHKIT_EXCLUDE_DELETED_USERS"
	EnvLogBackend          = "AUTHKIT_LOG_BACKEND"
	EnvLogLevel            = "AUTHKIT_LOG_LEVEL"
)

// parseEnv overlays AUTHKIT_* variables onto config. TTLs use
// time.ParseDuration syntax. Malformed values panic, like a broken JSON file.
func parseEnv(config *Config) {
	lookupString(EnvGRPCAddr, &config.EndpointAddrGRPC)
	lookupString(EnvMetricsAddr, &config.MetricsAddr)
	lookupString(EnvStorage, &config.Storage)
	lookupString(EnvDatabaseDSN, &config.DatabaseDSN)
	lookupString(EnvAccessSecret, &config.AccessTokenSecret)
	lookupString(EnvRefreshSecret, &config.RefreshTokenSecret)
	lookupString(EnvLogBackend, &config.LogBackend)
	lookupString(EnvLogLevel, &config.LogLevel)

	lookupDuration(EnvAccessTTL, &config.AccessTokenValidityDuration)
	lookupDuration(EnvRefreshTTL, &config.RefreshTokenValidityDuration)

	if v, ok := os.LookupEnv(EnvExcludeDeletedUsers); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", EnvExcludeDeletedUsers, err))
		}
		config.ExcludeDeletedUsers = b
	}
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupDuration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = d
}
