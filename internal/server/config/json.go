package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authkit/internal/flagx"
	"github.com/dmitrijs2005/authkit/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Interval fields
// use timex.Duration so both "15m" and integer nanoseconds are accepted.
// Pointer fields distinguish "absent" from an explicit zero value.
type JsonConfig struct {
	EndpointAddrGRPC             string          `json:"endpoint_addr_grpc"`
	MetricsAddr                  string          `json:"metrics_addr"`
	Storage                      string          `json:"storage"`
	DatabaseDSN                  string          `json:"database_dsn"`
	DBConnectAttempts            *uint64         `json:"db_connect_attempts"`
	AccessTokenSecret            string          `json:"access_token_secret"`
	RefreshTokenSecret           string          `json:"refresh_token_secret"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	ExcludeDeletedUsers          *bool           `json:"exclude_deleted_users"`
	Argon2Time                   uint32          `json:"argon2_time"`
	Argon2MemoryKiB              uint32          `json:"argon2_memory_kib"`
	Argon2Threads                uint8           `json:"argon2_threads"`
	LogBackend                   string          `json:"log_backend"`
	LogLevel                     string          `json:"log_level"`
}

// parseJson overlays values from the file named by -c/-config (or
// $AUTHKIT_CONFIG) onto config. Fields missing from the file keep their
// current values. A file that cannot be read or parsed panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.Storage, c.Storage)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)

	if c.DBConnectAttempts != nil {
		config.DBConnectAttempts = *c.DBConnectAttempts
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.ExcludeDeletedUsers != nil {
		config.ExcludeDeletedUsers = *c.ExcludeDeletedUsers
	}
	if c.Argon2Time != 0 {
		config.Argon2Time = c.Argon2Time
	}
	if c.Argon2MemoryKiB != 0 {
		config.Argon2MemoryKiB = c.Argon2MemoryKiB
	}
	if c.Argon2Threads != 0 {
		config.Argon2Threads = c.Argon2Threads
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
