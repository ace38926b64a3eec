package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_grpc":              "www.example:9000",
		"metrics_addr":                    ":9100",
		"storage":                         "memory",
		"database_dsn":                    "postgres://db",
		"db_connect_attempts":             0,
		"access_token_secret":             "access",
		"refresh_token_secret":            "refresh",
		"access_token_validity_duration":  "15m",
		"refresh_token_validity_duration": 3 * time.Minute,
		"exclude_deleted_users":           false,
		"argon2_time":                     2,
		"argon2_memory_kib":               1024,
		"argon2_threads":                  1,
		"log_backend":                     "zap",
		"log_level":                       "warn",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, ":9100", cfg.MetricsAddr)
		assert.Equal(t, StorageMemory, cfg.Storage)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, uint64(0), cfg.DBConnectAttempts)
		assert.Equal(t, "access", cfg.AccessTokenSecret)
		assert.Equal(t, "refresh", cfg.RefreshTokenSecret)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
		assert.False(t, cfg.ExcludeDeletedUsers)
		assert.Equal(t, uint32(2), cfg.Argon2Time)
		assert.Equal(t, uint32(1024), cfg.Argon2MemoryKiB)
		assert.Equal(t, uint8(1), cfg.Argon2Threads)
		assert.Equal(t, "zap", cfg.LogBackend)
		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("no config source keeps values", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("AUTHKIT_CONFIG", "")

		cfg := &Config{
			EndpointAddrGRPC:             "defaults:1234",
			DatabaseDSN:                  "vault.db",
			AccessTokenSecret:            "key",
			AccessTokenValidityDuration:  2 * time.Minute,
			RefreshTokenValidityDuration: 3 * time.Minute,
			ExcludeDeletedUsers:          true,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, "vault.db", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.AccessTokenSecret)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
		assert.True(t, cfg.ExcludeDeletedUsers)
	})

	t.Run("partial file keeps other fields", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"log_level": "debug"})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
		assert.True(t, cfg.ExcludeDeletedUsers)
	})

	t.Run("config path from environment", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("AUTHKIT_CONFIG", pathFlag)

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
