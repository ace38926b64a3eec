package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-m", ":9100", "-storage", "memory", "-d", "db",
			"-access-secret", "as", "-refresh-secret", "rs",
			"-t", "1", "-r", "3", "-exclude-deleted=true", "-log-backend", "zap", "-log-level", "debug",
		}, expected: &Config{
			EndpointAddrGRPC:             "127.0.0.1:9090",
			MetricsAddr:                  ":9100",
			Storage:                      "memory",
			DatabaseDSN:                  "db",
			AccessTokenSecret:            "as",
			RefreshTokenSecret:           "rs",
			AccessTokenValidityDuration:  1 * time.Minute,
			RefreshTokenValidityDuration: 3 * time.Minute,
			ExcludeDeletedUsers:          true,
			LogBackend:                   "zap",
			LogLevel:                     "debug",
		}},
		{name: "double dash and unknown flags are tolerated", args: []string{"cmd",
			"--a=:1", "-unknown", "x", "positional",
		}, expected: &Config{
			EndpointAddrGRPC: ":1",
		}},
		{name: "bad minutes value", args: []string{"cmd", "-t", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}

func TestParseFlags_KeepsSubMinuteTTLWhenNotGiven(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd", "-a", ":1"}

	config := &Config{AccessTokenValidityDuration: 30 * time.Second}
	parseFlags(config)

	assert.Equal(t, 30*time.Second, config.AccessTokenValidityDuration)
}
