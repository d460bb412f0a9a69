package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000/api", cfg.Backend.BaseURL)
	require.Equal(t, 20*time.Second, cfg.Backend.FetchTimeout)
	require.Equal(t, ":8085", cfg.Server.ListenAddr)
	require.Equal(t, 256, cfg.OptionsCacheSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
	t.Setenv("FINSAGE_BACKEND_BASE_URL", "http://advisory.internal/api")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://advisory.internal/api", cfg.Backend.BaseURL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{
		Backend: BackendConfig{
			BaseURL:          "",
			FetchTimeout:     time.Second,
			ChatTimeout:      time.Second,
			RecommendTimeout: time.Second,
			SentimentTimeout: time.Second,
		},
		OptionsCacheSize: 16,
	}
	require.Error(t, cfg.Validate())

	cfg.Backend.BaseURL = "http://x"
	cfg.Backend.ChatTimeout = 0
	require.Error(t, cfg.Validate())

	cfg.Backend.ChatTimeout = time.Second
	cfg.OptionsCacheSize = 0
	require.Error(t, cfg.Validate())

	cfg.OptionsCacheSize = 1
	require.NoError(t, cfg.Validate())
}
