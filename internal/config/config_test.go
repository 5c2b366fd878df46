package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"fuelwatch"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	require.Equal(t, "http://localhost:8000/api/v1", cfg.APIBaseURL)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
	require.Equal(t, "fuelwatch.db", cfg.DatabasePath)
	require.Equal(t, 5*time.Minute, cfg.StaleTime)
	require.Equal(t, 10*time.Minute, cfg.GCTime)
	require.Equal(t, 12, cfg.PageSize)
	require.False(t, cfg.Debug)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	withArgs(t, "-a", "https://fuel.example.com/api/v1", "-t", "30", "-p", "24", "-debug")

	cfg := LoadConfig()

	require.Equal(t, "https://fuel.example.com/api/v1", cfg.APIBaseURL)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.Equal(t, 24, cfg.PageSize)
	require.True(t, cfg.Debug)
	require.Equal(t, "fuelwatch.db", cfg.DatabasePath, "untouched fields keep defaults")
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"api_base_url": "https://fuel.example.com/api/v1",
		"stale_time": "2m",
		"gc_time": "20m",
		"page_size": 6
	}`), 0o600))

	withArgs(t, "-c", path)

	cfg := LoadConfig()

	require.Equal(t, "https://fuel.example.com/api/v1", cfg.APIBaseURL)
	require.Equal(t, 2*time.Minute, cfg.StaleTime)
	require.Equal(t, 20*time.Minute, cfg.GCTime)
	require.Equal(t, 6, cfg.PageSize)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout, "fields absent from JSON keep defaults")
}

func TestLoadConfig_FlagsWinOverJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_base_url": "https://json.example.com"}`), 0o600))

	withArgs(t, "-c", path, "-a", "https://flag.example.com")

	cfg := LoadConfig()
	require.Equal(t, "https://flag.example.com", cfg.APIBaseURL)
}
