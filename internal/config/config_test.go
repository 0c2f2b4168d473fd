package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-docfill/internal/config"
)

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.Flags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_FileEnvAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docfill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  editor_ttl: 10m
backend:
  base_url: "http://file.example"
  rate_per_second: 2
theme:
  name: dooform
  variant: dark
`), 0o600))

	t.Setenv("DOCFILL_BACKEND_TOKEN", "from-env")
	t.Setenv("DOCFILL_BACKEND_BASE_URL", "http://env.example")

	cfg, err := config.Load(flagSet(t, "--config", path, "--addr", ":7000"))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Server.EditorTTL)
	assert.Equal(t, "http://env.example", cfg.Backend.BaseURL)
	assert.Equal(t, "from-env", cfg.Backend.Token)
	assert.Equal(t, 2.0, cfg.Backend.RatePerSecond)
	assert.Equal(t, "dooform", cfg.Theme.Name)
	assert.Equal(t, 150*time.Millisecond, cfg.Preview.Debounce)
	assert.Equal(t, "th", cfg.Preview.Locale)
}

func TestLoad_RequiresBackendURL(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := config.Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.base_url is required")
}

func TestValidate(t *testing.T) {
	cfg := config.Config{
		Backend: config.BackendConfig{BaseURL: "not a url", Timeout: time.Second, Burst: -1},
		Log:     config.LogConfig{Level: "loud"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an absolute URL")
	assert.Contains(t, err.Error(), "burst")
	assert.Contains(t, err.Error(), `log.level "loud"`)

	cfg = config.Config{
		Backend: config.BackendConfig{BaseURL: "https://api.example/v1", Timeout: time.Second},
		Log:     config.LogConfig{Level: "debug"},
	}
	require.NoError(t, cfg.Validate())
}
