package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsed(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(parsed(t))
	require.NoError(t, err)

	want := Default()
	assert.Empty(t, cmp.Diff(&want, cfg))
	assert.Equal(t, "127.0.0.1:50051", cfg.ServerAddr)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestLoad_Layering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_addr: file:1\nstate_dir: /from/file\ntimeout: 3s\n"), 0o600))

	t.Setenv(EnvPrefix+"STATE_DIR", "/from/env")

	cfg, err := Load(parsed(t, "-c", path, "--timeout", "7s"))
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(&Config{
		ServerAddr: "file:1",
		StateDir:   "/from/env",
		Timeout:    7 * time.Second,
	}, cfg))
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(parsed(t, "--timeout", "0s"))
	require.Error(t, err)

	_, err = Load(parsed(t, "-c", filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := Config{}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server address")
	assert.Contains(t, err.Error(), "state dir")
	assert.Contains(t, err.Error(), "timeout")
}
