package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, ":50051", c.GRPCAddr)
	assert.Equal(t, StoragePostgres, c.Storage)
	assert.Equal(t, 7*24*time.Hour, c.TokenTTL)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, 15*time.Minute, c.S3PresignTTL)
	assert.Empty(t, c.SecretKey)
}

func TestLoad_RequiresSecretKey(t *testing.T) {
	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret_key must be set")
}

func TestLoad_Flags(t *testing.T) {
	args := []string{
		"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret",
		"-t", "1h", "-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
		"--storage=memory", "--bcrypt-cost", "12", "--db-timeout", "2s", "--log-format", "text",
	}

	got, err := Load(args)
	require.NoError(t, err)

	want := Default()
	want.GRPCAddr = "127.0.0.1:9090"
	want.DatabaseDSN = "db"
	want.SecretKey = "secret"
	want.TokenTTL = time.Hour
	want.S3AccessKey = "user"
	want.S3SecretKey = "password"
	want.S3Bucket = "bucket"
	want.S3Region = "us-west-1"
	want.S3BaseEndpoint = "http://endpoint"
	want.Storage = StorageMemory
	want.BcryptCost = 12
	want.DBTimeout = 2 * time.Second
	want.LogFormat = "text"

	assert.Empty(t, cmp.Diff(&want, got))
}

func TestLoad_Layering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conduit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
grpc_addr: ":6000"
secret_key: from-file
token_ttl: 48h
storage: memory
log_level: debug
`), 0o600))

	t.Setenv("CONDUIT_SECRET_KEY", "from-env")
	t.Setenv("CONDUIT_TOKEN_TTL", "24h")

	got, err := Load([]string{"-c", path, "--token-ttl", "30m"})
	require.NoError(t, err)

	// file over defaults
	assert.Equal(t, ":6000", got.GRPCAddr)
	assert.Equal(t, StorageMemory, got.Storage)
	assert.Equal(t, "debug", got.LogLevel)
	// env over file
	assert.Equal(t, "from-env", got.SecretKey)
	// explicit flag over env
	assert.Equal(t, 30*time.Minute, got.TokenTTL)
	// untouched defaults survive
	assert.Equal(t, 10, got.BcryptCost)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "nope.yaml"), "-s", "k"})
	require.Error(t, err)
}

func TestLoad_UnknownFlag(t *testing.T) {
	_, err := Load([]string{"--no-such-flag"})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "memory needs no dsn", mutate: func(c *Config) { c.Storage = StorageMemory; c.DatabaseDSN = "" }},
		{name: "postgres needs dsn", mutate: func(c *Config) { c.DatabaseDSN = "" }, wantErr: "database_dsn"},
		{name: "bad storage", mutate: func(c *Config) { c.Storage = "redis" }, wantErr: "storage must be"},
		{name: "bad ttl", mutate: func(c *Config) { c.TokenTTL = 0 }, wantErr: "token_ttl"},
		{name: "bad cost", mutate: func(c *Config) { c.BcryptCost = 40 }, wantErr: "bcrypt_cost"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "log_format"},
		{name: "negative db timeout", mutate: func(c *Config) { c.DBTimeout = -time.Second }, wantErr: "db_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.SecretKey = "k"
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
