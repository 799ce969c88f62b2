package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CONDUIT_"

const configFlag = "config"

// NewFlagSet declares the server flags with defaults taken from Default.
// Flag names use dashes; they map to config keys with underscores.
func NewFlagSet(name string) *pflag.FlagSet {
	d := Default()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	fs.StringP(configFlag, "c", "", "path to YAML config file")
	fs.StringP("grpc-addr", "a", d.GRPCAddr, "address and port to run the gRPC server")
	fs.String("metrics-addr", d.MetricsAddr, "address of the metrics and health endpoint, empty to disable")
	fs.String("storage", d.Storage, "storage backend: postgres or memory")
	fs.StringP("database-dsn", "d", d.DatabaseDSN, "database DSN")
	fs.Duration("db-timeout", d.DBTimeout, "timeout of a single storage call")
	fs.StringP("secret-key", "s", d.SecretKey, "token signing key")
	fs.DurationP("token-ttl", "t", d.TokenTTL, "session token lifetime")
	fs.Int("bcrypt-cost", d.BcryptCost, "bcrypt cost factor")
	fs.String("log-format", d.LogFormat, "log format: json or text")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.StringP("s3-access-key", "u", d.S3AccessKey, "S3 access key")
	fs.StringP("s3-secret-key", "p", d.S3SecretKey, "S3 secret key")
	fs.StringP("s3-bucket", "b", d.S3Bucket, "S3 bucket for avatars")
	fs.StringP("s3-region", "g", d.S3Region, "S3 region")
	fs.StringP("s3-base-endpoint", "e", d.S3BaseEndpoint, "S3 base endpoint")
	fs.Duration("s3-presign-ttl", d.S3PresignTTL, "lifetime of presigned upload URLs")

	return fs
}

// LoadConfig builds the Config from os.Args and the environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load parses args and layers file, environment and flag values over the
// defaults. The result is validated.
func Load(args []string) (*Config, error) {
	fs := NewFlagSet("conduit")
	if err := fs.Parse(args); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "parse flags").Wrap(err)
	}

	k := koanf.New(".")

	if path, _ := fs.GetString(configFlag); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("file", path).Wrap(err)
		}
	}

	envTransformer := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformer), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "load env").Wrap(err)
	}

	flagKey := func(f *pflag.Flag) (string, any) {
		if f.Name == configFlag {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	}
	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "load flags").Wrap(err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	return &cfg, nil
}
