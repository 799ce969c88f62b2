package config

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/conduit/internal/filex"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CONDUIT_CLIENT_"

const (
	appName    = "conduit"
	configFlag = "config"
)

// Config holds runtime settings for the Conduit CLI.
type Config struct {
	ServerAddr string        `koanf:"server_addr"`
	StateDir   string        `koanf:"state_dir"`
	Timeout    time.Duration `koanf:"timeout"`
}

// Default returns the built-in settings. StateDir falls back to the
// working directory when the user config dir cannot be resolved.
func Default() Config {
	dir, err := filex.DefaultStateDir(appName)
	if err != nil {
		dir = "." + appName
	}
	return Config{
		ServerAddr: "127.0.0.1:50051",
		StateDir:   dir,
		Timeout:    10 * time.Second,
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.ServerAddr == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.StateDir == "" {
		errs = append(errs, errors.New("state dir is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	return errors.Join(errs...)
}

// BindFlags declares the client flags on fs, typically the persistent flag
// set of the root command.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP(configFlag, "c", "", "path to YAML config file")
	fs.StringP("server-addr", "a", d.ServerAddr, "address and port of the Conduit server")
	fs.String("state-dir", d.StateDir, "directory holding the saved session")
	fs.Duration("timeout", d.Timeout, "timeout of a single request")
}

// Load layers file, environment and the flags in fs over the defaults.
// fs must already be parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
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
