// Package config resolves daemon settings from flags, CRAPSD_* environment
// variables and an optional <home>/config/app.toml, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "CRAPSD"

const (
	FlagHome      = "home"
	FlagAddr      = "addr"
	FlagTransport = "transport"
	FlagDBBackend = "db-backend"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
)

type Config struct {
	Home      string `mapstructure:"home"`
	Addr      string `mapstructure:"addr"`
	Transport string `mapstructure:"transport"`
	DBBackend string `mapstructure:"db-backend"`
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`
}

func DefaultConfig() Config {
	return Config{
		Home:      ".crapsd",
		Addr:      "tcp://127.0.0.1:26658",
		Transport: "socket",
		DBBackend: string(dbm.GoLevelDBBackend),
		LogLevel:  "info",
		LogFormat: "plain",
	}
}

// AddFlags registers the daemon flags with their defaults.
func AddFlags(flags *pflag.FlagSet) {
	d := DefaultConfig()
	flags.String(FlagHome, d.Home, "app home directory (state is stored under <home>/data)")
	flags.String(FlagAddr, d.Addr, "ABCI listen address")
	flags.String(FlagTransport, d.Transport, "ABCI transport (socket|grpc)")
	flags.String(FlagDBBackend, d.DBBackend, "state database backend (goleveldb|memdb)")
	flags.String(FlagLogLevel, d.LogLevel, "log level (trace|debug|info|warn|error)")
	flags.String(FlagLogFormat, d.LogFormat, "log format (plain|json)")
}

// Load merges defaults, the optional config file, environment and flags.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault(FlagHome, d.Home)
	v.SetDefault(FlagAddr, d.Addr)
	v.SetDefault(FlagTransport, d.Transport)
	v.SetDefault(FlagDBBackend, d.DBBackend)
	v.SetDefault(FlagLogLevel, d.LogLevel)
	v.SetDefault(FlagLogFormat, d.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetConfigFile(filepath.Join(v.GetString(FlagHome), "config", "app.toml"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Transport {
	case "socket", "grpc":
	default:
		return fmt.Errorf("unsupported transport %q", c.Transport)
	}
	switch dbm.BackendType(c.DBBackend) {
	case dbm.GoLevelDBBackend, dbm.MemDBBackend:
	default:
		return fmt.Errorf("unsupported db backend %q", c.DBBackend)
	}
	switch c.LogFormat {
	case "plain", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	if c.Home == "" {
		return fmt.Errorf("home must be set")
	}
	return nil
}

func (c Config) Backend() dbm.BackendType {
	return dbm.BackendType(c.DBBackend)
}
