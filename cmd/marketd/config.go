package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/iov-one/nftmarket/errors"
	"github.com/spf13/viper"
)

// Config holds the server settings. Values are taken, in order of
// precedence, from explicitly set flags, MARKETD_* environment variables,
// the optional configuration file and the defaults.
type Config struct {
	HTTP     string `mapstructure:"http"`
	Home     string `mapstructure:"home"`
	Genesis  string `mapstructure:"genesis"`
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`
}

var configKeys = map[string]bool{
	"http":      true,
	"home":      true,
	"genesis":   true,
	"log_level": true,
	"debug":     true,
}

func defaultHome() string {
	return filepath.Join(os.Getenv("HOME"), ".marketd")
}

// loadConfig resolves the configuration. configFile may be empty. Only flags
// that were set on the command line override the other sources.
func loadConfig(fl *flag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault("http", ":8000")
	v.SetDefault("home", defaultHome())
	v.SetDefault("genesis", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("debug", false)

	v.SetEnvPrefix("MARKETD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "config file %q: %s", configFile, err)
		}
	}

	fl.Visit(func(f *flag.Flag) {
		key := strings.Replace(f.Name, "-", "_", -1)
		if !configKeys[key] {
			return
		}
		if g, ok := f.Value.(flag.Getter); ok {
			v.Set(key, g.Get())
		} else {
			v.Set(key, f.Value.String())
		}
	})

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "config: %s", err)
	}
	if c.Home == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "home directory")
	}
	if c.Genesis == "" {
		c.Genesis = filepath.Join(c.Home, "genesis.json")
	}
	return &c, nil
}
