// Package config loads the disassembler's configuration: the five
// sections spec.md §6 defines (Database, Disassembler, StringParser,
// General, Debugging), each readable from an INI file, overridden by
// environment variables, and defaulted so a missing file still runs.
package config

import (
	"errors"
	"io/fs"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved, typed view of the configuration table in spec §6.
type Config struct {
	Database struct {
		Host string
		Port int
	}
	Disassembler struct {
		Strategy string
	}
	StringParser struct {
		MinStringLength int
	}
	General struct {
		NumProcs int
	}
	Debugging struct {
		DisableMultiprocessing bool
		DisableParsers         bool
		ProfilerOn             bool
		LogPath                string
	}
}

// Load reads path (an INI file in the layout of spec §6) if it exists,
// applies HAEVN_-prefixed environment overrides, and fills defaults for
// anything left unset. path may be "" to use defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("ini")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 27017)
	v.SetDefault("disassembler.strategy", "recursive")
	v.SetDefault("stringparser.min_string_length", 5)
	v.SetDefault("general.num_procs", runtime.NumCPU())
	v.SetDefault("debugging.disable_multiprocessing", false)
	v.SetDefault("debugging.disable_parsers", false)
	v.SetDefault("debugging.profiler_on", false)
	v.SetDefault("debugging.log_path", "")

	v.SetEnvPrefix("haevn")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	cfg.Database.Host = v.GetString("database.host")
	cfg.Database.Port = v.GetInt("database.port")
	cfg.Disassembler.Strategy = v.GetString("disassembler.strategy")
	cfg.StringParser.MinStringLength = v.GetInt("stringparser.min_string_length")
	cfg.General.NumProcs = v.GetInt("general.num_procs")
	cfg.Debugging.DisableMultiprocessing = v.GetBool("debugging.disable_multiprocessing")
	cfg.Debugging.DisableParsers = v.GetBool("debugging.disable_parsers")
	cfg.Debugging.ProfilerOn = v.GetBool("debugging.profiler_on")
	cfg.Debugging.LogPath = v.GetString("debugging.log_path")

	if cfg.General.NumProcs <= 0 {
		cfg.General.NumProcs = runtime.NumCPU()
	}
	return cfg, nil
}
