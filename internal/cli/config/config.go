package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/oapi-codegen/slimtypes/codegen"
)

// FileName is the config file looked up in the working directory when no
// explicit path is given.
const FileName = "slimtypes"

// EnvPrefix prefixes environment overrides, e.g. SLIMTYPES_GENERATE_TARGET.
const EnvPrefix = "SLIMTYPES"

// Config represents the slimtypes configuration
type Config struct {
	Input    string                  `yaml:"input"`
	Filter   string                  `yaml:"filter"`
	Output   string                  `yaml:"output"`
	Verbose  bool                    `yaml:"verbose"`
	Document codegen.DocumentOptions `yaml:"document"`
	Generate codegen.Configuration   `yaml:"generate"`
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"input":          "input",
	"filter":         "filter",
	"output":         "output",
	"verbose":        "verbose",
	"overlay":        "document.overlay",
	"overlay-strict": "document.overlay-strict",
	"validate":       "document.validate",
	"package":        "generate.package",
	"target":         "generate.target",
}

// Load reads configuration from, in increasing precedence: the config file
// (path, or slimtypes.yaml in the working directory), SLIMTYPES_*
// environment variables, and flags that were set explicitly.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("generate.target", codegen.TargetGo)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Input == "" {
		return errors.New("no input document given")
	}
	switch cfg.Generate.Target {
	case codegen.TargetGo, codegen.TargetRust:
	default:
		return fmt.Errorf("unknown target %q, expected %q or %q", cfg.Generate.Target, codegen.TargetGo, codegen.TargetRust)
	}
	return nil
}
