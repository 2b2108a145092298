package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names searched in the working directory.
const (
	ConfigFileName    = "leapstore.yaml"
	ConfigFileNameAlt = "leapstore.yml"
)

// Load loads the engine environment.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// cfgFile may be empty, in which case leapstore.yaml / leapstore.yml is
// searched in the working directory. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Environment, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"driver":    DefaultDriver,
		"log_level": DefaultLogLevel,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		cfgFile = findConfigFile(".")
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment variables (LEAPSTORE_ prefix)
	// Transform: LEAPSTORE_LOG_LEVEL -> log_level, LEAPSTORE_MIGRATIONS__DIR -> migrations.dir
	if err := k.Load(env.Provider("LEAPSTORE_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "LEAPSTORE_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var envCfg Environment
	if err := k.Unmarshal("", &envCfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &envCfg, nil
}

// findConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
