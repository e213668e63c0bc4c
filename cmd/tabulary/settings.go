package main

import (
	"fmt"
	"strings"

	env "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix scopes the environment variables the CLI reads.
const envPrefix = "TABULARY_"

// Settings are the process-level knobs, distinct from the run settings a
// manifest carries. Values come from defaults, then TABULARY_* environment
// variables, then flags.
type Settings struct {
	// LogLevel is the minimum level written to stderr: debug, info, warn
	// or error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Quiet discards all logging.
	Quiet bool `koanf:"quiet"`

	// Manifest is the registry manifest used when a command is not given
	// one explicitly.
	Manifest string `koanf:"manifest"`

	// Format is the default output format for normalize.
	Format string `koanf:"format"`
}

func defaultSettings() Settings {
	return Settings{
		LogLevel: "info",
		Format:   "csv",
	}
}

// loadSettings resolves Settings from defaults and the environment. Flag
// overrides are applied afterwards by the root command.
func loadSettings() (Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultSettings(), "koanf"), nil); err != nil {
		return Settings{}, fmt.Errorf("loading default settings: %w", err)
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
	}), nil); err != nil {
		return Settings{}, fmt.Errorf("loading environment settings: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return Settings{}, fmt.Errorf("unmarshaling settings: %w", err)
	}
	return s, nil
}

// applyFlagOverrides copies explicitly-set persistent flags over the
// resolved settings. Flags beat the environment, but only when the user
// actually set them.
func applyFlagOverrides(s *Settings, flags *pflag.FlagSet) {
	if flags.Changed("log-level") {
		s.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		s.LogJSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("quiet") {
		s.Quiet, _ = flags.GetBool("quiet")
	}
	if flags.Changed("manifest") {
		s.Manifest, _ = flags.GetString("manifest")
	}
}
