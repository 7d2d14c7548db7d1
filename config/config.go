// Package config handles hostjit.toml settings.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/colorfulnotion/hostjit/emulator"
)

const DefaultFile = "hostjit.toml"

// Config represents a hostjit.toml file. Command line flags override it.
type Config struct {
	Run       Run       `toml:"run"`
	Cache     Cache     `toml:"cache"`
	Log       Log       `toml:"log"`
	Telemetry Telemetry `toml:"telemetry"`
}

type Run struct {
	Emulator string `toml:"emulator"` // binary for --non-native, or "builtin"
	Strict   bool   `toml:"strict"`
	Time     bool   `toml:"time"`
	Sandbox  bool   `toml:"sandbox"`
	MaxSteps uint64 `toml:"max-steps"` // builtin emulator and sandbox only
}

type Cache struct {
	Dir string `toml:"dir"` // empty disables the cache
}

type Log struct {
	Level   string `toml:"level"`
	Modules string `toml:"modules"` // "jit,exec" or "all"
}

type Telemetry struct {
	OTLPEndpoint string `toml:"otlp-endpoint"`
}

func Default() *Config {
	return &Config{
		Run: Run{Emulator: emulator.DefaultExternal},
		Log: Log{Level: "warn"},
	}
}

// Load parses path over the defaults. A missing file is an error only when
// required is set.
func Load(path string, required bool) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return c, nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}
	return c, nil
}
