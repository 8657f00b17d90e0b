package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// appName is the application name used for config directories and display.
const appName = "neurotree"

// Config holds the optional file-based defaults for the CLI. Command-line
// flags always take precedence over config file values.
type Config struct {
	// Output is the default output path (to-nml) or directory (to-swc).
	Output string `toml:"output"`
	// CellName is the default cell id override for conversions.
	CellName string `toml:"cell_name"`
	// Verbose enables debug logging without passing --verbose.
	Verbose bool `toml:"verbose"`
}

// LoadConfig reads the TOML config at path. An empty path means the default
// location ($XDG_CONFIG_HOME/neurotree/config.toml); a missing default file
// is not an error, but an explicitly named file must exist.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		dir, err := os.UserConfigDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, appName, "config.toml")
	}

	if _, err := os.Stat(path); err != nil {
		if explicit {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
