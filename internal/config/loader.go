package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath returns the location of the per-user defaults file,
// $XDG_CONFIG_HOME/mesa/config.yaml or ~/.config/mesa/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mesa", "config.yaml")
}

// Load returns Default() overlaid with the yaml file at path. An empty path
// means DefaultPath(), which is allowed to be missing; an explicit path is not.
func Load(path string) (Run, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, &Error{Param: "config", Err: fmt.Errorf("reading %s: %w", path, err)}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), &Error{Param: "config", Err: fmt.Errorf("parsing %s: %w", path, err)}
	}
	return cfg, nil
}
