package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const exampleHeader = `# lansend Configuration File
#
# This file was generated by "lansend init". Every value shown is the
# default; delete what you do not change. Any setting can also be supplied
# through the environment with the LANSEND_ prefix, for example
# LANSEND_WEB_PORT=8080.

`

// InitConfig writes a commented example configuration to the default
// location and returns its path. Refuses to overwrite an existing file
// unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	var cfg Config
	ApplyDefaults(&cfg)

	body, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("render example config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(exampleHeader), body...), 0644); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}
	return path, nil
}
