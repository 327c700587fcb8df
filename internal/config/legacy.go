// Package config loads the legacy YAML configuration that predates the
// guided setup flow. Each Twitch platform block found there is fed through
// the import flow at startup.
package config

import (
	"fmt"
	"os"

	"github.com/pysugar/twitch-nexus/internal/flow"
	"gopkg.in/yaml.v3"
)

type legacyFile struct {
	Platforms []flow.ImportData `yaml:"platforms"`
}

// LoadLegacy reads a legacy configuration file and returns its Twitch
// platform blocks. A missing file is not an error; there is simply nothing
// to import.
func LoadLegacy(path string) ([]flow.ImportData, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read legacy config: %w", err)
	}

	var file legacyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse legacy config: %w", err)
	}

	var twitch []flow.ImportData
	for _, p := range file.Platforms {
		if p.Platform == "twitch" {
			twitch = append(twitch, p)
		}
	}
	return twitch, nil
}
