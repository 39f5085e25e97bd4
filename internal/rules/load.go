package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a rules override file. Tables omitted from the file keep
// their defaults; a table present in the file replaces the default one
// entirely. An empty path returns Default().
func Load(filePath string) (*Rules, error) {
	if filePath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a rules document on top of the defaults.
func Parse(data []byte) (*Rules, error) {
	r := Default()
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to parse rules yaml: %w", err)
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rules) compile() error {
	for i := range r.Addresses {
		if err := r.Addresses[i].compile(); err != nil {
			return fmt.Errorf("address pattern %d (%q): %w", i, r.Addresses[i].Pattern, err)
		}
		if r.Addresses[i].Source != SourceInfo && r.Addresses[i].Source != SourceList {
			return fmt.Errorf("address pattern %d: unknown source %q", i, r.Addresses[i].Source)
		}
	}
	return nil
}
