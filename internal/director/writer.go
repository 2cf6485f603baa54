package director

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteTimeline writes a timeline to a YAML file
func WriteTimeline(t *Timeline, path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// ReadTimeline reads a timeline from a YAML file
func ReadTimeline(path string) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t Timeline
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse timeline %s: %w", path, err)
	}
	if t.Version != TimelineVersion {
		return nil, fmt.Errorf("timeline %s: unsupported version %q", path, t.Version)
	}

	return &t, nil
}
