package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/precip-chart/internal/domain"
)

type locationsFile struct {
	Locations []domain.Location `yaml:"locations"`
}

// LoadLocations reads a YAML location list. Entries without a file name
// default to "<code>.csv". Codes must be unique.
func LoadLocations(path string) ([]domain.Location, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}

	var f locationsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse locations file: %w", err)
	}

	seen := make(map[string]bool, len(f.Locations))
	for i := range f.Locations {
		loc := &f.Locations[i]
		if loc.Code == "" {
			return nil, fmt.Errorf("locations file: entry %d has no code", i)
		}
		if seen[loc.Code] {
			return nil, fmt.Errorf("locations file: duplicate code %q", loc.Code)
		}
		seen[loc.Code] = true
		if loc.File == "" {
			loc.File = loc.Code + ".csv"
		}
	}
	return f.Locations, nil
}
