package config

import (
	"fmt"
	"os"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/geo"
	"gopkg.in/yaml.v3"
)

type sitesFile struct {
	Sites []geo.Site `yaml:"sites"`
}

// LoadSites reads the site list from a YAML file. Thresholds left out take
// the geo package defaults.
func LoadSites(path string) ([]geo.Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}

	var file sitesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sites file: %w", err)
	}
	if len(file.Sites) == 0 {
		return nil, fmt.Errorf("sites file %s lists no sites", path)
	}

	for i := range file.Sites {
		if file.Sites[i].MaxDistanceMeters == 0 {
			file.Sites[i].MaxDistanceMeters = geo.DefaultMaxDistanceMeters
		}
		if file.Sites[i].AdvisoryDistanceMeters == 0 {
			file.Sites[i].AdvisoryDistanceMeters = geo.DefaultAdvisoryDistanceMeters
		}
	}
	return file.Sites, nil
}
