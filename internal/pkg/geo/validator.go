package geo

import "fmt"

const (
	DefaultMaxDistanceMeters      = 2.0
	DefaultAdvisoryDistanceMeters = 50.0
)

// Site is a reference point employees must be near when checking in.
//
// MaxDistanceMeters is the hard limit applied to automatic check-ins.
// AdvisoryDistanceMeters only feeds the "correct location" status shown in
// employee summaries.
type Site struct {
	Name                   string  `yaml:"name"`
	Latitude               float64 `yaml:"latitude"`
	Longitude              float64 `yaml:"longitude"`
	MaxDistanceMeters      float64 `yaml:"max_distance_meters"`
	AdvisoryDistanceMeters float64 `yaml:"advisory_distance_meters"`
}

func (s Site) Validate() error {
	if err := ValidateCoordinate(s.Latitude, s.Longitude); err != nil {
		return fmt.Errorf("site %q: %w", s.Name, err)
	}
	if s.MaxDistanceMeters <= 0 {
		return fmt.Errorf("site %q: max distance must be positive", s.Name)
	}
	if s.AdvisoryDistanceMeters <= 0 {
		return fmt.Errorf("site %q: advisory distance must be positive", s.Name)
	}
	return nil
}

// Fix is the outcome of locating a reported coordinate against the configured sites.
type Fix struct {
	Site     Site
	Distance float64
	Accepted bool
	Advisory bool
}

type Validator struct {
	sites []Site
}

func NewValidator(sites ...Site) (*Validator, error) {
	if len(sites) == 0 {
		return nil, ErrNoSites
	}
	for i := range sites {
		if sites[i].MaxDistanceMeters == 0 {
			sites[i].MaxDistanceMeters = DefaultMaxDistanceMeters
		}
		if sites[i].AdvisoryDistanceMeters == 0 {
			sites[i].AdvisoryDistanceMeters = DefaultAdvisoryDistanceMeters
		}
		if err := sites[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &Validator{sites: sites}, nil
}

func (v *Validator) Sites() []Site {
	out := make([]Site, len(v.sites))
	copy(out, v.sites)
	return out
}

// Locate measures the coordinate against the nearest site. Ties go to the
// site listed first.
func (v *Validator) Locate(lat, lon float64) Fix {
	var best Fix
	for i, site := range v.sites {
		d := Distance(site.Latitude, site.Longitude, lat, lon)
		if i == 0 || d < best.Distance {
			best = Fix{Site: site, Distance: d}
		}
	}
	best.Accepted = WithinRange(best.Distance, best.Site.MaxDistanceMeters)
	best.Advisory = WithinRange(best.Distance, best.Site.AdvisoryDistanceMeters)
	return best
}
