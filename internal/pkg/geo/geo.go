package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const earthRadiusMeters = 6371000

var (
	ErrInvalidCoordinate = errors.New("coordinate is not a decimal number")
	ErrOutOfRange        = errors.New("coordinate is out of range")
	ErrNoSites           = errors.New("no reference site configured")
)

// Distance returns the great-circle distance in meters between two points
// given in decimal degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)

	// The cosine product is grouped so swapping the points cannot change rounding.
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*(math.Cos(lat1Rad)*math.Cos(lat2Rad))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinRange reports whether distance is inside threshold (inclusive).
func WithinRange(distance, threshold float64) bool {
	return distance <= threshold
}

// ValidateCoordinate rejects latitudes outside ±90 and longitudes outside ±180.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrOutOfRange
	}
	return nil
}

// ParseCoordinate parses a latitude/longitude pair sent as text and checks its range.
func ParseCoordinate(latText, lonText string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return 0, 0, ErrInvalidCoordinate
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		return 0, 0, ErrInvalidCoordinate
	}
	if err := ValidateCoordinate(lat, lon); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
