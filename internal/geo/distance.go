package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// EarthRadiusKm is the mean Earth radius used for great-circle distances
	EarthRadiusKm = 6371.0
	// MilesPerKm converts kilometers to statute miles
	MilesPerKm = 0.621371
)

// Point is a coordinate pair in decimal degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Distance returns the haversine great-circle distance between two points in
// kilometers and miles. Inputs are not range checked.
func Distance(lat1, lon1, lat2, lon2 float64) (km, miles float64) {
	rad := math.Pi / 180.0

	dlat := (lat2 - lat1) * rad
	dlon := (lon2 - lon1) * rad

	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	km = EarthRadiusKm * c
	return km, km * MilesPerKm
}

// Between is Distance for two Points
func Between(from, to Point) (km, miles float64) {
	return Distance(from.Lat, from.Lon, to.Lat, to.Lon)
}

// ParseCoordinate parses a decimal degree string such as "41.714775"
func ParseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid coordinate %q", s)
	}
	return v, nil
}
