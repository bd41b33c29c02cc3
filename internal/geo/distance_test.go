package geo

import (
	"math"
	"testing"
)

var samplePoints = []Point{
	{Lat: 41.714775, Lon: -72.727260}, // W1AW, Newington CT
	{Lat: 47.606209, Lon: -122.332071},
	{Lat: -33.868820, Lon: 151.209296},
	{Lat: 64.837778, Lon: -147.716389},
	{Lat: 0, Lon: 0},
	{Lat: -90, Lon: 180},
}

func TestDistanceIsSymmetric(t *testing.T) {
	for _, a := range samplePoints {
		for _, b := range samplePoints {
			kmAB, miAB := Between(a, b)
			kmBA, miBA := Between(b, a)
			if math.Abs(kmAB-kmBA) > 1e-9 || math.Abs(miAB-miBA) > 1e-9 {
				t.Errorf("distance(%v,%v)=%f km but distance(%v,%v)=%f km", a, b, kmAB, b, a, kmBA)
			}
		}
	}
}

func TestDistanceToSelfIsZero(t *testing.T) {
	for _, p := range samplePoints {
		km, miles := Between(p, p)
		if math.Abs(km) > 1e-9 || math.Abs(miles) > 1e-9 {
			t.Errorf("distance(%v,%v) = (%f, %f), want (0, 0)", p, p, km, miles)
		}
	}
}

func TestMilesMatchKilometers(t *testing.T) {
	for _, a := range samplePoints {
		for _, b := range samplePoints {
			km, miles := Between(a, b)
			if math.Abs(miles-km*0.621371) > 1e-9 {
				t.Errorf("miles %f does not match km %f", miles, km)
			}
		}
	}
}

func TestDistanceKnownValues(t *testing.T) {
	tests := []struct {
		name   string
		from   Point
		to     Point
		wantKm float64
	}{
		{"quarter of the equator", Point{0, 0}, Point{0, 90}, EarthRadiusKm * math.Pi / 2},
		{"antipodes on the equator", Point{0, 0}, Point{0, 180}, EarthRadiusKm * math.Pi},
		{"pole to pole", Point{90, 0}, Point{-90, 0}, EarthRadiusKm * math.Pi},
		{"one degree of latitude", Point{10, 20}, Point{11, 20}, EarthRadiusKm * math.Pi / 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			km, _ := Between(tt.from, tt.to)
			if math.Abs(km-tt.wantKm) > 1e-6 {
				t.Errorf("got %f km, want %f km", km, tt.wantKm)
			}
		})
	}
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"41.714775", 41.714775, false},
		{"-72.727260", -72.72726, false},
		{" 12.5 ", 12.5, false},
		{"", 0, true},
		{"north", 0, true},
		{"NaN", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseCoordinate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCoordinate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseCoordinate(%q) = %f, want %f", tt.in, got, tt.want)
		}
	}
}
