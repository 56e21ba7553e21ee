package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between a and b.
// It fails with routeerr.ErrInvalidCoordinate if either point is out of range.
func Distance(a, b Coordinate) (float64, error) {
	if err := a.validate("geo.Distance"); err != nil {
		return 0, err
	}
	if err := b.validate("geo.Distance"); err != nil {
		return 0, err
	}
	return Haversine(a, b), nil
}

// Haversine returns the great-circle distance in kilometers between a and b
// without range checks. Callers must pass validated coordinates.
func Haversine(a, b Coordinate) float64 {
	lat1r := a.Lat * math.Pi / 180
	lat2r := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1r)*math.Cos(lat2r)*sinLon*sinLon
	// Rounding can push h a hair above 1 for antipodal points.
	c := 2 * math.Asin(math.Sqrt(math.Min(h, 1)))

	return EarthRadiusKm * c
}
