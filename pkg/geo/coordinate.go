// Package geo holds the coordinate type and the great-circle distance metric.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"route_finder/pkg/routeerr"
)

// Coordinate is a (longitude, latitude) pair in degrees. Two coordinates are
// the same graph node only if both components are exactly equal.
type Coordinate struct {
	Lon float64
	Lat float64
}

// Validate reports whether c lies inside [-180,180] x [-90,90].
func (c Coordinate) Validate() error {
	return c.validate("geo.Validate")
}

func (c Coordinate) validate(op string) error {
	// Written so NaN fails both comparisons.
	if !(c.Lon >= -180 && c.Lon <= 180) {
		return routeerr.New(routeerr.ErrInvalidCoordinate, op, "longitude %v outside [-180, 180]", c.Lon)
	}
	if !(c.Lat >= -90 && c.Lat <= 90) {
		return routeerr.New(routeerr.ErrInvalidCoordinate, op, "latitude %v outside [-90, 90]", c.Lat)
	}
	return nil
}

// Point converts c to an orb.Point.
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// FromPoint converts an orb.Point to a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lon: p.Lon(), Lat: p.Lat()}
}

// String formats c as "(lon, lat)" with the shortest exact representation.
func (c Coordinate) String() string {
	return "(" + formatFloat(c.Lon) + ", " + formatFloat(c.Lat) + ")"
}

// Key formats c as "[lon, lat]", the key form used in raw graph files.
func (c Coordinate) Key() string {
	return "[" + formatFloat(c.Lon) + ", " + formatFloat(c.Lat) + "]"
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// ParseCoordinate parses a textual two-number pair. Accepted forms are
// "[lon, lat]", "(lon, lat)" and "lon, lat", each optionally with one
// trailing comma. Numbers are decimal; hex forms and zero-padded integers
// are rejected. Range is not checked.
func ParseCoordinate(s string) (Coordinate, error) {
	body := strings.TrimSpace(s)
	if n := len(body); n >= 2 {
		if (body[0] == '[' && body[n-1] == ']') || (body[0] == '(' && body[n-1] == ')') {
			body = body[1 : n-1]
		}
	}

	parts := strings.Split(body, ",")
	if len(parts) == 3 && strings.TrimSpace(parts[2]) == "" {
		parts = parts[:2]
	}
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: want two comma-separated numbers", s)
	}

	var vals [2]float64
	for i, p := range parts {
		num := strings.TrimSpace(p)
		if !decimalNumber(num) {
			return Coordinate{}, fmt.Errorf("parse coordinate %q: %q is not a decimal number", s, num)
		}
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return Coordinate{}, fmt.Errorf("parse coordinate %q: %w", s, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Coordinate{}, fmt.Errorf("parse coordinate %q: non-finite value", s)
		}
		vals[i] = v
	}

	return Coordinate{Lon: vals[0], Lat: vals[1]}, nil
}

// decimalNumber rejects the ParseFloat inputs that are not plain decimal
// literals: hex mantissas and integers with leading zeros.
func decimalNumber(s string) bool {
	digits := strings.TrimLeft(s, "+-")
	if strings.ContainsAny(digits, "xX") {
		return false
	}
	if len(digits) > 1 && digits[0] == '0' && !strings.ContainsAny(digits, ".eE") {
		return strings.Trim(digits, "0_") == ""
	}
	return true
}
