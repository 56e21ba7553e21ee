// Package export writes computed routes as map overlay files.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"route_finder/pkg/geo"
)

// FeatureName is the name given to the exported line feature.
const FeatureName = "Shortest Path"

const kmlNamespace = "http://www.opengis.net/kml/2.2"

// Format is an overlay file format.
type Format string

const (
	FormatKML     Format = "kml"
	FormatGeoJSON Format = "geojson"
)

// ParseFormat parses a format name. The empty string selects KML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "kml":
		return FormatKML, nil
	case "geojson", "json":
		return FormatGeoJSON, nil
	default:
		return "", fmt.Errorf("unknown overlay format %q", s)
	}
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	if f == FormatGeoJSON {
		return ".geojson"
	}
	return ".kml"
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatGeoJSON {
		return "application/geo+json"
	}
	return "application/vnd.google-earth.kml+xml"
}

// EncodeKML writes route as a KML document holding a single line placemark.
// Coordinates are written as "lon,lat,0" tuples. An empty route produces a
// placemark with no coordinates.
func EncodeKML(w io.Writer, route []geo.Coordinate) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	kml := doc.CreateElement("kml")
	kml.CreateAttr("xmlns", kmlNamespace)
	placemark := kml.CreateElement("Document").CreateElement("Placemark")
	placemark.CreateElement("name").SetText(FeatureName)
	line := placemark.CreateElement("LineString")
	line.CreateElement("tessellate").SetText("1")

	tuples := make([]string, len(route))
	for i, c := range route {
		tuples[i] = strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," +
			strconv.FormatFloat(c.Lat, 'f', -1, 64) + ",0"
	}
	line.CreateElement("coordinates").SetText(strings.Join(tuples, " "))

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

// EncodeGeoJSON writes route as a FeatureCollection with one LineString
// feature.
func EncodeGeoJSON(w io.Writer, route []geo.Coordinate) error {
	ls := make(orb.LineString, len(route))
	for i, c := range route {
		ls[i] = c.Point()
	}

	f := geojson.NewFeature(ls)
	f.Properties["name"] = FeatureName

	fc := geojson.NewFeatureCollection()
	fc.Append(f)

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Encode writes route in format f.
func Encode(w io.Writer, f Format, route []geo.Coordinate) error {
	if f == FormatGeoJSON {
		return EncodeGeoJSON(w, route)
	}
	return EncodeKML(w, route)
}

// Exporter writes each route to a new uniquely named file in Dir.
// It is safe for concurrent use.
type Exporter struct {
	Dir    string
	Format Format
	Logger *zap.Logger
}

// New returns an Exporter writing format f files under dir, creating dir if
// needed.
func New(dir string, f Format, logger *zap.Logger) (*Exporter, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create overlay dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{Dir: dir, Format: f, Logger: logger}, nil
}

// Export writes route to a new file and returns its absolute path. Concurrent
// calls never share a file.
func (e *Exporter) Export(route []geo.Coordinate) (string, error) {
	// CreateTemp opens with O_EXCL, so the name is claimed before writing.
	f, err := os.CreateTemp(e.Dir, "shortest_path-*"+e.Format.Ext())
	if err != nil {
		return "", fmt.Errorf("create overlay file: %w", err)
	}
	path := f.Name()

	if err := Encode(f, e.Format, route); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write overlay: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close overlay: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve overlay path: %w", err)
	}

	e.Logger.Debug("overlay written",
		zap.String("path", abs),
		zap.String("format", string(e.Format)),
		zap.Int("points", len(route)))

	return abs, nil
}
