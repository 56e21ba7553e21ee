package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"route_finder/pkg/geo"
	"route_finder/pkg/routeerr"
)

// RawEntry is one unparsed adjacency entry: a textual coordinate key and its
// neighbor pairs as they appeared in the input.
type RawEntry struct {
	Key       string
	Neighbors [][]float64
}

// RawGraph is an externally supplied graph whose keys are coordinate text.
// Entries keep their document order.
type RawGraph struct {
	Entries []RawEntry
}

// Add appends an entry.
func (r *RawGraph) Add(key string, neighbors ...[]float64) {
	r.Entries = append(r.Entries, RawEntry{Key: key, Neighbors: neighbors})
}

// DecodeRaw decodes a JSON object of the form {"[lon, lat]": [[lon, lat], ...]}
// keeping key order. Structural problems fail with routeerr.ErrMalformedGraph.
func DecodeRaw(data []byte) (*RawGraph, error) {
	const op = "graph.DecodeRaw"

	if !gjson.ValidBytes(data) {
		return nil, routeerr.New(routeerr.ErrMalformedGraph, op, "invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, routeerr.New(routeerr.ErrMalformedGraph, op, "top level is not an object")
	}

	raw := &RawGraph{}
	var decodeErr error
	doc.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			decodeErr = routeerr.New(routeerr.ErrMalformedGraph, op, "neighbors of %q are not an array", key.String())
			return false
		}
		elems := value.Array()
		neighbors := make([][]float64, 0, len(elems))
		for i, elem := range elems {
			pair, err := decodePair(elem)
			if err != nil {
				decodeErr = routeerr.New(routeerr.ErrMalformedGraph, op, "neighbor %d of %q: %v", i, key.String(), err)
				return false
			}
			neighbors = append(neighbors, pair)
		}
		raw.Entries = append(raw.Entries, RawEntry{Key: key.String(), Neighbors: neighbors})
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}

	return raw, nil
}

func decodePair(elem gjson.Result) ([]float64, error) {
	if !elem.IsArray() {
		return nil, fmt.Errorf("not an array")
	}
	nums := elem.Array()
	pair := make([]float64, len(nums))
	for i, n := range nums {
		if n.Type != gjson.Number {
			return nil, fmt.Errorf("element %d is not a number", i)
		}
		pair[i] = n.Float()
	}
	return pair, nil
}

// MarshalJSON encodes r as a JSON object in entry order.
func (r *RawGraph) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		neighbors := e.Neighbors
		if neighbors == nil {
			neighbors = [][]float64{}
		}
		val, err := json.Marshal(neighbors)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Parse normalizes r into a Graph. A key that is not a two-number pair fails
// with routeerr.ErrMalformedGraph; an out-of-range node fails with
// routeerr.ErrInvalidCoordinate. A nil r is an empty graph.
func Parse(r *RawGraph) (*Graph, error) {
	const op = "graph.Parse"

	g := New()
	if r == nil {
		return g, nil
	}
	for _, e := range r.Entries {
		node, err := geo.ParseCoordinate(e.Key)
		if err != nil {
			return nil, routeerr.New(routeerr.ErrMalformedGraph, op, "%v", err)
		}
		if err := node.Validate(); err != nil {
			return nil, routeerr.New(routeerr.ErrInvalidCoordinate, op, "key %q: %s", e.Key, routeerr.Detail(err))
		}

		neighbors := make([]geo.Coordinate, len(e.Neighbors))
		for i, pair := range e.Neighbors {
			if len(pair) != 2 {
				return nil, routeerr.New(routeerr.ErrMalformedGraph, op,
					"neighbor %d of %q has %d components, want 2", i, e.Key, len(pair))
			}
			n := geo.Coordinate{Lon: pair[0], Lat: pair[1]}
			if err := n.Validate(); err != nil {
				return nil, routeerr.New(routeerr.ErrInvalidCoordinate, op, "neighbor %d of %q: %s", i, e.Key, routeerr.Detail(err))
			}
			neighbors[i] = n
		}
		g.SetNeighbors(node, neighbors...)
	}
	return g, nil
}

// ToRaw converts g back to its raw form with "[lon, lat]" keys.
func ToRaw(g *Graph) *RawGraph {
	raw := &RawGraph{Entries: make([]RawEntry, 0, g.NumKeys())}
	for _, k := range g.Keys() {
		nbrs := g.Neighbors(k)
		pairs := make([][]float64, len(nbrs))
		for i, n := range nbrs {
			pairs[i] = []float64{n.Lon, n.Lat}
		}
		raw.Entries = append(raw.Entries, RawEntry{Key: k.Key(), Neighbors: pairs})
	}
	return raw
}

// ReadRawFile reads and decodes a raw JSON graph file.
func ReadRawFile(path string) (*RawGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	return DecodeRaw(data)
}

// WriteRawFile writes r as JSON to path atomically.
func WriteRawFile(path string, r *RawGraph) error {
	data, err := r.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Load reads a graph file, choosing the binary snapshot format for ".bin"
// files and raw JSON otherwise.
func Load(path string) (*Graph, error) {
	if strings.EqualFold(filepath.Ext(path), ".bin") {
		return ReadBinary(path)
	}
	raw, err := ReadRawFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}
