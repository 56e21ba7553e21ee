package graph

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"

	"route_finder/pkg/geo"
)

const (
	magicBytes   = "RTFINDER"
	version      = uint32(1)
	maxKeys      = 10_000_000
	maxNeighbors = 50_000_000
)

// fileHeader is the binary header.
type fileHeader struct {
	Magic        [8]byte
	Version      uint32
	NumKeys      uint32
	NumNeighbors uint32
}

// WriteBinary serializes g to a CRC-protected binary snapshot. Key order and
// neighbor order are preserved.
// Uses unsafe.Slice for fast zero-copy I/O.
func WriteBinary(path string, g *Graph) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	// Flatten into CSR arrays.
	keys := g.Keys()
	numKeys := uint32(len(keys))
	keyLon := make([]float64, numKeys)
	keyLat := make([]float64, numKeys)
	firstOut := make([]uint32, numKeys+1)
	var nbrLon, nbrLat []float64
	for i, k := range keys {
		keyLon[i] = k.Lon
		keyLat[i] = k.Lat
		firstOut[i] = uint32(len(nbrLon))
		for _, n := range g.Neighbors(k) {
			nbrLon = append(nbrLon, n.Lon)
			nbrLat = append(nbrLat, n.Lat)
		}
	}
	firstOut[numKeys] = uint32(len(nbrLon))

	hdr := fileHeader{
		Version:      version,
		NumKeys:      numKeys,
		NumNeighbors: uint32(len(nbrLon)),
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if err := writeFloat64Slice(w, keyLon); err != nil {
		return fmt.Errorf("write KeyLon: %w", err)
	}
	if err := writeFloat64Slice(w, keyLat); err != nil {
		return fmt.Errorf("write KeyLat: %w", err)
	}
	if err := writeUint32Slice(w, firstOut); err != nil {
		return fmt.Errorf("write FirstOut: %w", err)
	}
	if err := writeFloat64Slice(w, nbrLon); err != nil {
		return fmt.Errorf("write NeighborLon: %w", err)
	}
	if err := writeFloat64Slice(w, nbrLat); err != nil {
		return fmt.Errorf("write NeighborLat: %w", err)
	}

	// Write CRC32 trailer.
	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// ReadBinary deserializes a graph snapshot written by WriteBinary.
func ReadBinary(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	crcReader := crc32Reader{r: f, hash: crc32.NewIEEE()}
	r := &crcReader

	// Read and validate header.
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("unsupported version: %d", hdr.Version)
	}
	if hdr.NumKeys > maxKeys {
		return nil, fmt.Errorf("NumKeys %d exceeds limit %d", hdr.NumKeys, maxKeys)
	}
	if hdr.NumNeighbors > maxNeighbors {
		return nil, fmt.Errorf("NumNeighbors %d exceeds limit %d", hdr.NumNeighbors, maxNeighbors)
	}

	keyLon, err := readFloat64Slice(r, int(hdr.NumKeys))
	if err != nil {
		return nil, fmt.Errorf("read KeyLon: %w", err)
	}
	keyLat, err := readFloat64Slice(r, int(hdr.NumKeys))
	if err != nil {
		return nil, fmt.Errorf("read KeyLat: %w", err)
	}
	firstOut, err := readUint32Slice(r, int(hdr.NumKeys+1))
	if err != nil {
		return nil, fmt.Errorf("read FirstOut: %w", err)
	}
	nbrLon, err := readFloat64Slice(r, int(hdr.NumNeighbors))
	if err != nil {
		return nil, fmt.Errorf("read NeighborLon: %w", err)
	}
	nbrLat, err := readFloat64Slice(r, int(hdr.NumNeighbors))
	if err != nil {
		return nil, fmt.Errorf("read NeighborLat: %w", err)
	}

	// Read and validate CRC32.
	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	if err := validateCSR(firstOut, hdr.NumKeys, hdr.NumNeighbors); err != nil {
		return nil, fmt.Errorf("CSR invalid: %w", err)
	}

	g := New()
	for i := uint32(0); i < hdr.NumKeys; i++ {
		key := geo.Coordinate{Lon: keyLon[i], Lat: keyLat[i]}
		if err := key.Validate(); err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		if g.HasKey(key) {
			return nil, fmt.Errorf("duplicate key %v", key)
		}
		nbrs := make([]geo.Coordinate, 0, firstOut[i+1]-firstOut[i])
		for e := firstOut[i]; e < firstOut[i+1]; e++ {
			n := geo.Coordinate{Lon: nbrLon[e], Lat: nbrLat[e]}
			if err := n.Validate(); err != nil {
				return nil, fmt.Errorf("neighbor %d: %w", e, err)
			}
			nbrs = append(nbrs, n)
		}
		g.SetNeighbors(key, nbrs...)
	}

	return g, nil
}

// validateCSR checks CSR invariants.
func validateCSR(firstOut []uint32, numKeys, numNeighbors uint32) error {
	if uint32(len(firstOut)) != numKeys+1 {
		return fmt.Errorf("FirstOut length %d != NumKeys+1 %d", len(firstOut), numKeys+1)
	}
	if firstOut[0] != 0 {
		return fmt.Errorf("FirstOut[0]=%d, want 0", firstOut[0])
	}
	for i := uint32(1); i <= numKeys; i++ {
		if firstOut[i] < firstOut[i-1] {
			return fmt.Errorf("FirstOut not monotonic at %d: %d < %d", i, firstOut[i], firstOut[i-1])
		}
	}
	if firstOut[numKeys] != numNeighbors {
		return fmt.Errorf("FirstOut[NumKeys]=%d != NumNeighbors %d", firstOut[numKeys], numNeighbors)
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]float64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
