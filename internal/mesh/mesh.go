// Package mesh serializes projected globe geometry together with the camera
// matrices it should be drawn with.
//
// File layout (little-endian):
//
//	header      Magic "GWMH", Version, Flags, Components, reserved,
//	            VertexCount, IndexCount, RingCount
//	view        16 x float32, column-major
//	projection  16 x float32, column-major
//	vertices    VertexCount*Components x float32
//	indices     IndexCount x uint32
//	offsets     RingCount x uint32
//	counts      RingCount x uint32
//
// The whole stream may be gzip-compressed; Decode detects this.
package mesh

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/globewarp/internal/globe"
	"github.com/Faultbox/globewarp/pkg/math"
)

const (
	// Magic identifies a mesh file.
	Magic = "GWMH"
	// Version is the current format version.
	Version = 1
	// MaxElements bounds each array read from a file.
	MaxElements = 1 << 28
)

// ErrFormat is wrapped by decoding failures caused by malformed input.
var ErrFormat = errors.New("invalid mesh file")

// Header is the fixed-size file header.
type Header struct {
	Magic       [4]byte
	Version     uint8
	Flags       uint8
	Components  uint8
	_           uint8
	VertexCount uint32
	IndexCount  uint32
	RingCount   uint32
}

// Mesh is a vertex buffer with its camera matrices.
type Mesh struct {
	View       math.Mat4
	Projection math.Mat4
	Buffer     globe.VertexBuffer
}

// Encode writes m to w uncompressed.
func Encode(w io.Writer, m Mesh) error {
	b := m.Buffer
	if b.Components != 2 && b.Components != 3 {
		return fmt.Errorf("encoding mesh: unsupported component count %d", b.Components)
	}
	if len(b.Vertices)%b.Components != 0 {
		return fmt.Errorf("encoding mesh: %d floats do not split into %d components", len(b.Vertices), b.Components)
	}
	if len(b.Offsets) != len(b.Counts) {
		return fmt.Errorf("encoding mesh: %d ring offsets but %d ring counts", len(b.Offsets), len(b.Counts))
	}

	h := Header{
		Version:     Version,
		Components:  uint8(b.Components),
		VertexCount: uint32(len(b.Vertices) / b.Components),
		IndexCount:  uint32(len(b.Indices)),
		RingCount:   uint32(len(b.Offsets)),
	}
	copy(h.Magic[:], Magic)

	bw := bufio.NewWriter(w)
	for _, v := range []any{h, m.View, m.Projection, b.Vertices, b.Indices, b.Offsets, b.Counts} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("encoding mesh: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encoding mesh: %w", err)
	}
	return nil
}

// EncodeGzip writes m to w gzip-compressed.
func EncodeGzip(w io.Writer, m Mesh) error {
	zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	if err := Encode(zw, m); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing mesh: %w", err)
	}
	return nil
}

// Decode reads a mesh, gzip-compressed or not.
func Decode(r io.Reader) (Mesh, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(2)
	if err != nil {
		return Mesh{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	var src io.Reader = br
	if bytes.Equal(peek, []byte{0x1f, 0x8b}) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return Mesh{}, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		defer zr.Close()
		src = zr
	}
	return decode(src)
}

func decode(r io.Reader) (Mesh, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Mesh{}, fmt.Errorf("%w: reading header: %w", ErrFormat, err)
	}
	if string(h.Magic[:]) != Magic {
		return Mesh{}, fmt.Errorf("%w: bad magic %q", ErrFormat, h.Magic[:])
	}
	if h.Version != Version {
		return Mesh{}, fmt.Errorf("%w: unsupported version %d", ErrFormat, h.Version)
	}
	if h.Components != 2 && h.Components != 3 {
		return Mesh{}, fmt.Errorf("%w: unsupported component count %d", ErrFormat, h.Components)
	}
	floats := uint64(h.VertexCount) * uint64(h.Components)
	if floats > MaxElements || h.IndexCount > MaxElements || h.RingCount > MaxElements {
		return Mesh{}, fmt.Errorf("%w: counts exceed %d elements", ErrFormat, MaxElements)
	}

	m := Mesh{
		Buffer: globe.VertexBuffer{
			Components: int(h.Components),
			Vertices:   make([]float32, floats),
			Indices:    make([]uint32, h.IndexCount),
			Offsets:    make([]uint32, h.RingCount),
			Counts:     make([]uint32, h.RingCount),
		},
	}

	b := &m.Buffer
	for _, section := range []struct {
		name string
		data any
	}{
		{"view matrix", &m.View},
		{"projection matrix", &m.Projection},
		{"vertices", b.Vertices},
		{"indices", b.Indices},
		{"ring offsets", b.Offsets},
		{"ring counts", b.Counts},
	} {
		if err := binary.Read(r, binary.LittleEndian, section.data); err != nil {
			return Mesh{}, fmt.Errorf("%w: reading %s: %w", ErrFormat, section.name, err)
		}
	}
	return m, nil
}

// WriteFile writes m to path, gzip-compressed when compress is set.
func WriteFile(path string, m Mesh, compress bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if compress {
		return EncodeGzip(f, m)
	}
	return Encode(f, m)
}

// ReadFile reads a mesh file.
func ReadFile(path string) (Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mesh{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
