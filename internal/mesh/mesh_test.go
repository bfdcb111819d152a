package mesh

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/paulmach/orb"

	"github.com/Faultbox/globewarp/internal/camera"
	"github.com/Faultbox/globewarp/internal/globe"
)

func sampleMesh(t *testing.T) Mesh {
	t.Helper()
	cam, err := camera.New(camera.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("camera.New: %v", err)
	}
	rings := []orb.Ring{
		{{10, 20}, {30, 20}, {30, 40}, {10, 20}},
		{{50, 50}, {60, 50}, {60, 60}, {55, 65}, {50, 50}},
	}
	return Mesh{
		View:       cam.ViewMatrix(),
		Projection: cam.ProjectionMatrix(),
		Buffer:     globe.Flatten3D(rings),
	}
}

func TestEncodeDecode(t *testing.T) {
	want := sampleMesh(t)

	var buf bytes.Buffer
	if err := Encode(&buf, want); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte(Magic)) {
		t.Fatalf("encoded data starts with %q, want %q", buf.Bytes()[:4], Magic)
	}

	// header + two matrices + 9 vertices of 3 floats + 9 indices + 2 rings
	wantSize := 20 + 2*64 + 9*3*4 + 9*4 + 2*2*4
	if buf.Len() != wantSize {
		t.Errorf("encoded size = %d, want %d", buf.Len(), wantSize)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode = %+v, want %+v", got, want)
	}
}

func TestEncodeGzip(t *testing.T) {
	want := sampleMesh(t)

	var buf bytes.Buffer
	if err := EncodeGzip(&buf, want); err != nil {
		t.Fatalf("EncodeGzip: %v", err)
	}
	if b := buf.Bytes(); b[0] != 0x1f || b[1] != 0x8b {
		t.Fatalf("compressed stream starts with %x, want gzip magic", b[:2])
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Error("gzip round trip changed the mesh")
	}
}

func TestEncodeEmptyBuffer(t *testing.T) {
	m := Mesh{Buffer: globe.Flatten2D(nil)}

	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Buffer.Components != 2 || got.Buffer.VertexCount() != 0 {
		t.Errorf("decoded buffer = %+v, want empty 2-component buffer", got.Buffer)
	}
}

func TestEncodeRejectsBadBuffer(t *testing.T) {
	tests := []struct {
		name string
		buf  globe.VertexBuffer
	}{
		{"no components", globe.VertexBuffer{}},
		{"ragged vertices", globe.VertexBuffer{Components: 3, Vertices: []float32{1, 2}}},
		{"ring mismatch", globe.VertexBuffer{Components: 2, Offsets: []uint32{0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Encode(&bytes.Buffer{}, Mesh{Buffer: tt.buf}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	var valid bytes.Buffer
	if err := Encode(&valid, sampleMesh(t)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	data := valid.Bytes()

	badMagic := append([]byte("NOPE"), data[4:]...)
	badVersion := append([]byte(nil), data...)
	badVersion[4] = 99
	badComponents := append([]byte(nil), data...)
	badComponents[6] = 7

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", badMagic},
		{"bad version", badVersion},
		{"bad components", badComponents},
		{"truncated header", data[:10]},
		{"truncated body", data[:len(data)-3]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(bytes.NewReader(tt.data)); !errors.Is(err, ErrFormat) {
				t.Errorf("Decode error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestWriteReadFile(t *testing.T) {
	want := sampleMesh(t)
	dir := t.TempDir()

	for _, compress := range []bool{false, true} {
		path := filepath.Join(dir, "globe.mesh")
		if err := WriteFile(path, want, compress); err != nil {
			t.Fatalf("WriteFile(compress=%v): %v", compress, err)
		}
		got, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(compress=%v): %v", compress, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("file round trip (compress=%v) changed the mesh", compress)
		}
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.mesh")); err == nil {
		t.Error("expected error for missing file")
	}
}
