package globe

import "github.com/paulmach/orb"

// VertexBuffer is a flat vertex array with one index per vertex, ready for
// upload as a line-loop or triangle-fan source.
type VertexBuffer struct {
	// Components is 2 for (u, v) and 3 for (u, v, 0).
	Components int
	Vertices   []float32
	Indices    []uint32

	// Offsets[k] is the first vertex of ring k. Counts[k] is its length.
	Offsets []uint32
	Counts  []uint32
}

// VertexCount returns the number of vertices in the buffer.
func (b VertexBuffer) VertexCount() int {
	if b.Components == 0 {
		return 0
	}
	return len(b.Vertices) / b.Components
}

// Flatten2D packs rings as consecutive (u, v) pairs.
func Flatten2D(rings []orb.Ring) VertexBuffer {
	return flatten(rings, 2)
}

// Flatten3D packs rings as consecutive (u, v, 0) triples.
func Flatten3D(rings []orb.Ring) VertexBuffer {
	return flatten(rings, 3)
}

func flatten(rings []orb.Ring, components int) VertexBuffer {
	total := 0
	for _, r := range rings {
		total += len(r)
	}

	b := VertexBuffer{
		Components: components,
		Vertices:   make([]float32, 0, total*components),
		Indices:    make([]uint32, 0, total),
		Offsets:    make([]uint32, 0, len(rings)),
		Counts:     make([]uint32, 0, len(rings)),
	}

	var next uint32
	for _, r := range rings {
		b.Offsets = append(b.Offsets, next)
		b.Counts = append(b.Counts, uint32(len(r)))
		for _, pt := range r {
			b.Vertices = append(b.Vertices, float32(pt[0]), float32(pt[1]))
			if components == 3 {
				b.Vertices = append(b.Vertices, 0)
			}
			b.Indices = append(b.Indices, next)
			next++
		}
	}
	return b
}
