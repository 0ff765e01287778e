// Package geometry loads walkable input geometry and flattens built meshes
// into render buffers.
package geometry

import (
	"fmt"
	"math"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

// Raw copies caller provided buffers into a validated geometry.
func Raw(vertices []float32, faces []int) (navigation.Geometry, error) {
	g := navigation.Geometry{
		Vertices: append([]float32(nil), vertices...),
		Faces:    append([]int(nil), faces...),
	}
	if err := g.Validate(); err != nil {
		return navigation.Geometry{}, err
	}
	for i, v := range g.Vertices {
		if !physics.IsFinite(v) {
			return navigation.Geometry{}, fmt.Errorf("%w: vertex component %d is not finite", navigation.ErrInvalidInput, i)
		}
	}
	return g, nil
}

// Grid builds a flat rectangular plane of nx by nz square cells starting at
// origin. Every cell is split into two triangles.
func Grid(origin physics.Vec3, cellSize float32, nx, nz int) navigation.Geometry {
	nx, nz = max(nx, 1), max(nz, 1)
	g := navigation.Geometry{
		Vertices: make([]float32, 0, (nx+1)*(nz+1)*3),
		Faces:    make([]int, 0, nx*nz*6),
	}
	for z := 0; z <= nz; z++ {
		for x := 0; x <= nx; x++ {
			g.Vertices = append(g.Vertices,
				origin.X+float32(x)*cellSize,
				origin.Y,
				origin.Z+float32(z)*cellSize,
			)
		}
	}
	row := nx + 1
	for z := 0; z < nz; z++ {
		for x := 0; x < nx; x++ {
			a := z*row + x
			b := a + 1
			c := a + row
			d := c + 1
			g.Faces = append(g.Faces, a, c, b, b, c, d)
		}
	}
	return g
}

// BoundingBox returns bmin followed by bmax.
func BoundingBox(g navigation.Geometry) []float32 {
	bmin, bmax := g.Bounds()
	return []float32{bmin.X, bmin.Y, bmin.Z, bmax.X, bmax.Y, bmax.Z}
}

// HitMesh intersects the segment start-end with the input triangles and
// returns the closest hit point.
func HitMesh(g navigation.Geometry, start, end physics.Vec3) (physics.Vec3, bool) {
	dir := end.Sub(start)
	best := float32(math.MaxFloat32)
	for f := 0; f+2 < len(g.Faces); f += 3 {
		t, ok := segmentTriangle(start, dir, g.Vertex(g.Faces[f]), g.Vertex(g.Faces[f+1]), g.Vertex(g.Faces[f+2]))
		if ok && t < best {
			best = t
		}
	}
	if best > 1 {
		return end, false
	}
	return start.Mad(dir, best), true
}

// segmentTriangle is the Moller-Trumbore test restricted to t in [0, 1].
func segmentTriangle(orig, dir, a, b, c physics.Vec3) (float32, bool) {
	const eps = 1e-7
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if det > -eps && det < eps {
		return 0, false
	}
	inv := 1 / det
	s := orig.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}
