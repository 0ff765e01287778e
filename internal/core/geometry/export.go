package geometry

import (
	"bufio"
	"fmt"
	"io"

	"github.com/zeusync/crowdnav/internal/core/navigation"
)

func flatten(mesh navigation.Mesh) []float32 {
	verts := mesh.Vertices()
	out := make([]float32, 0, len(verts)*3)
	for _, v := range verts {
		out = append(out, v.X, v.Y, v.Z)
	}
	return out
}

// Triangulation returns the mesh vertices and a fan triangulation of every
// polygon, three indices per triangle.
func Triangulation(mesh navigation.Mesh) ([]float32, []int) {
	var tris []int
	for _, p := range mesh.Polygons() {
		for j := 2; j < len(p.Verts); j++ {
			tris = append(tris, p.Verts[0], p.Verts[j-1], p.Verts[j])
		}
	}
	return flatten(mesh), tris
}

// Polygonization returns the mesh vertices, the concatenated polygon indices
// and the vertex count of each polygon.
func Polygonization(mesh navigation.Mesh) ([]float32, []int, []int) {
	polys := mesh.Polygons()
	var indices []int
	sizes := make([]int, 0, len(polys))
	for _, p := range polys {
		indices = append(indices, p.Verts...)
		sizes = append(sizes, len(p.Verts))
	}
	return flatten(mesh), indices, sizes
}

// WriteOBJ writes vertices and faces as Wavefront OBJ. sizes holds the vertex
// count of each face; nil means triangles.
func WriteOBJ(w io.Writer, verts []float32, indices, sizes []int) error {
	if len(verts)%3 != 0 {
		return fmt.Errorf("vertex buffer length %d is not a multiple of 3", len(verts))
	}
	if sizes == nil {
		if len(indices)%3 != 0 {
			return fmt.Errorf("triangle index count %d is not a multiple of 3", len(indices))
		}
		sizes = make([]int, len(indices)/3)
		for i := range sizes {
			sizes[i] = 3
		}
	}

	bw := bufio.NewWriter(w)
	for i := 0; i < len(verts); i += 3 {
		fmt.Fprintf(bw, "v %g %g %g\n", verts[i], verts[i+1], verts[i+2])
	}
	next := 0
	for _, n := range sizes {
		if n < 3 || next+n > len(indices) {
			return fmt.Errorf("face at index %d is out of range", next)
		}
		bw.WriteString("f")
		for _, idx := range indices[next : next+n] {
			fmt.Fprintf(bw, " %d", idx+1)
		}
		bw.WriteString("\n")
		next += n
	}
	return bw.Flush()
}
