package geometry_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/crowdnav/internal/core/geometry"
	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/navigation/reference"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

func TestRaw(t *testing.T) {
	verts := []float32{0, 0, 0, 1, 0, 0, 0, 0, 1}
	g, err := geometry.Raw(verts, []int{0, 2, 1})
	require.NoError(t, err)
	verts[0] = 42
	assert.Equal(t, float32(0), g.Vertices[0], "raw must copy its input")

	tests := []struct {
		name  string
		verts []float32
		faces []int
	}{
		{"too few vertices", []float32{0, 0, 0, 1, 0, 0}, []int{0, 1, 0}},
		{"ragged vertices", []float32{0, 0, 0, 1, 0, 0, 0, 0, 1, 5}, []int{0, 1, 2}},
		{"face out of range", []float32{0, 0, 0, 1, 0, 0, 0, 0, 1}, []int{0, 1, 3}},
		{"ragged faces", []float32{0, 0, 0, 1, 0, 0, 0, 0, 1}, []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := geometry.Raw(tt.verts, tt.faces)
			assert.ErrorIs(t, err, navigation.ErrInvalidInput)
		})
	}
}

func TestLoadOBJ(t *testing.T) {
	src := `# quad with normals
v 0 0 0
v 2 0 0
v 2 0 2
v 0 0 2
vn 0 1 0
f 1//1 4//1 3//1 2//1
f -4 -3 -2
`
	g, err := geometry.LoadOBJ(strings.NewReader(src))
	require.NoError(t, err)
	assert.Len(t, g.Vertices, 12)
	assert.Equal(t, []int{0, 3, 2, 0, 2, 1, 0, 1, 2}, g.Faces)
	assert.Equal(t, []float32{0, 0, 0, 2, 0, 2}, geometry.BoundingBox(g))
}

func TestLoadOBJ_Errors(t *testing.T) {
	for name, src := range map[string]string{
		"short vertex": "v 1 2\n",
		"bad number":   "v 1 x 2\n",
		"zero index":   "v 0 0 0\nv 1 0 0\nv 0 0 1\nf 0 1 2\n",
		"no faces":     "v 0 0 0\nv 1 0 0\nv 0 0 1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := geometry.LoadOBJ(strings.NewReader(src))
			assert.ErrorIs(t, err, navigation.ErrInvalidInput)
		})
	}
}

func TestLoadOBJFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 0 1\nf 1 3 2\n"), 0o644))

	g, err := geometry.LoadOBJFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 1}, g.Faces)

	_, err = geometry.LoadOBJFile(filepath.Join(t.TempDir(), "missing.obj"))
	assert.Error(t, err)
}

func TestGrid(t *testing.T) {
	g := geometry.Grid(physics.V3(-1, 2, -1), 0.5, 4, 2)
	assert.Len(t, g.Vertices, 5*3*3)
	assert.Len(t, g.Faces, 4*2*6)
	require.NoError(t, g.Validate())
	assert.Equal(t, []float32{-1, 2, -1, 1, 2, 0}, geometry.BoundingBox(g))
}

func TestHitMesh(t *testing.T) {
	g := geometry.Grid(physics.Vec3{}, 1, 4, 4)

	pt, ok := geometry.HitMesh(g, physics.V3(1.5, 5, 1.5), physics.V3(1.5, -5, 1.5))
	require.True(t, ok)
	assert.InDelta(t, 0, pt.Y, 1e-5)
	assert.InDelta(t, 1.5, pt.X, 1e-5)

	end := physics.V3(9, -5, 9)
	pt, ok = geometry.HitMesh(g, physics.V3(9, 5, 9), end)
	assert.False(t, ok)
	assert.Equal(t, end, pt)
}

func TestExport(t *testing.T) {
	mesh, err := reference.New(nil).Build(navigation.BuildInput{
		Geometry: geometry.Grid(physics.Vec3{}, 1, 3, 3),
		Settings: navigation.DefaultBuildSettings(),
	})
	require.NoError(t, err)
	polys := mesh.Polygons()

	verts, tris := geometry.Triangulation(mesh)
	assert.Len(t, verts, len(mesh.Vertices())*3)
	wantTris := 0
	for _, p := range polys {
		wantTris += len(p.Verts) - 2
	}
	assert.Len(t, tris, wantTris*3)
	for _, i := range tris {
		assert.Less(t, i, len(verts)/3)
	}

	pverts, indices, sizes := geometry.Polygonization(mesh)
	assert.Equal(t, verts, pverts)
	require.Len(t, sizes, len(polys))
	total := 0
	for i, s := range sizes {
		assert.Equal(t, len(polys[i].Verts), s)
		total += s
	}
	assert.Len(t, indices, total)
}

func TestWriteOBJ(t *testing.T) {
	verts := []float32{0, 0, 0, 2, 0, 0, 2, 0, 2, 0, 0, 2}

	var buf strings.Builder
	require.NoError(t, geometry.WriteOBJ(&buf, verts, []int{0, 3, 2, 1}, []int{4}))
	assert.Equal(t, "v 0 0 0\nv 2 0 0\nv 2 0 2\nv 0 0 2\nf 1 4 3 2\n", buf.String())

	g, err := geometry.LoadOBJ(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, verts, g.Vertices)
	assert.Equal(t, []int{0, 3, 2, 0, 2, 1}, g.Faces)

	buf.Reset()
	require.NoError(t, geometry.WriteOBJ(&buf, verts, []int{0, 1, 2}, nil))
	assert.True(t, strings.HasSuffix(buf.String(), "f 1 2 3\n"))

	assert.Error(t, geometry.WriteOBJ(&buf, verts[:4], nil, nil))
	assert.Error(t, geometry.WriteOBJ(&buf, verts, []int{0, 1}, nil))
	assert.Error(t, geometry.WriteOBJ(&buf, verts, []int{0, 1, 2}, []int{4}))
}
