package areas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

func square(x float32) []physics.Vec3 {
	return []physics.Vec3{
		physics.V3(x, 0, 0), physics.V3(x+1, 0, 0),
		physics.V3(x+1, 0, 1), physics.V3(x, 0, 1),
	}
}

func TestConvexVolume_Validation(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name  string
		verts []physics.Vec3
	}{
		{"two points", square(0)[:2]},
		{"thirteen points", make([]physics.Vec3, 13)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.AddConvexVolume(tt.verts, 0, 1, navigation.AreaWater)
			assert.ErrorIs(t, err, navigation.ErrInvalidInput)
		})
	}
	assert.Zero(t, r.ConvexVolumeCount())

	require.NoError(t, r.AddConvexVolume(make([]physics.Vec3, 12), 0, 1, navigation.AreaGrass))
	assert.Equal(t, 1, r.ConvexVolumeCount())
}

func TestConvexVolume_IndicesShiftOnDelete(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 3; i++ {
		require.NoError(t, r.AddConvexVolume(square(float32(i)), 0, 1, uint8(i+1)))
	}

	require.NoError(t, r.DeleteConvexVolume(0))
	assert.Equal(t, 2, r.ConvexVolumeCount())
	v, err := r.ConvexVolume(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), v.Area, "later entries move down")

	_, err = r.ConvexVolume(2)
	assert.ErrorIs(t, err, navigation.ErrInvalidInput)
	assert.ErrorIs(t, r.DeleteConvexVolume(-1), navigation.ErrInvalidInput)

	v.Verts[0] = physics.V3(99, 99, 99)
	again, _ := r.ConvexVolume(0)
	assert.NotEqual(t, v.Verts[0], again.Verts[0], "returned volumes are copies")

	all := r.ConvexVolumes()
	require.Len(t, all, 2)
	assert.Equal(t, uint8(3), all[1].Area)
}

func TestMarkHelpers(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.MarkBox(physics.V3(1, 0, 2), physics.V3(3, 2, 5), navigation.AreaRoad))
	box, _ := r.ConvexVolume(0)
	assert.Equal(t, []physics.Vec3{
		physics.V3(1, 0, 2), physics.V3(3, 0, 2), physics.V3(3, 0, 5), physics.V3(1, 0, 5),
	}, box.Verts)
	assert.Equal(t, float32(0), box.HMin)
	assert.Equal(t, float32(2), box.HMax)

	require.NoError(t, r.MarkCylinder(physics.V3(5, 1, 5), 2, 3, navigation.AreaDoor))
	cyl, _ := r.ConvexVolume(1)
	require.Len(t, cyl.Verts, 8)
	for _, v := range cyl.Verts {
		assert.InDelta(t, 2, v.Dist2D(physics.V3(5, 1, 5)), 1e-5)
		assert.Equal(t, float32(1), v.Y)
	}
	assert.Equal(t, float32(4), cyl.HMax)

	require.NoError(t, r.MarkConvexPoly(square(0)[:3], -1, 1, navigation.AreaJump))
	assert.Equal(t, 3, r.ConvexVolumeCount())

	r.Clear()
	assert.Zero(t, r.ConvexVolumeCount())
}

func TestOffMeshConnections(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddOffMeshConnection(physics.V3(0, 0, 0), physics.V3(1, 1, 1), 0.5, true, navigation.AreaJump, navigation.FlagJump))
	require.NoError(t, r.AddOffMeshConnection(physics.V3(2, 0, 0), physics.V3(3, 1, 1), 0.5, false, navigation.AreaJump, navigation.FlagJump))
	assert.ErrorIs(t, r.AddOffMeshConnection(physics.Vec3{}, physics.Vec3{}, -1, false, 0, 0), navigation.ErrInvalidInput)

	require.NoError(t, r.DeleteOffMeshConnection(0))
	c, err := r.OffMeshConnection(0)
	require.NoError(t, err)
	assert.False(t, c.Bidirectional)
	assert.Equal(t, physics.V3(2, 0, 0), c.Start)
	assert.Equal(t, 1, r.OffMeshConnectionCount())
	assert.ErrorIs(t, r.DeleteOffMeshConnection(1), navigation.ErrInvalidIndex)

	m := ConnectionMap(c)
	assert.Equal(t, []float32{3, 1, 1}, m["end"])
	assert.Equal(t, []float32{0}, m["bidirectional"])
	assert.Equal(t, []float32{float32(navigation.FlagJump)}, m["flags"])
	assert.Len(t, r.OffMeshConnections(), 1)
}

func TestFlatHelpers(t *testing.T) {
	v, err := Vec3("op", []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, physics.V3(1, 2, 3), v)
	_, err = Vec3("op", []float32{1, 2})
	assert.ErrorIs(t, err, navigation.ErrInvalidVector)

	pts, err := Points("op", []float32{0, 0, 0, 1, 0, 0, 1, 0, 1})
	require.NoError(t, err)
	assert.Len(t, pts, 3)
	_, err = Points("op", []float32{0, 0, 0, 1, 0, 0, 1, 0})
	assert.ErrorIs(t, err, navigation.ErrInvalidInput)
	_, err = Points("op", make([]float32, 39))
	assert.ErrorIs(t, err, navigation.ErrInvalidInput)

	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 1, 0, 1}, Flatten(pts))
	m := VolumeMap(navigation.ConvexVolume{Verts: pts, HMin: -1, HMax: 2, Area: 4})
	assert.Equal(t, []float32{4}, m["area"])
	assert.Len(t, m["verts"], 9)
}
