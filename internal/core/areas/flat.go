package areas

import (
	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

// Vec3 reads exactly three components.
func Vec3(op string, v []float32) (physics.Vec3, error) {
	if len(v) != 3 {
		return physics.Vec3{}, navigation.Invalid(op, navigation.ErrInvalidVector, "expected 3 components, got %d", len(v))
	}
	return physics.V3(v[0], v[1], v[2]), nil
}

// Points reads a flat xyz list of 3 to 12 points.
func Points(op string, v []float32) ([]physics.Vec3, error) {
	if len(v)%3 != 0 || len(v) < 3*navigation.MinConvexVolumePoints {
		return nil, navigation.Invalid(op, navigation.ErrInvalidVector, "invalid vertices (must be multiple of 3 with at least 3 points)")
	}
	if len(v) > 3*navigation.MaxConvexVolumePoints {
		return nil, navigation.Invalid(op, navigation.ErrInvalidVector, "too many vertices (max is %d)", navigation.MaxConvexVolumePoints)
	}
	out := make([]physics.Vec3, len(v)/3)
	for i := range out {
		out[i] = physics.V3(v[3*i], v[3*i+1], v[3*i+2])
	}
	return out, nil
}

// Flatten writes points as a flat xyz list.
func Flatten(pts []physics.Vec3) []float32 {
	out := make([]float32, 0, len(pts)*3)
	for _, p := range pts {
		out = append(out, p.X, p.Y, p.Z)
	}
	return out
}

// VolumeMap renders a marker with the keys of the flat API.
func VolumeMap(v navigation.ConvexVolume) map[string][]float32 {
	return map[string][]float32{
		"verts": Flatten(v.Verts),
		"hmin":  {v.HMin},
		"hmax":  {v.HMax},
		"area":  {float32(v.Area)},
	}
}

// ConnectionMap renders a connection with the keys of the flat API.
func ConnectionMap(c navigation.OffMeshConnection) map[string][]float32 {
	bidir := float32(0)
	if c.Bidirectional {
		bidir = 1
	}
	return map[string][]float32{
		"start":         {c.Start.X, c.Start.Y, c.Start.Z},
		"end":           {c.End.X, c.End.Y, c.End.Z},
		"radius":        {c.Radius},
		"bidirectional": {bidir},
		"area":          {float32(c.Area)},
		"flags":         {float32(c.Flags)},
	}
}
