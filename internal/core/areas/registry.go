// Package areas stores the convex area markers and off-mesh connections
// that feed the next navmesh build. Entries are addressed by position:
// deleting one shifts every later index down by one.
package areas

import (
	"math"
	"slices"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

const (
	MaxVolumes     = 256
	MaxConnections = 256

	cylinderSegments = 8
)

type Registry struct {
	volumes     []navigation.ConvexVolume
	connections []navigation.OffMeshConnection
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Clear drops every volume and connection.
func (r *Registry) Clear() {
	r.volumes = nil
	r.connections = nil
}

func cloneVolume(v navigation.ConvexVolume) navigation.ConvexVolume {
	v.Verts = slices.Clone(v.Verts)
	return v
}

// AddConvexVolume appends a marker with 3 to 12 footprint vertices.
func (r *Registry) AddConvexVolume(verts []physics.Vec3, hmin, hmax float32, area uint8) error {
	const op = "Add convex volume"
	n := len(verts)
	if n < navigation.MinConvexVolumePoints {
		return navigation.Invalid(op, nil, "invalid vertices (must be multiple of 3 with at least 3 points)")
	}
	if n > navigation.MaxConvexVolumePoints {
		return navigation.Invalid(op, nil, "too many vertices (max is %d)", navigation.MaxConvexVolumePoints)
	}
	for _, v := range verts {
		if !v.IsFinite() {
			return navigation.Invalid(op, navigation.ErrInvalidVector, "vertex %v is not finite", v)
		}
	}
	if !physics.IsFinite(hmin) || !physics.IsFinite(hmax) {
		return navigation.Invalid(op, nil, "height range must be finite")
	}
	if len(r.volumes) >= MaxVolumes {
		return navigation.Invalid(op, navigation.ErrCapacityExceeded, "too many volumes (max is %d)", MaxVolumes)
	}
	r.volumes = append(r.volumes, navigation.ConvexVolume{
		Verts: slices.Clone(verts),
		HMin:  hmin,
		HMax:  hmax,
		Area:  area,
	})
	return nil
}

func (r *Registry) DeleteConvexVolume(i int) error {
	if i < 0 || i >= len(r.volumes) {
		return navigation.Invalid("Delete convex volume", navigation.ErrInvalidIndex, "index %d out of range [0, %d)", i, len(r.volumes))
	}
	r.volumes = slices.Delete(r.volumes, i, i+1)
	return nil
}

func (r *Registry) ConvexVolume(i int) (navigation.ConvexVolume, error) {
	if i < 0 || i >= len(r.volumes) {
		return navigation.ConvexVolume{}, navigation.Invalid("Get convex volume", navigation.ErrInvalidIndex, "index %d out of range [0, %d)", i, len(r.volumes))
	}
	return cloneVolume(r.volumes[i]), nil
}

// ConvexVolumes returns a copy of every marker in index order.
func (r *Registry) ConvexVolumes() []navigation.ConvexVolume {
	out := make([]navigation.ConvexVolume, len(r.volumes))
	for i, v := range r.volumes {
		out[i] = cloneVolume(v)
	}
	return out
}

func (r *Registry) ConvexVolumeCount() int {
	return len(r.volumes)
}

// MarkBox marks the box footprint at bmin.Y spanning heights bmin.Y to
// bmax.Y.
func (r *Registry) MarkBox(bmin, bmax physics.Vec3, area uint8) error {
	verts := []physics.Vec3{
		physics.V3(bmin.X, bmin.Y, bmin.Z),
		physics.V3(bmax.X, bmin.Y, bmin.Z),
		physics.V3(bmax.X, bmin.Y, bmax.Z),
		physics.V3(bmin.X, bmin.Y, bmax.Z),
	}
	return r.AddConvexVolume(verts, bmin.Y, bmax.Y, area)
}

// MarkCylinder marks an octagon around pos spanning height above it.
func (r *Registry) MarkCylinder(pos physics.Vec3, radius, height float32, area uint8) error {
	verts := make([]physics.Vec3, cylinderSegments)
	for i := range verts {
		angle := float64(i) / cylinderSegments * 2 * math.Pi
		verts[i] = physics.V3(
			pos.X+float32(math.Cos(angle))*radius,
			pos.Y,
			pos.Z+float32(math.Sin(angle))*radius,
		)
	}
	return r.AddConvexVolume(verts, pos.Y, pos.Y+height, area)
}

func (r *Registry) MarkConvexPoly(verts []physics.Vec3, hmin, hmax float32, area uint8) error {
	return r.AddConvexVolume(verts, hmin, hmax, area)
}

// AddOffMeshConnection appends a link between two surface points.
func (r *Registry) AddOffMeshConnection(start, end physics.Vec3, radius float32, bidirectional bool, area uint8, flags uint16) error {
	const op = "Add offmesh connection"
	if !start.IsFinite() || !end.IsFinite() {
		return navigation.Invalid(op, navigation.ErrInvalidVector, "endpoints must be finite")
	}
	if !physics.IsFinite(radius) || radius < 0 {
		return navigation.Invalid(op, nil, "radius must be a finite non-negative number, got %v", radius)
	}
	if len(r.connections) >= MaxConnections {
		return navigation.Invalid(op, navigation.ErrCapacityExceeded, "too many connections (max is %d)", MaxConnections)
	}
	r.connections = append(r.connections, navigation.OffMeshConnection{
		Start:         start,
		End:           end,
		Radius:        radius,
		Bidirectional: bidirectional,
		Area:          area,
		Flags:         flags,
	})
	return nil
}

func (r *Registry) DeleteOffMeshConnection(i int) error {
	if i < 0 || i >= len(r.connections) {
		return navigation.Invalid("Delete offmesh connection", navigation.ErrInvalidIndex, "index %d out of range [0, %d)", i, len(r.connections))
	}
	r.connections = slices.Delete(r.connections, i, i+1)
	return nil
}

func (r *Registry) OffMeshConnection(i int) (navigation.OffMeshConnection, error) {
	if i < 0 || i >= len(r.connections) {
		return navigation.OffMeshConnection{}, navigation.Invalid("Get offmesh connection", navigation.ErrInvalidIndex, "index %d out of range [0, %d)", i, len(r.connections))
	}
	return r.connections[i], nil
}

func (r *Registry) OffMeshConnections() []navigation.OffMeshConnection {
	return slices.Clone(r.connections)
}

func (r *Registry) OffMeshConnectionCount() int {
	return len(r.connections)
}
