package navigator

import (
	"github.com/zeusync/crowdnav/internal/core/areas"
)

// Markers and connections feed the next Build and are dropped by every
// geometry initialization.

func (n *Navmesh) AddConvexVolume(verts []float32, hmin, hmax float32, area uint8) bool {
	const op = "Add convex volume"
	if !n.requireGeometry(op) {
		return false
	}
	pts, err := areas.Points(op, verts)
	if !n.check(err) {
		return false
	}
	return n.check(n.areas.AddConvexVolume(pts, hmin, hmax, area))
}

func (n *Navmesh) DeleteConvexVolume(i int) bool {
	if !n.requireGeometry("Delete convex volume") {
		return false
	}
	return n.check(n.areas.DeleteConvexVolume(i))
}

func (n *Navmesh) GetConvexVolumeCount() int {
	if !n.requireGeometry("Get convex volume count") {
		return 0
	}
	return n.areas.ConvexVolumeCount()
}

// GetConvexVolume returns the keys verts, hmin, hmax and area.
func (n *Navmesh) GetConvexVolume(i int) map[string][]float32 {
	if !n.requireGeometry("Get convex volume") {
		return map[string][]float32{}
	}
	v, err := n.areas.ConvexVolume(i)
	if !n.check(err) {
		return map[string][]float32{}
	}
	return areas.VolumeMap(v)
}

func (n *Navmesh) GetAllConvexVolumes() []map[string][]float32 {
	if !n.requireGeometry("Get all convex volumes") {
		return []map[string][]float32{}
	}
	vols := n.areas.ConvexVolumes()
	out := make([]map[string][]float32, len(vols))
	for i, v := range vols {
		out[i] = areas.VolumeMap(v)
	}
	return out
}

func (n *Navmesh) AddOffMeshConnection(start, end []float32, radius float32, bidirectional bool, area uint8, flags uint16) bool {
	const op = "Add offmesh connection"
	if !n.requireGeometry(op) {
		return false
	}
	s, ok := n.vec(op, start)
	if !ok {
		return false
	}
	e, ok := n.vec(op, end)
	if !ok {
		return false
	}
	return n.check(n.areas.AddOffMeshConnection(s, e, radius, bidirectional, area, flags))
}

func (n *Navmesh) DeleteOffMeshConnection(i int) bool {
	if !n.requireGeometry("Delete offmesh connection") {
		return false
	}
	return n.check(n.areas.DeleteOffMeshConnection(i))
}

func (n *Navmesh) GetOffMeshConnectionCount() int {
	if !n.requireGeometry("Get offmesh connection count") {
		return 0
	}
	return n.areas.OffMeshConnectionCount()
}

// GetOffMeshConnection returns the keys start, end, radius, bidirectional,
// area and flags.
func (n *Navmesh) GetOffMeshConnection(i int) map[string][]float32 {
	if !n.requireGeometry("Get offmesh connection") {
		return map[string][]float32{}
	}
	c, err := n.areas.OffMeshConnection(i)
	if !n.check(err) {
		return map[string][]float32{}
	}
	return areas.ConnectionMap(c)
}

func (n *Navmesh) GetAllOffMeshConnections() []map[string][]float32 {
	if !n.requireGeometry("Get all offmesh connections") {
		return []map[string][]float32{}
	}
	conns := n.areas.OffMeshConnections()
	out := make([]map[string][]float32, len(conns))
	for i, c := range conns {
		out[i] = areas.ConnectionMap(c)
	}
	return out
}

func (n *Navmesh) MarkBoxArea(bmin, bmax []float32, area uint8) bool {
	const op = "Mark box area"
	if !n.requireGeometry(op) {
		return false
	}
	lo, ok := n.vec(op, bmin)
	if !ok {
		return false
	}
	hi, ok := n.vec(op, bmax)
	if !ok {
		return false
	}
	return n.check(n.areas.MarkBox(lo, hi, area))
}

func (n *Navmesh) MarkCylinderArea(pos []float32, radius, height float32, area uint8) bool {
	const op = "Mark cylinder area"
	if !n.requireGeometry(op) {
		return false
	}
	p, ok := n.vec(op, pos)
	if !ok {
		return false
	}
	return n.check(n.areas.MarkCylinder(p, radius, height, area))
}

func (n *Navmesh) MarkConvexPolyArea(verts []float32, hmin, hmax float32, area uint8) bool {
	const op = "Mark convex poly area"
	if !n.requireGeometry(op) {
		return false
	}
	pts, err := areas.Points(op, verts)
	if !n.check(err) {
		return false
	}
	return n.check(n.areas.MarkConvexPoly(pts, hmin, hmax, area))
}
