package reference

import (
	"math"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

var _ navigation.Mesh = (*Mesh)(nil)

type poly struct {
	verts []int
	// neis[i] is the polygon across the edge verts[i] -> verts[i+1], or -1.
	neis   []int
	area   uint8
	flags  uint16
	bmin   physics.Vec3
	bmax   physics.Vec3
	center physics.Vec3
}

// arc is one traversable direction of an off-mesh connection.
type arc struct {
	from, to   int
	start, end physics.Vec3
	area       uint8
	flags      uint16
}

// Mesh is a convex polygon mesh with off-mesh arcs between its polygons.
type Mesh struct {
	verts    []physics.Vec3
	polys    []poly
	arcs     []arc
	polyArcs [][]int
	bmin     physics.Vec3
	bmax     physics.Vec3
}

func newMesh(verts []physics.Vec3, polys []poly, arcs []arc, bmin, bmax physics.Vec3) *Mesh {
	m := &Mesh{verts: verts, polys: polys, bmin: bmin, bmax: bmax}
	for i := range m.polys {
		m.indexPoly(i)
	}
	m.setArcs(arcs)
	return m
}

func (m *Mesh) setArcs(arcs []arc) {
	m.arcs = arcs
	m.polyArcs = make([][]int, len(m.polys))
	for i, a := range m.arcs {
		m.polyArcs[a.from] = append(m.polyArcs[a.from], i)
	}
}

func (m *Mesh) indexPoly(i int) {
	p := &m.polys[i]
	p.bmin = m.verts[p.verts[0]]
	p.bmax = p.bmin
	var sum physics.Vec3
	for _, vi := range p.verts {
		v := m.verts[vi]
		sum = sum.Add(v)
		p.bmin = physics.V3(min(p.bmin.X, v.X), min(p.bmin.Y, v.Y), min(p.bmin.Z, v.Z))
		p.bmax = physics.V3(max(p.bmax.X, v.X), max(p.bmax.Y, v.Y), max(p.bmax.Z, v.Z))
	}
	p.center = sum.Scale(1 / float32(len(p.verts)))
}

func (m *Mesh) Bounds() (physics.Vec3, physics.Vec3) {
	return m.bmin, m.bmax
}

func (m *Mesh) Vertices() []physics.Vec3 {
	return append([]physics.Vec3(nil), m.verts...)
}

func (m *Mesh) Polygons() []navigation.Polygon {
	out := make([]navigation.Polygon, len(m.polys))
	for i, p := range m.polys {
		out[i] = navigation.Polygon{
			Verts: append([]int(nil), p.verts...),
			Area:  p.area,
			Flags: p.flags,
		}
	}
	return out
}

// OffMeshArcs returns the number of connected off-mesh directions.
func (m *Mesh) OffMeshArcs() int {
	return len(m.arcs)
}

func (m *Mesh) ref(i int) navigation.PolyRef {
	return navigation.PolyRef(i + 1)
}

func (m *Mesh) index(ref navigation.PolyRef) (int, bool) {
	i := int(ref) - 1
	return i, i >= 0 && i < len(m.polys)
}

func (m *Mesh) vert(p *poly, i int) physics.Vec3 {
	return m.verts[p.verts[i%len(p.verts)]]
}

func (m *Mesh) contains2D(p *poly, pt physics.Vec3) bool {
	n := len(p.verts)
	for i := 0; i < n; i++ {
		if physics.Cross2D(m.vert(p, i), m.vert(p, i+1), pt) < -1e-6 {
			return false
		}
	}
	return true
}

// height samples the surface height of p at the XZ location of pt.
func (m *Mesh) height(p *poly, pt physics.Vec3) float32 {
	a := m.vert(p, 0)
	for k := 1; k+1 < len(p.verts); k++ {
		b := m.vert(p, k)
		c := m.vert(p, k+1)
		if y, ok := triHeight(pt, a, b, c); ok {
			return y
		}
	}
	return p.center.Y
}

func triHeight(p, a, b, c physics.Vec3) (float32, bool) {
	v0 := c.Sub(a)
	v1 := b.Sub(a)
	v2 := p.Sub(a)
	d00 := v0.X*v0.X + v0.Z*v0.Z
	d01 := v0.X*v1.X + v0.Z*v1.Z
	d02 := v0.X*v2.X + v0.Z*v2.Z
	d11 := v1.X*v1.X + v1.Z*v1.Z
	d12 := v1.X*v2.X + v1.Z*v2.Z
	denom := d00*d11 - d01*d01
	if float32(math.Abs(float64(denom))) < 1e-12 {
		return 0, false
	}
	inv := 1 / denom
	u := (d11*d02 - d01*d12) * inv
	v := (d00*d12 - d01*d02) * inv
	const eps = 1e-4
	if u >= -eps && v >= -eps && u+v <= 1+eps {
		return a.Y + v0.Y*u + v1.Y*v, true
	}
	return 0, false
}

// closestPoint returns the point of p closest to pt and whether pt lies over
// the polygon.
func (m *Mesh) closestPoint(p *poly, pt physics.Vec3) (physics.Vec3, bool) {
	if m.contains2D(p, pt) {
		return physics.V3(pt.X, m.height(p, pt), pt.Z), true
	}
	best := float32(math.MaxFloat32)
	var closest physics.Vec3
	for i := range p.verts {
		a, b := m.vert(p, i), m.vert(p, i+1)
		d, t := physics.DistPointSegment2D(pt, a, b)
		if d < best {
			best = d
			closest = a.Lerp(b, t)
		}
	}
	return closest, false
}

func (m *Mesh) passes(p *poly, filter *navigation.QueryFilter) bool {
	return filter == nil || filter.Passes(p.flags)
}

func (m *Mesh) NearestPoly(center, halfExtents physics.Vec3, filter *navigation.QueryFilter) (navigation.PolyRef, physics.Vec3, bool) {
	qmin := center.Sub(halfExtents)
	qmax := center.Add(halfExtents)
	bestIdx := -1
	bestDist := float32(math.MaxFloat32)
	var bestPt physics.Vec3
	for i := range m.polys {
		p := &m.polys[i]
		if !m.passes(p, filter) || !overlaps(qmin, qmax, p.bmin, p.bmax) {
			continue
		}
		pt, over := m.closestPoint(p, center)
		var d float32
		if over {
			dy := center.Y - pt.Y
			d = dy * dy
		} else {
			d = center.DistSqr(pt)
		}
		if d < bestDist {
			bestDist = d
			bestIdx = i
			bestPt = pt
		}
	}
	if bestIdx < 0 {
		return 0, physics.Vec3{}, false
	}
	return m.ref(bestIdx), bestPt, true
}

func overlaps(amin, amax, bmin, bmax physics.Vec3) bool {
	return amin.X <= bmax.X && amax.X >= bmin.X &&
		amin.Y <= bmax.Y && amax.Y >= bmin.Y &&
		amin.Z <= bmax.Z && amax.Z >= bmin.Z
}

// portal returns the shared edge of polygons a and b as seen from a, ordered
// left then right for a walker moving from a into b.
func (m *Mesh) portal(a, b int) (physics.Vec3, physics.Vec3, bool) {
	p := &m.polys[a]
	for i, n := range p.neis {
		if n == b {
			return m.vert(p, i+1), m.vert(p, i), true
		}
	}
	return physics.Vec3{}, physics.Vec3{}, false
}
