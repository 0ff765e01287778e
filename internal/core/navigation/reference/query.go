package reference

import (
	"fmt"
	"math"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

// crossing is an edge the traced segment passed through.
type crossing struct {
	t          float32
	areaChange bool
}

type traceResult struct {
	hit       bool
	t         float32
	poly      int
	edge      int
	crossings []crossing
}

// polyAt returns the passable polygon lying under pt on the XZ plane with
// its surface closest to pt, or -1.
func (m *Mesh) polyAt(pt physics.Vec3, filter *navigation.QueryFilter) int {
	best := -1
	bestDy := float32(math.MaxFloat32)
	for i := range m.polys {
		p := &m.polys[i]
		if !m.passes(p, filter) || pt.X < p.bmin.X-1e-4 || pt.X > p.bmax.X+1e-4 ||
			pt.Z < p.bmin.Z-1e-4 || pt.Z > p.bmax.Z+1e-4 || !m.contains2D(p, pt) {
			continue
		}
		if dy := float32(math.Abs(float64(m.height(p, pt) - pt.Y))); dy < bestDy {
			bestDy = dy
			best = i
		}
	}
	return best
}

// traceStart picks the polygon a segment leaving from a toward b starts in.
// Points on shared edges or vertices belong to several polygons, so the
// polygon is chosen by probing slightly along the segment.
func (m *Mesh) traceStart(a, b physics.Vec3, filter *navigation.QueryFilter) int {
	d := b.Sub(a).Horizontal()
	if l := d.Length(); l > 1e-6 {
		probe := a.Mad(d, min(1e-3, l*0.5)/l)
		if pi := m.polyAt(probe, filter); pi >= 0 {
			return pi
		}
	}
	if ref, _, ok := m.NearestPoly(a, navigation.NearestPolyExtents, filter); ok {
		pi, _ := m.index(ref)
		return pi
	}
	return -1
}

// trace walks the segment a-b across polygons on the XZ plane starting in
// polygon cur and stops at the first wall, which is an edge without a
// passable neighbor.
func (m *Mesh) trace(cur int, a, b physics.Vec3, filter *navigation.QueryFilter) (traceResult, error) {
	dir := b.Sub(a)
	prev := -1
	var res traceResult
	for guard := 0; guard <= 2*len(m.polys)+1; guard++ {
		p := &m.polys[cur]
		tmax, edge := m.exit(p, a, dir, prev)
		if edge < 0 || tmax >= 1 {
			res.t, res.poly, res.edge = 1, cur, -1
			return res, nil
		}
		next := p.neis[edge]
		if next < 0 || next == cur || !m.passes(&m.polys[next], filter) {
			res.hit, res.t, res.poly, res.edge = true, max(tmax, 0), cur, edge
			return res, nil
		}
		res.crossings = append(res.crossings, crossing{t: max(tmax, 0), areaChange: p.area != m.polys[next].area})
		prev, cur = cur, next
	}
	return res, fmt.Errorf("%w: trace did not terminate", navigation.ErrEngine)
}

// visible reports whether the straight segment a-b stays on the mesh.
func (m *Mesh) visible(a, b physics.Vec3, filter *navigation.QueryFilter) bool {
	start := m.traceStart(a, b, filter)
	if start < 0 {
		return false
	}
	res, err := m.trace(start, a, b, filter)
	return err == nil && !res.hit
}

// Raycast walks the segment start-end across polygons and reports the first
// wall it meets.
func (m *Mesh) Raycast(start, end physics.Vec3, filter *navigation.QueryFilter) (navigation.RaycastHit, error) {
	_, spos, ok := m.NearestPoly(start, navigation.NearestPolyExtents, filter)
	if !ok {
		return navigation.RaycastHit{}, fmt.Errorf("%w: %w", navigation.ErrEngine, navigation.ErrNoNearbyPolygon)
	}
	cur := m.traceStart(spos, end, filter)
	if cur < 0 {
		return navigation.RaycastHit{}, fmt.Errorf("%w: %w", navigation.ErrEngine, navigation.ErrNoNearbyPolygon)
	}
	res, err := m.trace(cur, spos, end, filter)
	if err != nil {
		return navigation.RaycastHit{}, err
	}
	p := &m.polys[res.poly]
	if !res.hit {
		return navigation.RaycastHit{Hit: false, T: 1, Point: physics.V3(end.X, m.height(p, end), end.Z)}, nil
	}
	hit := spos.Lerp(end, res.t)
	hit.Y = m.height(p, hit)
	a, b := m.vert(p, res.edge), m.vert(p, res.edge+1)
	normal := physics.V3(b.Z-a.Z, 0, -(b.X - a.X)).Normalize()
	return navigation.RaycastHit{Hit: true, T: res.t, Point: hit, Normal: normal}, nil
}

// exit clips the ray origin+t*dir against convex polygon p and returns the
// parameter and edge where the ray leaves it. Edges leading back to the
// polygon skip are ignored.
func (m *Mesh) exit(p *poly, origin, dir physics.Vec3, skip int) (float32, int) {
	tmax := float32(math.MaxFloat32)
	edge := -1
	for i := range p.verts {
		if skip >= 0 && p.neis[i] == skip {
			continue
		}
		a, b := m.vert(p, i), m.vert(p, i+1)
		// Outward normal of a counter-clockwise edge.
		nx, nz := b.Z-a.Z, -(b.X - a.X)
		den := nx*dir.X + nz*dir.Z
		if den <= 1e-9 {
			continue
		}
		num := nx*(a.X-origin.X) + nz*(a.Z-origin.Z)
		if t := num / den; t < tmax {
			tmax = t
			edge = i
		}
	}
	return tmax, edge
}

// DistanceToWall floods polygons around center and returns the distance to
// the closest wall edge, capped at maxRadius.
func (m *Mesh) DistanceToWall(center physics.Vec3, maxRadius float32, filter *navigation.QueryFilter) (float32, error) {
	sref, spos, ok := m.NearestPoly(center, navigation.NearestPolyExtents, filter)
	if !ok {
		return 0, fmt.Errorf("%w: %w", navigation.ErrEngine, navigation.ErrNoNearbyPolygon)
	}
	start, _ := m.index(sref)
	radiusSqr := maxRadius * maxRadius

	visited := make([]bool, len(m.polys))
	visited[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		pi := queue[0]
		queue = queue[1:]
		p := &m.polys[pi]
		for i, nei := range p.neis {
			a, b := m.vert(p, i), m.vert(p, i+1)
			d, _ := physics.DistPointSegment2D(spos, a, b)
			if d > radiusSqr {
				continue
			}
			if nei < 0 || !m.passes(&m.polys[nei], filter) {
				radiusSqr = d
				continue
			}
			if !visited[nei] {
				visited[nei] = true
				queue = append(queue, nei)
			}
		}
	}
	return float32(math.Sqrt(float64(radiusSqr))), nil
}
