package reference

import (
	"fmt"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
	"github.com/zeusync/crowdnav/pkg/sequence"
)

const heuristicScale = 0.999

type searchNode struct {
	poly   int
	parent *searchNode
	// via is the arc used to enter poly, or -1 when entered through an edge.
	via       int
	pos       physics.Vec3
	cost      float32
	total     float32
	heuristic float32
	item      *sequence.CostItem[int]
}

type step struct {
	poly int
	via  int
}

// findPath runs A* over the polygon graph. Edge costs are measured between
// portal midpoints and scaled by the area cost of the polygon being left.
// When the goal is unreachable the corridor ends at the polygon nearest to
// it and partial is true.
func (m *Mesh) findPath(startPoly, endPoly int, startPos, endPos physics.Vec3, filter *navigation.QueryFilter) (corridor []step, partial bool) {
	nodes := make([]*searchNode, len(m.polys))
	open := sequence.NewCostQueue[int]()

	h := startPos.Dist(endPos) * heuristicScale
	start := &searchNode{poly: startPoly, via: -1, pos: startPos, total: h, heuristic: h}
	start.item = open.Enqueue(startPoly, start.total)
	nodes[startPoly] = start

	best := start
	var goal *searchNode
	for !open.IsEmpty() {
		pi, _ := open.Dequeue()
		cur := nodes[pi]
		if pi == endPoly {
			goal = cur
			break
		}
		curPoly := &m.polys[pi]

		visit := func(next, via int, pos physics.Vec3, legCost float32) {
			if cur.parent != nil && cur.parent.poly == next {
				return
			}
			cost := cur.cost + legCost
			var heuristic float32
			if next == endPoly {
				cost += pos.Dist(endPos) * filter.Cost(m.polys[next].area)
			} else {
				heuristic = pos.Dist(endPos) * heuristicScale
			}
			total := cost + heuristic

			n := nodes[next]
			if n != nil && total >= n.total {
				return
			}
			if n == nil {
				n = &searchNode{poly: next}
				nodes[next] = n
			}
			n.parent = cur
			n.via = via
			n.pos = pos
			n.cost = cost
			n.total = total
			n.heuristic = heuristic
			if n.item != nil && n.item.Queued() {
				open.Update(n.item, next, total)
			} else {
				n.item = open.Enqueue(next, total)
			}
			if heuristic < best.heuristic {
				best = n
			}
		}

		for i, nei := range curPoly.neis {
			if nei < 0 || !m.passes(&m.polys[nei], filter) {
				continue
			}
			mid := m.vert(curPoly, i).Lerp(m.vert(curPoly, i+1), 0.5)
			visit(nei, -1, mid, cur.pos.Dist(mid)*filter.Cost(curPoly.area))
		}
		for _, ai := range m.polyArcs[pi] {
			a := &m.arcs[ai]
			if !filter.Passes(a.flags) || !m.passes(&m.polys[a.to], filter) {
				continue
			}
			leg := cur.pos.Dist(a.start)*filter.Cost(curPoly.area) + a.start.Dist(a.end)*filter.Cost(a.area)
			visit(a.to, ai, a.end, leg)
		}
	}

	last := goal
	if last == nil {
		last = best
		partial = true
	}
	for n := last; n != nil; n = n.parent {
		corridor = append(corridor, step{poly: n.poly, via: n.via})
	}
	for i, j := 0, len(corridor)-1; i < j; i, j = i+1, j-1 {
		corridor[i], corridor[j] = corridor[j], corridor[i]
	}
	return corridor, partial
}

func (m *Mesh) StraightPath(start, end physics.Vec3, filter *navigation.QueryFilter, mode navigation.StraightPathMode) (navigation.StraightPath, error) {
	if filter == nil {
		f := navigation.DefaultQueryFilter()
		filter = &f
	}
	if !mode.Valid() {
		return navigation.StraightPath{}, fmt.Errorf("%w: unknown straight path mode %d", navigation.ErrInvalidInput, mode)
	}
	sref, spos, ok := m.NearestPoly(start, navigation.NearestPolyExtents, filter)
	if !ok {
		return navigation.StraightPath{}, fmt.Errorf("%w: start: %w", navigation.ErrEngine, navigation.ErrNoNearbyPolygon)
	}
	eref, epos, ok := m.NearestPoly(end, navigation.NearestPolyExtents, filter)
	if !ok {
		return navigation.StraightPath{}, fmt.Errorf("%w: end: %w", navigation.ErrEngine, navigation.ErrNoNearbyPolygon)
	}
	sp, _ := m.index(sref)
	ep, _ := m.index(eref)

	corridor, partial := m.findPath(sp, ep, spos, epos, filter)
	if partial {
		last := &m.polys[corridor[len(corridor)-1].poly]
		epos, _ = m.closestPoint(last, epos)
	}
	return navigation.StraightPath{
		Points:  m.straighten(corridor, spos, epos, filter, mode),
		Partial: partial,
	}, nil
}

// straighten pulls the corridor taut. Each stretch of polygons joined by
// edges is funneled on its own; off-mesh arcs contribute their endpoints.
func (m *Mesh) straighten(corridor []step, start, end physics.Vec3, filter *navigation.QueryFilter, mode navigation.StraightPathMode) []physics.Vec3 {
	var out []physics.Vec3
	segStart := start
	from := 0
	for i := 1; i <= len(corridor); i++ {
		if i < len(corridor) && corridor[i].via < 0 {
			continue
		}
		segEnd := end
		if i < len(corridor) {
			segEnd = m.arcs[corridor[i].via].start
		}
		corners := m.shortcut(m.funnel(corridor[from:i], segStart, segEnd), filter)
		if mode != navigation.StraightPathCorners {
			corners = m.crossings(corners, filter, mode)
		}
		out = appendPoints(out, corners)
		if i < len(corridor) {
			segStart = m.arcs[corridor[i].via].end
			from = i
		}
	}
	return out
}

func appendPoints(out, pts []physics.Vec3) []physics.Vec3 {
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].DistSqr(p) < 1e-8 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// funnel runs the simple stupid funnel over the portals of seg and returns
// the corners of the shortest path inside the corridor.
func (m *Mesh) funnel(seg []step, start, end physics.Vec3) []physics.Vec3 {
	type portal struct{ left, right physics.Vec3 }
	portals := make([]portal, 0, len(seg)+1)
	portals = append(portals, portal{start, start})
	for k := 0; k+1 < len(seg); k++ {
		if l, r, ok := m.portal(seg[k].poly, seg[k+1].poly); ok {
			portals = append(portals, portal{l, r})
		}
	}
	portals = append(portals, portal{end, end})

	corners := []physics.Vec3{start}
	apex, left, right := start, start, start
	apexIdx, leftIdx, rightIdx := 0, 0, 0
	for i := 1; i < len(portals); i++ {
		l, r := portals[i].left, portals[i].right

		if physics.Cross2D(apex, right, r) >= 0 {
			if apex == right || physics.Cross2D(apex, left, r) < 0 {
				right, rightIdx = r, i
			} else {
				apex, apexIdx = left, leftIdx
				corners = append(corners, apex)
				left, right = apex, apex
				leftIdx, rightIdx = apexIdx, apexIdx
				i = apexIdx
				continue
			}
		}

		if physics.Cross2D(apex, left, l) <= 0 {
			if apex == left || physics.Cross2D(apex, right, l) > 0 {
				left, leftIdx = l, i
			} else {
				apex, apexIdx = right, rightIdx
				corners = append(corners, apex)
				left, right = apex, apex
				leftIdx, rightIdx = apexIdx, apexIdx
				i = apexIdx
				continue
			}
		}
	}
	return appendPoints(nil, append(corners, end))
}

// shortcut drops corners that are visible from an earlier corner. A* over
// portal midpoints may pick a staircase corridor on fine meshes, which the
// funnel alone cannot straighten.
func (m *Mesh) shortcut(pts []physics.Vec3, filter *navigation.QueryFilter) []physics.Vec3 {
	if len(pts) <= 2 {
		return pts
	}
	out := []physics.Vec3{pts[0]}
	for i := 0; i < len(pts)-1; {
		j := len(pts) - 1
		for j > i+1 && !m.visible(pts[i], pts[j], filter) {
			j--
		}
		out = append(out, pts[j])
		i = j
	}
	return out
}

// crossings inserts a point wherever a leg between two corners crosses a
// polygon edge. In area mode only edges between different areas count.
func (m *Mesh) crossings(corners []physics.Vec3, filter *navigation.QueryFilter, mode navigation.StraightPathMode) []physics.Vec3 {
	out := []physics.Vec3{corners[0]}
	for c := 1; c < len(corners); c++ {
		a, b := corners[c-1], corners[c]
		if start := m.traceStart(a, b, filter); start >= 0 {
			if res, err := m.trace(start, a, b, filter); err == nil {
				for _, x := range res.crossings {
					if mode == navigation.StraightPathAreaCrossings && !x.areaChange {
						continue
					}
					if x.t > 0 && x.t < 1 {
						out = append(out, a.Lerp(b, x.t))
					}
				}
			}
		}
		out = append(out, b)
	}
	return out
}
