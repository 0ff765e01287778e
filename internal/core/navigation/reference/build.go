package reference

import (
	"fmt"
	"math"
	"sort"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

// Build turns triangle soup into a convex polygon mesh. Triangles steeper
// than the agent max slope are dropped, area markers retag triangles whose
// centroid they contain, and AreaNull markers cut holes. Partitioning and
// detail settings are accepted but have no effect on the result.
func (e *Engine) Build(in navigation.BuildInput) (navigation.Mesh, error) {
	if err := in.Geometry.Validate(); err != nil {
		return nil, err
	}
	s := in.Settings
	cs := max(s.CellSize, 0.0001)
	ch := max(s.CellHeight, 0.0001)
	maxVerts := clampInt(int(s.VertsPerPoly), 3, 6)
	cosSlope := float32(math.Cos(float64(s.AgentMaxSlope) / 180 * math.Pi))

	w := newWelder(cs, ch)
	g := in.Geometry
	var tris []poly
	skipped := 0
	for f := 0; f+2 < len(g.Faces); f += 3 {
		a := g.Vertex(g.Faces[f])
		b := g.Vertex(g.Faces[f+1])
		c := g.Vertex(g.Faces[f+2])

		n := b.Sub(a).Cross(c.Sub(a))
		l := n.Length()
		if l == 0 || float32(math.Abs(float64(n.Y))) < cosSlope*l {
			skipped++
			continue
		}

		ia, ib, ic := w.add(a), w.add(b), w.add(c)
		if ia == ib || ib == ic || ia == ic {
			skipped++
			continue
		}
		va, vb, vc := w.verts[ia], w.verts[ib], w.verts[ic]
		cross := physics.Cross2D(va, vb, vc)
		if float32(math.Abs(float64(cross))) < 1e-9 {
			skipped++
			continue
		}
		if cross < 0 {
			ib, ic = ic, ib
		}

		area := navigation.AreaWalkable
		centroid := va.Add(vb).Add(vc).Scale(1.0 / 3.0)
		for _, vol := range in.Volumes {
			if vol.Contains(centroid) {
				area = vol.Area
			}
		}
		if area == navigation.AreaNull {
			continue
		}
		if area == navigation.AreaWalkable {
			area = navigation.AreaGround
		}
		tris = append(tris, poly{
			verts: []int{ia, ib, ic},
			area:  area,
			flags: navigation.FlagsForArea(area),
		})
	}
	if len(tris) == 0 {
		return nil, fmt.Errorf("%w: geometry has no walkable triangles", navigation.ErrEngine)
	}

	polys := mergePolys(w.verts, tris, maxVerts)
	verts, polys := compact(w.verts, polys)
	linkPolys(polys)

	bmin, bmax := g.Bounds()
	mesh := newMesh(verts, polys, nil, bmin, bmax)
	mesh.setArcs(e.connect(mesh, in.Connections, s))

	e.log.Debug("Built navmesh",
		log.Int("verts", len(verts)),
		log.Int("polys", len(polys)),
		log.Int("offmesh_arcs", len(mesh.arcs)),
		log.Int("skipped_triangles", skipped),
		log.String("partition", s.PartitionType.String()),
	)
	return mesh, nil
}

type weldKey [3]int64

type welder struct {
	cs, ch float32
	index  map[weldKey]int
	verts  []physics.Vec3
}

func newWelder(cs, ch float32) *welder {
	return &welder{cs: cs, ch: ch, index: make(map[weldKey]int)}
}

// add returns the index of the welded vertex within one cell of v.
func (w *welder) add(v physics.Vec3) int {
	k := weldKey{
		int64(math.Round(float64(v.X / w.cs))),
		int64(math.Round(float64(v.Y / w.ch))),
		int64(math.Round(float64(v.Z / w.cs))),
	}
	if i, ok := w.index[k]; ok {
		return i
	}
	w.verts = append(w.verts, v)
	w.index[k] = len(w.verts) - 1
	return len(w.verts) - 1
}

type edgeKey [2]int

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

type edgeRef struct {
	poly, edge int
}

type mergeCandidate struct {
	a, ea int
	b, eb int
	len2  float32
}

// mergePolys greedily joins neighbors sharing an edge, longest shared edge
// first, while the union stays strictly convex and within maxVerts.
func mergePolys(verts []physics.Vec3, polys []poly, maxVerts int) []poly {
	dead := make([]bool, len(polys))
	for {
		edges := make(map[edgeKey][]edgeRef)
		for pi := range polys {
			if dead[pi] {
				continue
			}
			vs := polys[pi].verts
			for i := range vs {
				k := keyOf(vs[i], vs[(i+1)%len(vs)])
				edges[k] = append(edges[k], edgeRef{pi, i})
			}
		}

		var cands []mergeCandidate
		for k, refs := range edges {
			if len(refs) != 2 || refs[0].poly == refs[1].poly {
				continue
			}
			a, b := refs[0], refs[1]
			if a.poly > b.poly {
				a, b = b, a
			}
			pa, pb := &polys[a.poly], &polys[b.poly]
			if pa.area != pb.area || pa.flags != pb.flags {
				continue
			}
			if len(pa.verts)+len(pb.verts)-2 > maxVerts {
				continue
			}
			if !convex(verts, merged(pa.verts, a.edge, pb.verts, b.edge)) {
				continue
			}
			cands = append(cands, mergeCandidate{
				a: a.poly, ea: a.edge,
				b: b.poly, eb: b.edge,
				len2: verts[k[0]].DistSqr(verts[k[1]]),
			})
		}
		if len(cands) == 0 {
			break
		}
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].len2 != cands[j].len2 {
				return cands[i].len2 > cands[j].len2
			}
			if cands[i].a != cands[j].a {
				return cands[i].a < cands[j].a
			}
			return cands[i].ea < cands[j].ea
		})

		used := make(map[int]bool)
		for _, c := range cands {
			if used[c.a] || used[c.b] {
				continue
			}
			polys[c.a].verts = merged(polys[c.a].verts, c.ea, polys[c.b].verts, c.eb)
			dead[c.b] = true
			used[c.a], used[c.b] = true, true
		}
	}

	out := make([]poly, 0, len(polys))
	for i, p := range polys {
		if !dead[i] {
			out = append(out, p)
		}
	}
	return out
}

// merged joins pa and pb across their shared edge. pa's edge ea runs
// pa[ea] -> pa[ea+1] and pb's edge eb runs the opposite way.
func merged(pa []int, ea int, pb []int, eb int) []int {
	na, nb := len(pa), len(pb)
	out := make([]int, 0, na+nb-2)
	for i := 0; i < na-1; i++ {
		out = append(out, pa[(ea+1+i)%na])
	}
	for i := 0; i < nb-1; i++ {
		out = append(out, pb[(eb+1+i)%nb])
	}
	return out
}

func convex(verts []physics.Vec3, idx []int) bool {
	n := len(idx)
	for i := 0; i < n; i++ {
		a := verts[idx[(i+n-1)%n]]
		b := verts[idx[i]]
		c := verts[idx[(i+1)%n]]
		if physics.Cross2D(a, b, c) <= 1e-5 {
			return false
		}
	}
	return true
}

func compact(verts []physics.Vec3, polys []poly) ([]physics.Vec3, []poly) {
	remap := make(map[int]int)
	var out []physics.Vec3
	for pi := range polys {
		for i, vi := range polys[pi].verts {
			ni, ok := remap[vi]
			if !ok {
				ni = len(out)
				remap[vi] = ni
				out = append(out, verts[vi])
			}
			polys[pi].verts[i] = ni
		}
	}
	return out, polys
}

func linkPolys(polys []poly) {
	edges := make(map[edgeKey][]edgeRef)
	for pi := range polys {
		vs := polys[pi].verts
		polys[pi].neis = make([]int, len(vs))
		for i := range vs {
			polys[pi].neis[i] = -1
			k := keyOf(vs[i], vs[(i+1)%len(vs)])
			edges[k] = append(edges[k], edgeRef{pi, i})
		}
	}
	for _, refs := range edges {
		if len(refs) < 2 || refs[0].poly == refs[1].poly {
			continue
		}
		a, b := refs[0], refs[1]
		polys[a.poly].neis[a.edge] = b.poly
		polys[b.poly].neis[b.edge] = a.poly
	}
}

// connect snaps both ends of every connection onto the mesh. Connections
// with an end that does not land on a polygon are dropped.
func (e *Engine) connect(mesh *Mesh, conns []navigation.OffMeshConnection, s navigation.BuildSettings) []arc {
	var arcs []arc
	for i, c := range conns {
		r := max(c.Radius, s.CellSize)
		ext := physics.V3(r, r+s.AgentMaxClimb, r)
		sref, _, okStart := mesh.NearestPoly(c.Start, ext, nil)
		eref, _, okEnd := mesh.NearestPoly(c.End, ext, nil)
		if !okStart || !okEnd {
			e.log.Debug("Dropped off-mesh connection without surface", log.Int("index", i))
			continue
		}
		from, _ := mesh.index(sref)
		to, _ := mesh.index(eref)
		if from == to {
			continue
		}
		arcs = append(arcs, arc{from: from, to: to, start: c.Start, end: c.End, area: c.Area, flags: c.Flags})
		if c.Bidirectional {
			arcs = append(arcs, arc{from: to, to: from, start: c.End, end: c.Start, area: c.Area, flags: c.Flags})
		}
	}
	return arcs
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
