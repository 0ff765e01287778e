package navigator

import (
	"context"
	"fmt"

	"github.com/zeusync/crowdnav/internal/core/areas"
	"github.com/zeusync/crowdnav/internal/core/geometry"
	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
	"github.com/zeusync/crowdnav/pkg/concurrent"
)

// wallSearchRadius bounds DistanceToWall.
const wallSearchRadius = 100

// vec reads a flat vector and logs the failure.
func (n *Navmesh) vec(op string, v []float32) (physics.Vec3, bool) {
	p, err := areas.Vec3(op, v)
	if err != nil {
		n.fail(err)
		return physics.Vec3{}, false
	}
	return p, true
}

// GetBoundingBox returns bmin followed by bmax of the input geometry.
func (n *Navmesh) GetBoundingBox() []float32 {
	if !n.requireGeometry("Get navmesh bounding box") {
		return []float32{}
	}
	return geometry.BoundingBox(*n.geom)
}

// GetTriangulation returns the navmesh vertices and three indices per
// triangle.
func (n *Navmesh) GetTriangulation() ([]float32, []int) {
	if !n.requireMesh("Get navmesh triangulation") {
		return []float32{}, []int{}
	}
	return geometry.Triangulation(n.mesh)
}

// GetPolygonization returns the navmesh vertices, the concatenated polygon
// indices and the size of every polygon.
func (n *Navmesh) GetPolygonization() ([]float32, []int, []int) {
	if !n.requireMesh("Get navmesh polygonization") {
		return []float32{}, []int{}, []int{}
	}
	return geometry.Polygonization(n.mesh)
}

// HitMesh returns the first point where start-end hits the input geometry,
// or end when nothing is hit.
func (n *Navmesh) HitMesh(start, end []float32) []float32 {
	const op = "Hit mesh"
	s, ok := n.vec(op, start)
	if !ok {
		return []float32{}
	}
	e, ok := n.vec(op, end)
	if !ok {
		return []float32{}
	}
	if !n.requireGeometry(op) {
		return []float32{}
	}
	p, _ := geometry.HitMesh(*n.geom, s, e)
	return []float32{p.X, p.Y, p.Z}
}

func pathMode(op string, mode int) (navigation.StraightPathMode, error) {
	m := navigation.StraightPathMode(mode)
	if !m.Valid() {
		return 0, navigation.Invalid(op, nil, "unknown path mode %d", mode)
	}
	return m, nil
}

// FindStraightPath returns the path points from start to end as a flat
// list. A partial path ends at the reachable point closest to end.
func (n *Navmesh) FindStraightPath(start, end []float32, mode int) []float32 {
	const op = "Find straight path"
	if !n.requireMesh(op) {
		return []float32{}
	}
	s, ok := n.vec(op, start)
	if !ok {
		return []float32{}
	}
	e, ok := n.vec(op, end)
	if !ok {
		return []float32{}
	}
	m, err := pathMode(op, mode)
	if err != nil {
		n.fail(err)
		return []float32{}
	}
	path, err := n.mesh.StraightPath(s, e, nil, m)
	if err != nil {
		n.fail(failure(op, err, "fail to find path"))
		return []float32{}
	}
	if path.Partial {
		n.log.Warn(op+": end is not reachable, returning partial path", log.Int("points", len(path.Points)))
	}
	return areas.Flatten(path.Points)
}

type pathResult struct {
	path navigation.StraightPath
	err  error
}

// FindStraightPathBatch solves one path per 6 floats of coords (start then
// end). Every result is written as its point count followed by the points;
// a failed pair is written as a count of 0.
func (n *Navmesh) FindStraightPathBatch(coords []float32, mode int) []float32 {
	const op = "Find straight path batch"
	if !n.requireMesh(op) {
		return []float32{}
	}
	if len(coords)%6 != 0 {
		n.fail(navigation.Invalid(op, navigation.ErrInvalidVector, "invalid input vector with coordinates (length %d is not a multiple of 6)", len(coords)))
		return []float32{}
	}
	m, err := pathMode(op, mode)
	if err != nil {
		n.fail(err)
		return []float32{}
	}

	pairs := make([]int, len(coords)/6)
	for i := range pairs {
		pairs[i] = i
	}
	mesh := n.mesh
	results, err := concurrent.OrderedMap(context.Background(), pairs, n.workers,
		func(_ context.Context, i int) (pathResult, error) {
			c := coords[6*i : 6*i+6]
			path, err := mesh.StraightPath(physics.V3(c[0], c[1], c[2]), physics.V3(c[3], c[4], c[5]), nil, m)
			return pathResult{path: path, err: err}, nil
		})
	if err != nil {
		n.fail(navigation.EngineFailure(op, err, "%v", err))
		return []float32{}
	}

	out := make([]float32, 0, len(coords))
	for i, r := range results {
		if r.err != nil {
			n.fail(failure(op, r.err, fmt.Sprintf("fail to find path of pair %d", i)))
			out = append(out, 0)
			continue
		}
		out = append(out, float32(len(r.path.Points)))
		out = append(out, areas.Flatten(r.path.Points)...)
	}
	return out
}

// Raycast walks the surface from start towards end and returns start
// followed by the point where the ray stopped.
func (n *Navmesh) Raycast(start, end []float32) []float32 {
	const op = "Raycast"
	if !n.requireMesh(op) {
		return []float32{}
	}
	s, ok := n.vec(op, start)
	if !ok {
		return []float32{}
	}
	e, ok := n.vec(op, end)
	if !ok {
		return []float32{}
	}
	hit, err := n.mesh.Raycast(s, e, nil)
	if err != nil {
		n.fail(failure(op, err, "fail to cast ray"))
		return []float32{}
	}
	return []float32{s.X, s.Y, s.Z, hit.Point.X, hit.Point.Y, hit.Point.Z}
}

// DistanceToWall returns the distance from point to the closest navmesh
// boundary, capped at 100.
func (n *Navmesh) DistanceToWall(point []float32) float32 {
	const op = "Distance to wall"
	if !n.requireMesh(op) {
		return 0
	}
	p, ok := n.vec(op, point)
	if !ok {
		return 0
	}
	d, err := n.mesh.DistanceToWall(p, wallSearchRadius, nil)
	if err != nil {
		n.fail(failure(op, err, "fail to find wall"))
		return 0
	}
	return d
}
