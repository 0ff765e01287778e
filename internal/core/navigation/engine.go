package navigation

import "github.com/zeusync/crowdnav/internal/core/systems/physics"

// Engine builds and loads navigation meshes and opens crowd sessions on them.
// It is the only collaborator that rasterizes geometry, searches paths and
// steers agents.
type Engine interface {
	Build(in BuildInput) (Mesh, error)
	Load(data []byte) (Mesh, error)
	NewCrowd(mesh Mesh, maxAgents int, maxAgentRadius float32) (Crowd, error)
}

// Mesh is a built navigation mesh. Queries never mutate it.
type Mesh interface {
	Bounds() (physics.Vec3, physics.Vec3)
	Vertices() []physics.Vec3
	// Polygons returns the surface polygons. Off-mesh links are not polygons.
	Polygons() []Polygon

	NearestPoly(center, halfExtents physics.Vec3, filter *QueryFilter) (PolyRef, physics.Vec3, bool)
	StraightPath(start, end physics.Vec3, filter *QueryFilter, mode StraightPathMode) (StraightPath, error)
	Raycast(start, end physics.Vec3, filter *QueryFilter) (RaycastHit, error)
	DistanceToWall(center physics.Vec3, maxRadius float32, filter *QueryFilter) (float32, error)

	MarshalBinary() ([]byte, error)
}

// Crowd is one crowd session. Agent indices are slots in [0, MaxAgents).
type Crowd interface {
	MaxAgents() int
	AddAgent(pos physics.Vec3, params AgentParams) (int, error)
	RemoveAgent(idx int)
	Agent(idx int) (AgentState, bool)
	UpdateAgentParameters(idx int, params AgentParams) error

	RequestMoveTarget(idx int, ref PolyRef, pos physics.Vec3) error
	RequestMoveVelocity(idx int, vel physics.Vec3) error
	ResetMoveTarget(idx int) error

	Update(dt float32)

	ObstacleAvoidanceParams(profile int) (ObstacleAvoidanceParams, bool)
	SetObstacleAvoidanceParams(profile int, params ObstacleAvoidanceParams) bool
	// Filter returns the live query filter of a profile, or nil when the
	// profile does not exist.
	Filter(profile int) *QueryFilter
	QueryHalfExtents() physics.Vec3

	Release()
}
