package navigation

import (
	"fmt"

	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

const (
	// MaxAreas is the number of distinct area tags a query filter can price.
	MaxAreas = 64
	// MaxObstacleAvoidanceProfiles is the number of avoidance parameter slots.
	MaxObstacleAvoidanceProfiles = 8
	// MaxQueryFilterProfiles is the number of query filter slots of a crowd.
	MaxQueryFilterProfiles = 16
	// MaxAgentCorners is the number of path corners kept per agent.
	MaxAgentCorners = 4
	// MaxAgentNeighbors is the number of neighbors tracked per agent.
	MaxAgentNeighbors = 6
	// MaxConvexVolumePoints bounds the footprint of an area marker.
	MaxConvexVolumePoints = 12
	// MinConvexVolumePoints is the smallest footprint of an area marker.
	MinConvexVolumePoints = 3
)

// NearestPolyExtents is the search box half size used when snapping path
// endpoints and move targets onto the mesh.
var NearestPolyExtents = physics.V3(2, 4, 2)

// Area tags. AreaNull removes a region from the mesh during build and
// AreaWalkable is the tag every walkable triangle starts with; after the build
// it is exported as AreaGround.
const (
	AreaNull     uint8 = 0
	AreaGround   uint8 = 0
	AreaWater    uint8 = 1
	AreaRoad     uint8 = 2
	AreaDoor     uint8 = 3
	AreaGrass    uint8 = 4
	AreaJump     uint8 = 5
	AreaWalkable uint8 = 63
)

// Poly flags used by query filters.
const (
	FlagWalk     uint16 = 0x01
	FlagSwim     uint16 = 0x02
	FlagDoor     uint16 = 0x04
	FlagJump     uint16 = 0x08
	FlagDisabled uint16 = 0x10
	FlagAll      uint16 = 0xffff
)

// FlagsForArea is the default flag assignment of a polygon with the given
// area tag.
func FlagsForArea(area uint8) uint16 {
	switch area {
	case AreaGround, AreaGrass, AreaRoad:
		return FlagWalk
	case AreaWater:
		return FlagSwim
	case AreaDoor:
		return FlagWalk | FlagDoor
	case AreaJump:
		return FlagJump
	default:
		return FlagWalk
	}
}

// PolyRef identifies a polygon of a built mesh. Zero is the invalid reference.
type PolyRef uint32

// PartitionType selects the region partitioning used by a mesh build.
type PartitionType uint8

const (
	PartitionWatershed PartitionType = iota
	PartitionMonotone
	PartitionLayers
)

func (p PartitionType) String() string {
	switch p {
	case PartitionWatershed:
		return "watershed"
	case PartitionMonotone:
		return "monotone"
	case PartitionLayers:
		return "layers"
	default:
		return fmt.Sprintf("partition(%d)", uint8(p))
	}
}

func (p PartitionType) Valid() bool {
	return p <= PartitionLayers
}

// ParsePartitionType accepts the names produced by String.
func ParsePartitionType(s string) (PartitionType, error) {
	switch s {
	case "watershed", "":
		return PartitionWatershed, nil
	case "monotone":
		return PartitionMonotone, nil
	case "layers":
		return PartitionLayers, nil
	default:
		return 0, fmt.Errorf("%w: unknown partition type %q", ErrInvalidInput, s)
	}
}

// BuildSettings are the scalar parameters consumed by a mesh build.
type BuildSettings struct {
	CellSize             float32
	CellHeight           float32
	AgentHeight          float32
	AgentRadius          float32
	AgentMaxClimb        float32
	AgentMaxSlope        float32
	RegionMinSize        float32
	RegionMergeSize      float32
	EdgeMaxLen           float32
	EdgeMaxError         float32
	VertsPerPoly         float32
	DetailSampleDist     float32
	DetailSampleMaxError float32
	PartitionType        PartitionType
}

// DefaultBuildSettings returns the common settings of a fresh geometry.
func DefaultBuildSettings() BuildSettings {
	return BuildSettings{
		CellSize:             0.3,
		CellHeight:           0.2,
		AgentHeight:          2.0,
		AgentRadius:          0.6,
		AgentMaxClimb:        0.9,
		AgentMaxSlope:        45,
		RegionMinSize:        8,
		RegionMergeSize:      20,
		EdgeMaxLen:           12,
		EdgeMaxError:         1.3,
		VertsPerPoly:         6,
		DetailSampleDist:     6,
		DetailSampleMaxError: 1,
		PartitionType:        PartitionWatershed,
	}
}

// Crowd agent update flags.
const (
	UpdateAnticipateTurns   uint8 = 1
	UpdateObstacleAvoidance uint8 = 2
	UpdateSeparation        uint8 = 4
	UpdateOptimizeVis       uint8 = 8
	UpdateOptimizeTopo      uint8 = 16
)

// DefaultUpdateFlags enables turn anticipation, visibility and topology
// optimization and obstacle avoidance.
const DefaultUpdateFlags = UpdateAnticipateTurns | UpdateOptimizeVis | UpdateOptimizeTopo | UpdateObstacleAvoidance

// AgentParams is the fixed parameter set of a crowd agent.
type AgentParams struct {
	Radius                float32
	Height                float32
	MaxAcceleration       float32
	MaxSpeed              float32
	CollisionQueryRange   float32
	PathOptimizationRange float32
	SeparationWeight      float32
	UpdateFlags           uint8
	ObstacleAvoidanceType uint8
	QueryFilterType       uint8
}

// ObstacleAvoidanceParams tune the velocity sampling of one avoidance profile.
type ObstacleAvoidanceParams struct {
	VelBias       float32
	WeightDesVel  float32
	WeightCurVel  float32
	WeightSide    float32
	WeightToi     float32
	HorizTime     float32
	GridSize      uint8
	AdaptiveDivs  uint8
	AdaptiveRings uint8
	AdaptiveDepth uint8
}

// DefaultObstacleAvoidanceParams is the profile every slot starts with.
func DefaultObstacleAvoidanceParams() ObstacleAvoidanceParams {
	return ObstacleAvoidanceParams{
		VelBias:       0.4,
		WeightDesVel:  2.0,
		WeightCurVel:  0.75,
		WeightSide:    0.75,
		WeightToi:     2.5,
		HorizTime:     2.5,
		GridSize:      33,
		AdaptiveDivs:  7,
		AdaptiveRings: 2,
		AdaptiveDepth: 5,
	}
}

// QueryFilter prices areas and gates polygons by flags.
type QueryFilter struct {
	AreaCost     [MaxAreas]float32
	IncludeFlags uint16
	ExcludeFlags uint16
}

// DefaultQueryFilter accepts every flagged polygon at unit cost.
func DefaultQueryFilter() QueryFilter {
	f := QueryFilter{IncludeFlags: FlagAll}
	for i := range f.AreaCost {
		f.AreaCost[i] = 1
	}
	return f
}

// Passes reports whether a polygon with the given flags may be traversed.
func (f *QueryFilter) Passes(flags uint16) bool {
	return flags&f.IncludeFlags != 0 && flags&f.ExcludeFlags == 0
}

// Cost returns the traversal cost multiplier of area. Unknown areas cost 1.
func (f *QueryFilter) Cost(area uint8) float32 {
	if int(area) >= MaxAreas {
		return 1
	}
	return f.AreaCost[area]
}

// MoveState is the movement request state of an agent. The numeric values
// match the target states reported in agent snapshots.
type MoveState uint8

const (
	MoveIdle       MoveState = 0
	MoveFailed     MoveState = 1
	MoveToTarget   MoveState = 2
	MoveByVelocity MoveState = 6
)

func (m MoveState) String() string {
	switch m {
	case MoveIdle:
		return "idle"
	case MoveFailed:
		return "failed"
	case MoveToTarget:
		return "moving-to-target"
	case MoveByVelocity:
		return "moving-by-velocity"
	default:
		return fmt.Sprintf("move(%d)", uint8(m))
	}
}

// WalkState tells whether an agent is on the surface or on an off-mesh link.
type WalkState uint8

const (
	WalkInvalid WalkState = iota
	WalkWalking
	WalkOffMesh
)

// AgentState is a read-only snapshot of a crowd agent.
type AgentState struct {
	Active           bool
	State            WalkState
	Partial          bool
	Position         physics.Vec3
	Velocity         physics.Vec3
	DesiredVelocity  physics.Vec3
	SteeringVelocity physics.Vec3
	DesiredSpeed     float32
	Params           AgentParams
	MoveState        MoveState
	TargetRef        PolyRef
	TargetPos        physics.Vec3
	Corners          []physics.Vec3
	Neighbors        []int
}

// ConvexVolume is an area marker: a convex footprint with a height range.
type ConvexVolume struct {
	Verts []physics.Vec3
	HMin  float32
	HMax  float32
	Area  uint8
}

// Contains reports whether p lies inside the footprint and height range.
func (v ConvexVolume) Contains(p physics.Vec3) bool {
	if p.Y < v.HMin || p.Y > v.HMax {
		return false
	}
	return physics.PointInPolygon2D(p, v.Verts)
}

// OffMeshConnection links two points not joined by the walkable surface.
type OffMeshConnection struct {
	Start         physics.Vec3
	End           physics.Vec3
	Radius        float32
	Bidirectional bool
	Area          uint8
	Flags         uint16
}

// Geometry is indexed triangle soup. Vertices holds xyz triples and Faces
// holds vertex index triples.
type Geometry struct {
	Vertices []float32
	Faces    []int
}

// Validate checks buffer shapes and index ranges.
func (g Geometry) Validate() error {
	if len(g.Vertices) < 9 || len(g.Vertices)%3 != 0 {
		return fmt.Errorf("%w: vertex buffer must hold at least 3 xyz triples", ErrInvalidInput)
	}
	if len(g.Faces) < 3 || len(g.Faces)%3 != 0 {
		return fmt.Errorf("%w: face buffer must hold index triples", ErrInvalidInput)
	}
	n := len(g.Vertices) / 3
	for i, idx := range g.Faces {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: face index %d at %d out of range", ErrInvalidInput, idx, i)
		}
	}
	return nil
}

// Vertex returns vertex i.
func (g Geometry) Vertex(i int) physics.Vec3 {
	return physics.V3(g.Vertices[3*i], g.Vertices[3*i+1], g.Vertices[3*i+2])
}

// Bounds returns the axis aligned bounds of all vertices.
func (g Geometry) Bounds() (physics.Vec3, physics.Vec3) {
	if len(g.Vertices) < 3 {
		return physics.Vec3{}, physics.Vec3{}
	}
	bmin := g.Vertex(0)
	bmax := bmin
	for i := 1; i < len(g.Vertices)/3; i++ {
		v := g.Vertex(i)
		bmin = physics.V3(min(bmin.X, v.X), min(bmin.Y, v.Y), min(bmin.Z, v.Z))
		bmax = physics.V3(max(bmax.X, v.X), max(bmax.Y, v.Y), max(bmax.Z, v.Z))
	}
	return bmin, bmax
}

// BuildInput is everything a mesh build consumes.
type BuildInput struct {
	Geometry    Geometry
	Settings    BuildSettings
	Volumes     []ConvexVolume
	Connections []OffMeshConnection
}

// Polygon is one convex polygon of a built mesh.
type Polygon struct {
	Verts []int
	Area  uint8
	Flags uint16
}

// StraightPathMode selects which portal crossings are added to a straight
// path.
type StraightPathMode int

const (
	StraightPathCorners StraightPathMode = iota
	StraightPathAreaCrossings
	StraightPathAllCrossings
)

func (m StraightPathMode) Valid() bool {
	return m >= StraightPathCorners && m <= StraightPathAllCrossings
}

// StraightPath is the result of a path query.
type StraightPath struct {
	Points  []physics.Vec3
	Partial bool
}

// RaycastHit is the result of a surface raycast. When Hit is false the ray
// reached its end point.
type RaycastHit struct {
	Hit    bool
	T      float32
	Point  physics.Vec3
	Normal physics.Vec3
}
