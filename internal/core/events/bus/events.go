package bus

import "github.com/zeusync/crowdnav/internal/core/systems/physics"

// Event types published by the navigation layer.
const (
	TypeMeshBuilt        = "mesh.built"
	TypeCrowdOpened      = "crowd.opened"
	TypeCrowdClosed      = "crowd.closed"
	TypeAgentAdded       = "agent.added"
	TypeAgentRemoved     = "agent.removed"
	TypeFormationCreated = "formation.created"
	TypeFormationDeleted = "formation.deleted"
)

// CrowdSession describes a crowd session that opened or closed.
type CrowdSession struct {
	Session   string
	MaxAgents int
	MaxRadius float32
}

// AgentChange describes an agent entering or leaving the crowd.
type AgentChange struct {
	Session  string
	Handle   int
	Position physics.Vec3
}

// FormationChange describes a formation being created or deleted.
type FormationChange struct {
	ID    int
	Shape string
}

// MeshSummary describes a freshly built or loaded navmesh.
type MeshSummary struct {
	Polygons    int
	Vertices    int
	Connections int
}
