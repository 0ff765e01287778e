package navigator

import (
	"github.com/zeusync/crowdnav/internal/core/formation"
)

// CreateFormation creates an empty formation and returns its id, or -1.
// shape is the numeric value of formation.Shape.
func (n *Navmesh) CreateFormation(shape int, spacing float32) int {
	id, err := n.formations.Create(formation.Shape(shape), spacing)
	if !n.check(err) {
		return -1
	}
	return id
}

func (n *Navmesh) DeleteFormation(id int) bool {
	return n.check(n.formations.Delete(id))
}

func (n *Navmesh) AddAgentToFormation(id, agent int) bool {
	return n.check(n.formations.AddAgent(id, agent))
}

// RemoveAgentFromFormation reports whether agent was removed from the
// formation it belonged to.
func (n *Navmesh) RemoveAgentFromFormation(agent int) bool {
	removed, err := n.formations.RemoveAgent(agent)
	if !n.check(err) {
		return false
	}
	return removed
}

// SetFormationTarget sets the anchor and facing of a formation. A
// degenerate direction faces +Z.
func (n *Navmesh) SetFormationTarget(id int, pos, dir []float32) bool {
	const op = "Set formation target"
	p, ok := n.vec(op, pos)
	if !ok {
		return false
	}
	d, ok := n.vec(op, dir)
	if !ok {
		return false
	}
	return n.check(n.formations.SetTarget(id, p, d))
}

func (n *Navmesh) SetFormationLeader(id, agent int) bool {
	return n.check(n.formations.SetLeader(id, agent))
}

func (n *Navmesh) GetFormationAgents(id int) []int {
	members, err := n.formations.Members(id)
	if !n.check(err) {
		return []int{}
	}
	return members
}

func (n *Navmesh) GetFormationInfo(id int) map[string]float32 {
	f, err := n.formations.Info(id)
	if !n.check(err) {
		return map[string]float32{}
	}
	return formation.InfoMap(f)
}

func (n *Navmesh) GetFormationCount() int {
	return n.formations.Count()
}

// GetFormationIDs returns the live formation ids in ascending order.
func (n *Navmesh) GetFormationIDs() []int {
	return n.formations.IDs()
}

// UpdateFormations sends the members of every targeted formation to their
// slots.
func (n *Navmesh) UpdateFormations(dt float32) bool {
	return n.check(n.formations.Update(dt))
}
