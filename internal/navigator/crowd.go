package navigator

import (
	"github.com/zeusync/crowdnav/internal/core/areas"
	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/params"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

func (n *Navmesh) requireCrowd(op string) bool {
	if !n.crowd.IsOpen() {
		n.fail(navigation.NotReady(op, navigation.ErrCrowdNotInitialized))
		return false
	}
	return true
}

// check logs err and reports whether the operation succeeded.
func (n *Navmesh) check(err error) bool {
	if err != nil {
		n.fail(err)
		return false
	}
	return true
}

// InitCrowd opens a crowd session on the built navmesh, releasing an open
// one first. Formations keep their members; stale handles are skipped by
// UpdateFormations.
func (n *Navmesh) InitCrowd(maxAgents int, maxAgentRadius float32) bool {
	return n.check(n.crowd.Init(n.mesh, maxAgents, maxAgentRadius))
}

// AddAgent adds an agent at pos and returns its index, or -1. Keys of p
// override the default agent parameters.
func (n *Navmesh) AddAgent(pos []float32, p map[string]float32) int {
	const op = "Add agent"
	if !n.requireCrowd(op) {
		return -1
	}
	v, ok := n.vec(op, pos)
	if !ok {
		return -1
	}
	idx, err := n.crowd.AddAgent(v, params.ParseAgentParams(p))
	if !n.check(err) {
		return -1
	}
	return idx
}

func (n *Navmesh) RemoveAgent(idx int) bool {
	return n.check(n.crowd.RemoveAgent(idx))
}

func (n *Navmesh) UpdateAgentParameters(idx int, p map[string]float32) bool {
	return n.check(n.crowd.UpdateAgentParameters(idx, params.ParseAgentParams(p)))
}

func (n *Navmesh) SetAgentTarget(idx int, pos []float32) bool {
	const op = "Set agent target"
	if !n.requireCrowd(op) {
		return false
	}
	v, ok := n.vec(op, pos)
	if !ok {
		return false
	}
	return n.check(n.crowd.SetTarget(idx, v))
}

func (n *Navmesh) SetAgentVelocity(idx int, vel []float32) bool {
	const op = "Set agent velocity"
	if !n.requireCrowd(op) {
		return false
	}
	v, ok := n.vec(op, vel)
	if !ok {
		return false
	}
	return n.check(n.crowd.SetVelocity(idx, v))
}

func (n *Navmesh) ResetAgentTarget(idx int) bool {
	return n.check(n.crowd.ResetTarget(idx))
}

func (n *Navmesh) GetAgentPosition(idx int) []float32 {
	p, err := n.crowd.Position(idx)
	if !n.check(err) {
		return []float32{}
	}
	return []float32{p.X, p.Y, p.Z}
}

func (n *Navmesh) GetAgentVelocity(idx int) []float32 {
	v, err := n.crowd.Velocity(idx)
	if !n.check(err) {
		return []float32{}
	}
	return []float32{v.X, v.Y, v.Z}
}

func (n *Navmesh) GetAgentState(idx int) map[string]float32 {
	st, err := n.crowd.State(idx)
	if !n.check(err) {
		return map[string]float32{}
	}
	return params.AgentStateMap(st)
}

func (n *Navmesh) GetAgentParameters(idx int) map[string]float32 {
	p, err := n.crowd.Parameters(idx)
	if !n.check(err) {
		return map[string]float32{}
	}
	return params.AgentParamsMap(p)
}

func (n *Navmesh) GetAgentNeighbors(idx int) []int {
	nb, err := n.crowd.Neighbors(idx)
	if !n.check(err) {
		return []int{}
	}
	return nb
}

// GetAgentCorners returns the next path corners of an agent as a flat list.
func (n *Navmesh) GetAgentCorners(idx int) []float32 {
	c, err := n.crowd.Corners(idx)
	if !n.check(err) {
		return []float32{}
	}
	return areas.Flatten(c)
}

func (n *Navmesh) GetAgentCount() int {
	if !n.requireCrowd("Get agent count") {
		return 0
	}
	return n.crowd.AgentCount()
}

func (n *Navmesh) GetMaxAgentCount() int {
	if !n.requireCrowd("Get max agent count") {
		return 0
	}
	return n.crowd.MaxAgentCount()
}

func (n *Navmesh) GetActiveAgents() []int {
	if !n.requireCrowd("Get active agents") {
		return []int{}
	}
	return n.crowd.ActiveAgents()
}

func (n *Navmesh) IsAgentActive(idx int) bool {
	if !n.requireCrowd("Is agent active") {
		return false
	}
	return n.crowd.IsActive(idx)
}

func (n *Navmesh) GetQueryHalfExtents() []float32 {
	e, err := n.crowd.QueryHalfExtents()
	if !n.check(err) {
		return []float32{}
	}
	return []float32{e.X, e.Y, e.Z}
}

func (n *Navmesh) GetObstacleAvoidanceParams(profile int) map[string]float32 {
	p, err := n.crowd.ObstacleAvoidanceParams(profile)
	if !n.check(err) {
		return map[string]float32{}
	}
	return params.AvoidanceMap(p)
}

func (n *Navmesh) SetObstacleAvoidanceParams(profile int, p map[string]float32) bool {
	return n.check(n.crowd.SetObstacleAvoidanceParams(profile, params.ParseAvoidance(p)))
}

func (n *Navmesh) GetQueryFilterAreaCost(filter, area int) float32 {
	c, err := n.crowd.QueryFilterAreaCost(filter, area)
	if !n.check(err) {
		return 0
	}
	return c
}

func (n *Navmesh) SetQueryFilterAreaCost(filter, area int, cost float32) bool {
	return n.check(n.crowd.SetQueryFilterAreaCost(filter, area, cost))
}

// GetQueryFilterFlags returns the include and exclude flags of a filter.
func (n *Navmesh) GetQueryFilterFlags(filter int) (uint16, uint16) {
	include, exclude, err := n.crowd.QueryFilterFlags(filter)
	if !n.check(err) {
		return 0, 0
	}
	return include, exclude
}

func (n *Navmesh) SetQueryFilterIncludeFlags(filter int, flags uint16) bool {
	return n.check(n.crowd.SetQueryFilterIncludeFlags(filter, flags))
}

func (n *Navmesh) SetQueryFilterExcludeFlags(filter int, flags uint16) bool {
	return n.check(n.crowd.SetQueryFilterExcludeFlags(filter, flags))
}

// UpdateCrowd advances every agent by dt seconds.
func (n *Navmesh) UpdateCrowd(dt float32) bool {
	return n.check(n.crowd.Tick(dt))
}

// Tick retargets every formation and then advances the crowd. A rejected
// dt is reported once.
func (n *Navmesh) Tick(dt float32) bool {
	formed := n.UpdateFormations(dt)
	if !physics.IsFinite(dt) || dt < 0 {
		return false
	}
	return n.UpdateCrowd(dt) && formed
}
