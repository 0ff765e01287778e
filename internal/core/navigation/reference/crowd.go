package reference

import (
	"fmt"
	"sort"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

var _ navigation.Crowd = (*Crowd)(nil)

const (
	replanInterval         = 1.0
	collisionIterations    = 4
	collisionResolveFactor = 0.7
)

type agent struct {
	active       bool
	state        navigation.WalkState
	partial      bool
	ref          navigation.PolyRef
	pos          physics.Vec3
	vel          physics.Vec3
	dvel         physics.Vec3
	nvel         physics.Vec3
	disp         physics.Vec3
	desiredSpeed float32
	params       navigation.AgentParams

	moveState   navigation.MoveState
	targetRef   navigation.PolyRef
	targetPos   physics.Vec3
	replan      bool
	replanTimer float32

	path      []physics.Vec3
	pathIdx   int
	corners   []physics.Vec3
	neighbors []int
}

// Crowd steps a fixed pool of agents over one mesh.
type Crowd struct {
	mesh        *Mesh
	agents      []agent
	avoidance   [navigation.MaxObstacleAvoidanceProfiles]navigation.ObstacleAvoidanceParams
	filters     [navigation.MaxQueryFilterProfiles]navigation.QueryFilter
	halfExtents physics.Vec3
	log         log.Log
	released    bool
}

func newCrowd(mesh *Mesh, maxAgents int, maxAgentRadius float32, logger log.Log) *Crowd {
	c := &Crowd{
		mesh:        mesh,
		agents:      make([]agent, maxAgents),
		halfExtents: physics.V3(maxAgentRadius*2, maxAgentRadius*1.5, maxAgentRadius*2),
		log:         logger,
	}
	for i := range c.avoidance {
		c.avoidance[i] = navigation.DefaultObstacleAvoidanceParams()
	}
	for i := range c.filters {
		c.filters[i] = navigation.DefaultQueryFilter()
	}
	return c
}

func (c *Crowd) MaxAgents() int {
	return len(c.agents)
}

func (c *Crowd) QueryHalfExtents() physics.Vec3 {
	return c.halfExtents
}

func (c *Crowd) Release() {
	c.released = true
	c.agents = nil
}

func (c *Crowd) filterOf(a *agent) *navigation.QueryFilter {
	if int(a.params.QueryFilterType) < len(c.filters) {
		return &c.filters[a.params.QueryFilterType]
	}
	return &c.filters[0]
}

func (c *Crowd) AddAgent(pos physics.Vec3, params navigation.AgentParams) (int, error) {
	if c.released {
		return -1, fmt.Errorf("%w: crowd was released", navigation.ErrEngine)
	}
	if !pos.IsFinite() {
		return -1, fmt.Errorf("%w: %w", navigation.ErrInvalidInput, navigation.ErrInvalidVector)
	}
	idx := -1
	for i := range c.agents {
		if !c.agents[i].active {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, fmt.Errorf("%w: %w: crowd holds %d agents", navigation.ErrEngine, navigation.ErrCapacityExceeded, len(c.agents))
	}

	a := agent{active: true, params: params, moveState: navigation.MoveIdle, pos: pos, state: navigation.WalkInvalid}
	if ref, pt, ok := c.mesh.NearestPoly(pos, c.halfExtents, c.filterOf(&a)); ok {
		a.ref, a.pos, a.state = ref, pt, navigation.WalkWalking
	}
	c.agents[idx] = a
	return idx, nil
}

func (c *Crowd) RemoveAgent(idx int) {
	if idx >= 0 && idx < len(c.agents) {
		c.agents[idx] = agent{}
	}
}

func (c *Crowd) Agent(idx int) (navigation.AgentState, bool) {
	if idx < 0 || idx >= len(c.agents) {
		return navigation.AgentState{}, false
	}
	a := &c.agents[idx]
	return navigation.AgentState{
		Active:           a.active,
		State:            a.state,
		Partial:          a.partial,
		Position:         a.pos,
		Velocity:         a.vel,
		DesiredVelocity:  a.dvel,
		SteeringVelocity: a.nvel,
		DesiredSpeed:     a.desiredSpeed,
		Params:           a.params,
		MoveState:        a.moveState,
		TargetRef:        a.targetRef,
		TargetPos:        a.targetPos,
		Corners:          append([]physics.Vec3(nil), a.corners...),
		Neighbors:        append([]int(nil), a.neighbors...),
	}, true
}

func (c *Crowd) activeAgent(idx int) (*agent, error) {
	if idx < 0 || idx >= len(c.agents) || !c.agents[idx].active {
		return nil, fmt.Errorf("%w: %w", navigation.ErrInvalidInput, navigation.ErrInvalidAgent)
	}
	return &c.agents[idx], nil
}

func (c *Crowd) UpdateAgentParameters(idx int, params navigation.AgentParams) error {
	a, err := c.activeAgent(idx)
	if err != nil {
		return err
	}
	a.params = params
	return nil
}

// RequestMoveTarget sets a surface target. A zero ref asks the crowd to
// resolve the polygon itself within its query half extents.
func (c *Crowd) RequestMoveTarget(idx int, ref navigation.PolyRef, pos physics.Vec3) error {
	a, err := c.activeAgent(idx)
	if err != nil {
		return err
	}
	if ref == 0 {
		r, pt, ok := c.mesh.NearestPoly(pos, c.halfExtents, c.filterOf(a))
		if !ok {
			return fmt.Errorf("%w: %w", navigation.ErrEngine, navigation.ErrNoNearbyPolygon)
		}
		ref, pos = r, pt
	} else if _, ok := c.mesh.index(ref); !ok {
		return fmt.Errorf("%w: unknown polygon %d", navigation.ErrInvalidInput, ref)
	}
	if a.moveState == navigation.MoveToTarget && a.targetRef == ref && a.targetPos.DistSqr(pos) < 1e-6 {
		return nil
	}
	a.targetRef, a.targetPos = ref, pos
	a.moveState = navigation.MoveToTarget
	a.replan = true
	return nil
}

// RequestMoveVelocity steers the agent with a fixed velocity. The velocity is
// reported as the target position of the agent, like the native crowd does.
func (c *Crowd) RequestMoveVelocity(idx int, vel physics.Vec3) error {
	a, err := c.activeAgent(idx)
	if err != nil {
		return err
	}
	a.targetRef = 0
	a.targetPos = vel
	a.moveState = navigation.MoveByVelocity
	a.path, a.corners = nil, nil
	return nil
}

func (c *Crowd) ResetMoveTarget(idx int) error {
	a, err := c.activeAgent(idx)
	if err != nil {
		return err
	}
	a.targetRef = 0
	a.targetPos = physics.Vec3{}
	a.moveState = navigation.MoveIdle
	a.dvel = physics.Vec3{}
	a.path, a.corners = nil, nil
	return nil
}

func (c *Crowd) ObstacleAvoidanceParams(profile int) (navigation.ObstacleAvoidanceParams, bool) {
	if profile < 0 || profile >= len(c.avoidance) {
		return navigation.ObstacleAvoidanceParams{}, false
	}
	return c.avoidance[profile], true
}

func (c *Crowd) SetObstacleAvoidanceParams(profile int, params navigation.ObstacleAvoidanceParams) bool {
	if profile < 0 || profile >= len(c.avoidance) {
		return false
	}
	c.avoidance[profile] = params
	return true
}

func (c *Crowd) Filter(profile int) *navigation.QueryFilter {
	if profile < 0 || profile >= len(c.filters) {
		return nil
	}
	return &c.filters[profile]
}

// Update advances every walking agent by dt seconds: plan, find neighbors,
// steer, avoid, integrate, push apart and snap back to the surface.
func (c *Crowd) Update(dt float32) {
	if c.released || !(dt > 0) {
		return
	}
	var walking []int
	for i := range c.agents {
		a := &c.agents[i]
		if !a.active {
			continue
		}
		if a.state == navigation.WalkInvalid {
			if ref, pt, ok := c.mesh.NearestPoly(a.pos, c.halfExtents, c.filterOf(a)); ok {
				a.ref, a.pos, a.state = ref, pt, navigation.WalkWalking
			}
		}
		if a.state == navigation.WalkWalking {
			walking = append(walking, i)
		}
	}

	for _, i := range walking {
		a := &c.agents[i]
		if a.moveState != navigation.MoveToTarget {
			continue
		}
		a.replanTimer += dt
		if a.replan || a.replanTimer >= replanInterval {
			c.plan(i, a)
		}
		c.advanceCorners(a)
	}

	for _, i := range walking {
		c.agents[i].neighbors = c.findNeighbors(i, walking)
	}

	for _, i := range walking {
		c.steer(&c.agents[i])
	}

	for _, i := range walking {
		a := &c.agents[i]
		if a.params.UpdateFlags&navigation.UpdateObstacleAvoidance != 0 && len(a.neighbors) > 0 {
			a.nvel = c.sampleVelocity(i)
		} else {
			a.nvel = a.dvel
		}
	}

	for _, i := range walking {
		integrate(&c.agents[i], dt)
	}

	for iter := 0; iter < collisionIterations; iter++ {
		for _, i := range walking {
			c.agents[i].disp = c.separationDisplacement(i)
		}
		for _, i := range walking {
			a := &c.agents[i]
			a.pos = a.pos.Add(a.disp)
		}
	}

	for _, i := range walking {
		a := &c.agents[i]
		if ref, pt, ok := c.mesh.NearestPoly(a.pos, c.halfExtents, c.filterOf(a)); ok {
			a.ref, a.pos = ref, pt
		}
		c.checkArrival(a)
	}
}

func (c *Crowd) plan(idx int, a *agent) {
	a.replan = false
	a.replanTimer = 0
	sp, err := c.mesh.StraightPath(a.pos, a.targetPos, c.filterOf(a), navigation.StraightPathCorners)
	if err != nil || len(sp.Points) == 0 {
		c.log.Debug("Agent path planning failed", log.Int("agent", idx), log.Error(err))
		a.moveState = navigation.MoveFailed
		a.path, a.corners = nil, nil
		a.dvel = physics.Vec3{}
		return
	}
	a.path = sp.Points
	a.partial = sp.Partial
	a.pathIdx = min(1, len(a.path)-1)
}

func cornerReach(a *agent) float32 {
	return max(a.params.Radius*0.5, 0.1)
}

func (c *Crowd) advanceCorners(a *agent) {
	if len(a.path) == 0 {
		a.corners = nil
		return
	}
	for a.pathIdx < len(a.path)-1 {
		cur := a.path[a.pathIdx]
		prev := a.path[max(a.pathIdx-1, 0)]
		seg := cur.Sub(prev).Horizontal()
		beyond := seg.Dot(a.pos.Sub(cur).Horizontal()) > 0
		if a.pos.Dist2D(cur) > cornerReach(a) && !beyond {
			break
		}
		a.pathIdx++
	}
	end := min(a.pathIdx+navigation.MaxAgentCorners, len(a.path))
	a.corners = append(a.corners[:0], a.path[a.pathIdx:end]...)
}

func (c *Crowd) findNeighbors(idx int, walking []int) []int {
	a := &c.agents[idx]
	r2 := a.params.CollisionQueryRange * a.params.CollisionQueryRange
	type cand struct {
		idx  int
		dist float32
	}
	var cands []cand
	for _, j := range walking {
		if j == idx {
			continue
		}
		b := &c.agents[j]
		dy := a.pos.Y - b.pos.Y
		if dy < 0 {
			dy = -dy
		}
		if dy >= (a.params.Height+b.params.Height)*0.5 {
			continue
		}
		if d := a.pos.DistSqr(b.pos); d < r2 {
			cands = append(cands, cand{j, d})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].idx < cands[j].idx
	})
	out := make([]int, 0, min(len(cands), navigation.MaxAgentNeighbors))
	for _, cd := range cands {
		if len(out) == navigation.MaxAgentNeighbors {
			break
		}
		out = append(out, cd.idx)
	}
	return out
}

func (c *Crowd) steer(a *agent) {
	var dvel physics.Vec3
	switch a.moveState {
	case navigation.MoveToTarget:
		if len(a.corners) > 0 {
			dir := steerDirection(a)
			speed := a.params.MaxSpeed
			if a.pathIdx == len(a.path)-1 {
				slow := a.params.Radius * 2
				if d := a.pos.Dist2D(a.corners[0]); slow > 0 && d < slow {
					speed *= d / slow
				}
			}
			dvel = dir.Scale(speed)
		}
	case navigation.MoveByVelocity:
		dvel = a.targetPos.Horizontal()
	}

	if a.params.UpdateFlags&navigation.UpdateSeparation != 0 && len(a.neighbors) > 0 {
		sep := a.params.CollisionQueryRange
		var disp physics.Vec3
		for _, j := range a.neighbors {
			diff := a.pos.Sub(c.agents[j].pos).Horizontal()
			d2 := diff.Dot(diff)
			if d2 < 1e-5 || d2 > sep*sep {
				continue
			}
			d := sqrt32(d2)
			w := a.params.SeparationWeight * (1 - (d*d)/(sep*sep))
			disp = disp.Mad(diff, w/d)
		}
		if disp.Dot(disp) > 1e-4 {
			dvel = dvel.Add(disp).ClampLength(a.params.MaxSpeed)
		}
	}

	a.dvel = dvel
	a.desiredSpeed = dvel.Length2D()
}

// steerDirection aims at the first corner, bending toward the second one
// when turn anticipation is enabled.
func steerDirection(a *agent) physics.Vec3 {
	dir0 := a.corners[0].Sub(a.pos).Horizontal()
	if a.params.UpdateFlags&navigation.UpdateAnticipateTurns == 0 || len(a.corners) < 2 {
		return dir0.Normalize()
	}
	dir1 := a.corners[1].Sub(a.pos).Horizontal().Normalize()
	return dir0.Sub(dir1.Scale(dir0.Length() * 0.5)).Normalize()
}

func integrate(a *agent, dt float32) {
	dv := a.nvel.Sub(a.vel)
	maxDelta := a.params.MaxAcceleration * dt
	dv = dv.ClampLength(maxDelta)
	a.vel = a.vel.Add(dv)
	if a.vel.Length() > 0.0001 {
		a.pos = a.pos.Mad(a.vel, dt)
	} else {
		a.vel = physics.Vec3{}
	}
}

func (c *Crowd) separationDisplacement(idx int) physics.Vec3 {
	a := &c.agents[idx]
	var disp physics.Vec3
	n := 0
	for _, j := range a.neighbors {
		b := &c.agents[j]
		diff := a.pos.Sub(b.pos).Horizontal()
		d2 := diff.Dot(diff)
		r := a.params.Radius + b.params.Radius
		if d2 > r*r {
			continue
		}
		d := sqrt32(d2)
		pen := r - d
		if d < 0.0001 {
			if idx > j {
				diff = physics.V3(-a.dvel.Z, 0, a.dvel.X)
			} else {
				diff = physics.V3(a.dvel.Z, 0, -a.dvel.X)
			}
			pen = 0.01
		} else {
			pen = (1 / d) * (pen * 0.5) * collisionResolveFactor
		}
		disp = disp.Mad(diff, pen)
		n++
	}
	if n == 0 {
		return physics.Vec3{}
	}
	return disp.Scale(1 / float32(n))
}

func (c *Crowd) checkArrival(a *agent) {
	if a.moveState != navigation.MoveToTarget || len(a.path) == 0 || a.pathIdx != len(a.path)-1 {
		return
	}
	if a.pos.Dist2D(a.path[len(a.path)-1]) <= max(a.params.Radius*0.25, 0.05) {
		a.moveState = navigation.MoveIdle
		a.dvel = physics.Vec3{}
		a.path, a.corners = nil, nil
	}
}
