package formation

import (
	"errors"
	"math"
	"slices"

	"github.com/zeusync/crowdnav/internal/core/events/bus"
	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

const source = "formation"

var (
	ErrFormationNotFound  = errors.New("formation not found")
	ErrAlreadyInFormation = errors.New("agent already belongs to another formation")
	ErrNotAMember         = errors.New("agent is not a member of the formation")
)

// Agents is the part of the crowd a formation engine drives.
type Agents interface {
	IsOpen() bool
	IsActive(idx int) bool
	MoveToRaw(idx int, pos physics.Vec3) error
}

type Target struct {
	Position physics.Vec3
	Forward  physics.Vec3
}

// Formation is a snapshot of one group.
type Formation struct {
	ID      int
	Shape   Shape
	Spacing float32
	// Leader is -1 when no leader is set.
	Leader  int
	Members []int
	Target  *Target
}

type group struct {
	shape     Shape
	spacing   float32
	leader    int
	members   []int
	hasTarget bool
	target    Target
}

// Engine keeps formations and retargets their members every update. An
// agent belongs to at most one formation.
type Engine struct {
	agents     Agents
	formations map[int]*group
	owner      map[int]int
	nextID     int
	events     bus.EventBus
	log        log.Log
}

// NewEngine creates an engine driving agents. events may be nil.
func NewEngine(agents Agents, logger log.Log, events bus.EventBus) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		agents:     agents,
		formations: make(map[int]*group),
		owner:      make(map[int]int),
		events:     events,
		log:        logger.With(log.String("component", source)),
	}
}

func (e *Engine) requireCrowd(op string) error {
	if !e.agents.IsOpen() {
		return navigation.NotReady(op, navigation.ErrCrowdNotInitialized)
	}
	return nil
}

func (e *Engine) group(op string, id int) (*group, error) {
	g, ok := e.formations[id]
	if !ok {
		return nil, navigation.Invalid(op, ErrFormationNotFound, "formation %d not found", id)
	}
	return g, nil
}

// Create adds an empty formation and returns its id, or -1 on failure.
// Ids are never reused.
func (e *Engine) Create(shape Shape, spacing float32) (int, error) {
	const op = "Create formation"
	if err := e.requireCrowd(op); err != nil {
		return -1, err
	}
	if !shape.Valid() {
		return -1, navigation.Invalid(op, nil, "unknown formation type %d", int(shape))
	}
	if !physics.IsFinite(spacing) || spacing < 0 {
		return -1, navigation.Invalid(op, nil, "spacing must be a finite non-negative number, got %v", spacing)
	}
	id := e.nextID
	e.nextID++
	e.formations[id] = &group{
		shape:   shape,
		spacing: spacing,
		leader:  -1,
		target:  Target{Forward: physics.V3(0, 0, 1)},
	}
	e.log.Info("Created formation",
		log.Int("formation", id),
		log.String("shape", shape.String()),
		log.Float32("spacing", spacing))
	e.publish(bus.TypeFormationCreated, bus.FormationChange{ID: id, Shape: shape.String()})
	return id, nil
}

// Delete drops the formation. Its members stay in the crowd.
func (e *Engine) Delete(id int) error {
	g, err := e.group("Delete formation", id)
	if err != nil {
		return err
	}
	for _, m := range g.members {
		delete(e.owner, m)
	}
	delete(e.formations, id)
	e.log.Info("Deleted formation", log.Int("formation", id))
	e.publish(bus.TypeFormationDeleted, bus.FormationChange{ID: id, Shape: g.shape.String()})
	return nil
}

// Reset deletes every formation. Ids keep counting from where they were.
func (e *Engine) Reset() {
	for _, id := range e.IDs() {
		_ = e.Delete(id)
	}
}

// AddAgent appends an active agent to the formation. Adding a member again
// is a no-op; adding a member of another formation fails.
func (e *Engine) AddAgent(id, agent int) error {
	const op = "Add agent to formation"
	if err := e.requireCrowd(op); err != nil {
		return err
	}
	g, err := e.group(op, id)
	if err != nil {
		return err
	}
	if !e.agents.IsActive(agent) {
		return navigation.Invalid(op, navigation.ErrInvalidAgent, "invalid agent index %d", agent)
	}
	if owner, ok := e.owner[agent]; ok {
		if owner == id {
			e.log.Warn("Agent already in formation", log.Int("agent", agent), log.Int("formation", id))
			return nil
		}
		return navigation.Invalid(op, ErrAlreadyInFormation, "agent %d already belongs to formation %d", agent, owner)
	}
	g.members = append(g.members, agent)
	e.owner[agent] = id
	e.log.Debug("Added agent to formation", log.Int("agent", agent), log.Int("formation", id))
	return nil
}

// RemoveAgent takes agent out of its formation and clears the leader when
// it led the group. It reports false when the agent was in no formation.
func (e *Engine) RemoveAgent(agent int) (bool, error) {
	if err := e.requireCrowd("Remove agent from formation"); err != nil {
		return false, err
	}
	id, ok := e.owner[agent]
	if !ok {
		e.log.Warn("Agent not found in any formation", log.Int("agent", agent))
		return false, nil
	}
	g := e.formations[id]
	g.members = slices.DeleteFunc(g.members, func(m int) bool { return m == agent })
	if g.leader == agent {
		g.leader = -1
	}
	delete(e.owner, agent)
	e.log.Debug("Removed agent from formation", log.Int("agent", agent), log.Int("formation", id))
	return true, nil
}

// SetTarget moves the formation center. A direction shorter than 0.001 is
// replaced by +Z.
func (e *Engine) SetTarget(id int, pos, dir physics.Vec3) error {
	const op = "Set formation target"
	g, err := e.group(op, id)
	if err != nil {
		return err
	}
	if !pos.IsFinite() || !dir.IsFinite() {
		return navigation.Invalid(op, navigation.ErrInvalidVector, "target and direction must be finite")
	}
	forward := physics.V3(0, 0, 1)
	if l := dir.Length(); l > 0.001 {
		forward = dir.Scale(1 / l)
	}
	g.hasTarget = true
	g.target = Target{Position: pos, Forward: forward}
	e.log.Debug("Set formation target", log.Int("formation", id),
		log.Float32("x", pos.X), log.Float32("y", pos.Y), log.Float32("z", pos.Z))
	return nil
}

// SetLeader marks a member as the leader.
func (e *Engine) SetLeader(id, agent int) error {
	const op = "Set formation leader"
	g, err := e.group(op, id)
	if err != nil {
		return err
	}
	if !slices.Contains(g.members, agent) {
		return navigation.Invalid(op, ErrNotAMember, "agent %d not in formation %d", agent, id)
	}
	g.leader = agent
	return nil
}

// Members returns the member handles in slot order.
func (e *Engine) Members(id int) ([]int, error) {
	g, err := e.group("Get formation agents", id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(g.members), nil
}

func (e *Engine) Info(id int) (Formation, error) {
	g, err := e.group("Get formation info", id)
	if err != nil {
		return Formation{}, err
	}
	f := Formation{
		ID:      id,
		Shape:   g.shape,
		Spacing: g.spacing,
		Leader:  g.leader,
		Members: slices.Clone(g.members),
	}
	if g.hasTarget {
		t := g.target
		f.Target = &t
	}
	return f, nil
}

// FormationOf returns the formation agent belongs to.
func (e *Engine) FormationOf(agent int) (int, bool) {
	id, ok := e.owner[agent]
	return id, ok
}

func (e *Engine) Count() int {
	return len(e.formations)
}

// IDs lists formation ids in ascending order.
func (e *Engine) IDs() []int {
	ids := make([]int, 0, len(e.formations))
	for id := range e.formations {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Update sends every active member of every targeted formation to its slot.
// Inactive members are skipped and stay in the formation. Without an open
// crowd it does nothing.
func (e *Engine) Update(dt float32) error {
	const op = "Update formations"
	if math.IsNaN(float64(dt)) || math.IsInf(float64(dt), 0) || dt < 0 {
		return navigation.Invalid(op, nil, "dt must be a finite non-negative number, got %v", dt)
	}
	if !e.agents.IsOpen() {
		return nil
	}
	var errs error
	for _, id := range e.IDs() {
		g := e.formations[id]
		if !g.hasTarget || len(g.members) == 0 {
			continue
		}
		n := len(g.members)
		for i, agent := range g.members {
			if !e.agents.IsActive(agent) {
				continue
			}
			slot := Slot(g.shape, g.spacing, g.target.Position, g.target.Forward, i, n)
			if err := e.agents.MoveToRaw(agent, slot); err != nil {
				errs = errors.Join(errs, err)
			}
		}
	}
	return errs
}

// InfoMap renders a formation with the keys of the flat API.
func InfoMap(f Formation) map[string]float32 {
	m := map[string]float32{
		"id":          float32(f.ID),
		"type":        float32(f.Shape),
		"spacing":     f.Spacing,
		"leader_idx":  float32(f.Leader),
		"agent_count": float32(len(f.Members)),
		"has_target":  0,
		"target_x":    0,
		"target_y":    0,
		"target_z":    0,
		"dir_x":       0,
		"dir_y":       0,
		"dir_z":       1,
	}
	if t := f.Target; t != nil {
		m["has_target"] = 1
		m["target_x"], m["target_y"], m["target_z"] = t.Position.X, t.Position.Y, t.Position.Z
		m["dir_x"], m["dir_y"], m["dir_z"] = t.Forward.X, t.Forward.Y, t.Forward.Z
	}
	return m
}

func (e *Engine) publish(typ string, data any) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(bus.NewEvent(typ, source, data)); err != nil {
		e.log.Warn("Event handler failed", log.String("event", typ), log.Error(err))
	}
}
