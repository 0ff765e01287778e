// Package crowd owns the crowd session and every agent in it.
package crowd

import (
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/zeusync/crowdnav/internal/core/events/bus"
	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/core/params"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

const source = "crowd"

// Registry wraps one engine crowd session. It is not safe for concurrent
// use; the owner drives it one frame at a time.
type Registry struct {
	engine  navigation.Engine
	mesh    navigation.Mesh
	crowd   navigation.Crowd
	session string
	radius  float32
	events  bus.EventBus
	log     log.Log
}

// NewRegistry creates a closed registry. events may be nil.
func NewRegistry(engine navigation.Engine, logger log.Log, events bus.EventBus) *Registry {
	if logger == nil {
		logger = log.Nop()
	}
	return &Registry{
		engine: engine,
		events: events,
		log:    logger.With(log.String("component", source)),
	}
}

// Init opens a session on mesh, releasing any session that was open. On
// failure no session is left open.
func (r *Registry) Init(mesh navigation.Mesh, maxAgents int, maxAgentRadius float32) error {
	const op = "Init crowd"
	if mesh == nil {
		return navigation.NotReady(op, navigation.ErrMeshNotBuilt)
	}
	if r.IsOpen() {
		r.log.Warn("Releasing open crowd session", log.String("session", r.session))
		r.Close()
	}
	c, err := r.engine.NewCrowd(mesh, maxAgents, maxAgentRadius)
	if err != nil {
		if c != nil {
			c.Release()
		}
		return navigation.EngineFailure(op, err, "could not initialize crowd: %v", err)
	}
	r.mesh, r.crowd, r.radius = mesh, c, maxAgentRadius
	r.session = uuid.NewString()
	r.log.Info("Crowd opened",
		log.String("session", r.session),
		log.Int("max_agents", maxAgents),
		log.Float32("max_radius", maxAgentRadius))
	r.publish(bus.TypeCrowdOpened, bus.CrowdSession{Session: r.session, MaxAgents: maxAgents, MaxRadius: maxAgentRadius})
	return nil
}

// Close releases the session. Closing a closed registry does nothing.
func (r *Registry) Close() {
	if r.crowd == nil {
		return
	}
	capacity := r.crowd.MaxAgents()
	r.crowd.Release()
	closed := bus.CrowdSession{Session: r.session, MaxAgents: capacity, MaxRadius: r.radius}
	r.crowd, r.mesh, r.session = nil, nil, ""
	r.log.Info("Crowd closed", log.String("session", closed.Session))
	r.publish(bus.TypeCrowdClosed, closed)
}

func (r *Registry) IsOpen() bool {
	return r.crowd != nil
}

// Session returns the id of the open session, or "".
func (r *Registry) Session() string {
	return r.session
}

func (r *Registry) open(op string) error {
	if r.crowd == nil {
		return navigation.NotReady(op, navigation.ErrCrowdNotInitialized)
	}
	return nil
}

// agent returns the snapshot of an active agent.
func (r *Registry) agent(op string, idx int) (navigation.AgentState, error) {
	if err := r.open(op); err != nil {
		return navigation.AgentState{}, err
	}
	st, ok := r.crowd.Agent(idx)
	if !ok || !st.Active {
		return navigation.AgentState{}, navigation.Invalid(op, navigation.ErrInvalidAgent, "%v: %d", navigation.ErrInvalidAgent, idx)
	}
	return st, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var navErr *navigation.Error
	if errors.As(err, &navErr) {
		return err
	}
	if errors.Is(err, navigation.ErrInvalidInput) {
		return navigation.Invalid(op, err, "%v", err)
	}
	return navigation.EngineFailure(op, err, "%v", err)
}

// AddAgent adds an agent at pos with the default parameters overlaid by
// patch. It returns -1 with the error on failure.
func (r *Registry) AddAgent(pos physics.Vec3, patch params.AgentParamsPatch) (int, error) {
	const op = "Add agent"
	if err := r.open(op); err != nil {
		return -1, err
	}
	if !pos.IsFinite() {
		return -1, navigation.Invalid(op, navigation.ErrInvalidVector, "position %v is not finite", pos)
	}
	ap := params.DefaultAgentParams()
	patch.ApplyTo(&ap)
	idx, err := r.crowd.AddAgent(pos, ap)
	if err != nil {
		return -1, wrap(op, err)
	}
	r.log.Debug("Agent added", log.Int("agent", idx))
	r.publish(bus.TypeAgentAdded, bus.AgentChange{Session: r.session, Handle: idx, Position: pos})
	return idx, nil
}

// RemoveAgent frees the slot of idx. Formations still referencing it keep
// the stale handle.
func (r *Registry) RemoveAgent(idx int) error {
	st, err := r.agent("Remove agent", idx)
	if err != nil {
		return err
	}
	r.crowd.RemoveAgent(idx)
	r.log.Debug("Agent removed", log.Int("agent", idx))
	r.publish(bus.TypeAgentRemoved, bus.AgentChange{Session: r.session, Handle: idx, Position: st.Position})
	return nil
}

// UpdateAgentParameters overlays patch onto the live parameters of idx.
func (r *Registry) UpdateAgentParameters(idx int, patch params.AgentParamsPatch) error {
	const op = "Update agent parameters"
	st, err := r.agent(op, idx)
	if err != nil {
		return err
	}
	ap := st.Params
	patch.ApplyTo(&ap)
	return wrap(op, r.crowd.UpdateAgentParameters(idx, ap))
}

// SetTarget snaps pos to the nearest polygon passing the agent's filter
// and requests a move there.
func (r *Registry) SetTarget(idx int, pos physics.Vec3) error {
	const op = "Set agent target"
	st, err := r.agent(op, idx)
	if err != nil {
		return err
	}
	if !pos.IsFinite() {
		return navigation.Invalid(op, navigation.ErrInvalidVector, "target %v is not finite", pos)
	}
	filter := r.crowd.Filter(int(st.Params.QueryFilterType))
	ref, pt, ok := r.mesh.NearestPoly(pos, navigation.NearestPolyExtents, filter)
	if !ok {
		return navigation.EngineFailure(op, navigation.ErrNoNearbyPolygon, "%v near %v", navigation.ErrNoNearbyPolygon, pos)
	}
	return wrap(op, r.crowd.RequestMoveTarget(idx, ref, pt))
}

// MoveToRaw requests a move toward pos without snapping it first. The
// engine resolves the polygon within the crowd query extents.
func (r *Registry) MoveToRaw(idx int, pos physics.Vec3) error {
	const op = "Move agent"
	if _, err := r.agent(op, idx); err != nil {
		return err
	}
	if !pos.IsFinite() {
		return navigation.Invalid(op, navigation.ErrInvalidVector, "target %v is not finite", pos)
	}
	return wrap(op, r.crowd.RequestMoveTarget(idx, 0, pos))
}

func (r *Registry) SetVelocity(idx int, vel physics.Vec3) error {
	const op = "Set agent velocity"
	if _, err := r.agent(op, idx); err != nil {
		return err
	}
	if !vel.IsFinite() {
		return navigation.Invalid(op, navigation.ErrInvalidVector, "velocity %v is not finite", vel)
	}
	return wrap(op, r.crowd.RequestMoveVelocity(idx, vel))
}

func (r *Registry) ResetTarget(idx int) error {
	const op = "Reset agent target"
	if _, err := r.agent(op, idx); err != nil {
		return err
	}
	return wrap(op, r.crowd.ResetMoveTarget(idx))
}

// Tick advances every agent by dt seconds.
func (r *Registry) Tick(dt float32) error {
	const op = "Update crowd"
	if err := r.open(op); err != nil {
		return err
	}
	if math.IsNaN(float64(dt)) || math.IsInf(float64(dt), 0) || dt < 0 {
		return navigation.Invalid(op, nil, "dt must be a finite non-negative number, got %v", dt)
	}
	r.crowd.Update(dt)
	return nil
}

func (r *Registry) publish(typ string, data any) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(bus.NewEvent(typ, source, data)); err != nil {
		r.log.Warn("Event handler failed", log.String("event", typ), log.Error(err))
	}
}
