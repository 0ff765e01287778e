package crowd

import (
	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/params"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

// State returns the full snapshot of an active agent.
func (r *Registry) State(idx int) (navigation.AgentState, error) {
	return r.agent("Get agent state", idx)
}

func (r *Registry) Position(idx int) (physics.Vec3, error) {
	st, err := r.agent("Get agent position", idx)
	return st.Position, err
}

func (r *Registry) Velocity(idx int) (physics.Vec3, error) {
	st, err := r.agent("Get agent velocity", idx)
	return st.Velocity, err
}

func (r *Registry) Parameters(idx int) (navigation.AgentParams, error) {
	st, err := r.agent("Get agent parameters", idx)
	return st.Params, err
}

func (r *Registry) Neighbors(idx int) ([]int, error) {
	st, err := r.agent("Get agent neighbours", idx)
	return st.Neighbors, err
}

func (r *Registry) Corners(idx int) ([]physics.Vec3, error) {
	st, err := r.agent("Get agent corners", idx)
	return st.Corners, err
}

// IsActive reports whether idx is an active agent of the open session.
func (r *Registry) IsActive(idx int) bool {
	if r.crowd == nil {
		return false
	}
	st, ok := r.crowd.Agent(idx)
	return ok && st.Active
}

// ActiveAgents lists active handles in ascending order.
func (r *Registry) ActiveAgents() []int {
	if r.crowd == nil {
		return nil
	}
	var out []int
	for i := 0; i < r.crowd.MaxAgents(); i++ {
		if st, ok := r.crowd.Agent(i); ok && st.Active {
			out = append(out, i)
		}
	}
	return out
}

// AgentCount returns the number of active agents.
func (r *Registry) AgentCount() int {
	return len(r.ActiveAgents())
}

// MaxAgentCount returns the session capacity, or 0 when closed.
func (r *Registry) MaxAgentCount() int {
	if r.crowd == nil {
		return 0
	}
	return r.crowd.MaxAgents()
}

func (r *Registry) QueryHalfExtents() (physics.Vec3, error) {
	if err := r.open("Get query extents"); err != nil {
		return physics.Vec3{}, err
	}
	return r.crowd.QueryHalfExtents(), nil
}

func (r *Registry) ObstacleAvoidanceParams(profile int) (navigation.ObstacleAvoidanceParams, error) {
	const op = "Get obstacle avoidance params"
	if err := r.open(op); err != nil {
		return navigation.ObstacleAvoidanceParams{}, err
	}
	p, ok := r.crowd.ObstacleAvoidanceParams(profile)
	if !ok {
		return p, navigation.Invalid(op, navigation.ErrInvalidIndex, "avoidance profile %d out of range [0, %d)", profile, navigation.MaxObstacleAvoidanceProfiles)
	}
	return p, nil
}

// SetObstacleAvoidanceParams overlays patch onto the profile.
func (r *Registry) SetObstacleAvoidanceParams(profile int, patch params.AvoidancePatch) error {
	const op = "Set obstacle avoidance params"
	if err := r.open(op); err != nil {
		return err
	}
	p, ok := r.crowd.ObstacleAvoidanceParams(profile)
	if !ok {
		return navigation.Invalid(op, navigation.ErrInvalidIndex, "avoidance profile %d out of range [0, %d)", profile, navigation.MaxObstacleAvoidanceProfiles)
	}
	patch.ApplyTo(&p)
	r.crowd.SetObstacleAvoidanceParams(profile, p)
	return nil
}

func (r *Registry) filter(op string, profile int) (*navigation.QueryFilter, error) {
	if err := r.open(op); err != nil {
		return nil, err
	}
	f := r.crowd.Filter(profile)
	if f == nil {
		return nil, navigation.Invalid(op, navigation.ErrInvalidIndex, "filter profile %d out of range [0, %d)", profile, navigation.MaxQueryFilterProfiles)
	}
	return f, nil
}

func areaInRange(op string, area int) error {
	if area < 0 || area >= navigation.MaxAreas {
		return navigation.Invalid(op, navigation.ErrInvalidIndex, "area %d out of range [0, %d)", area, navigation.MaxAreas)
	}
	return nil
}

func (r *Registry) QueryFilterAreaCost(profile, area int) (float32, error) {
	const op = "Get query filter area cost"
	f, err := r.filter(op, profile)
	if err != nil {
		return 0, err
	}
	if err := areaInRange(op, area); err != nil {
		return 0, err
	}
	return f.AreaCost[area], nil
}

func (r *Registry) SetQueryFilterAreaCost(profile, area int, cost float32) error {
	const op = "Set query filter area cost"
	f, err := r.filter(op, profile)
	if err != nil {
		return err
	}
	if err := areaInRange(op, area); err != nil {
		return err
	}
	f.AreaCost[area] = cost
	return nil
}

// QueryFilterFlags returns the include and exclude masks of a profile.
func (r *Registry) QueryFilterFlags(profile int) (uint16, uint16, error) {
	f, err := r.filter("Get query filter flags", profile)
	if err != nil {
		return 0, 0, err
	}
	return f.IncludeFlags, f.ExcludeFlags, nil
}

func (r *Registry) SetQueryFilterIncludeFlags(profile int, flags uint16) error {
	f, err := r.filter("Set query filter include flags", profile)
	if err != nil {
		return err
	}
	f.IncludeFlags = flags
	return nil
}

func (r *Registry) SetQueryFilterExcludeFlags(profile int, flags uint16) error {
	f, err := r.filter("Set query filter exclude flags", profile)
	if err != nil {
		return err
	}
	f.ExcludeFlags = flags
	return nil
}
