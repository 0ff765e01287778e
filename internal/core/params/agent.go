package params

import "github.com/zeusync/crowdnav/internal/core/navigation"

// Agent parameter keys.
const (
	KeyRadius                = "radius"
	KeyHeight                = "height"
	KeyMaxAcceleration       = "maxAcceleration"
	KeyMaxSpeed              = "maxSpeed"
	KeyCollisionQueryRange   = "collisionQueryRange"
	KeyPathOptimizationRange = "pathOptimizationRange"
	KeySeparationWeight      = "separationWeight"
	KeyUpdateFlags           = "updateFlags"
	KeyObstacleAvoidanceType = "obstacleAvoidanceType"
	KeyQueryFilterType       = "queryFilterType"
)

// DefaultAgentParams returns the parameters of a freshly added agent.
func DefaultAgentParams() navigation.AgentParams {
	const radius = 0.6
	return navigation.AgentParams{
		Radius:                radius,
		Height:                2,
		MaxAcceleration:       8,
		MaxSpeed:              3.5,
		CollisionQueryRange:   radius * 12,
		PathOptimizationRange: radius * 30,
		SeparationWeight:      2,
		UpdateFlags:           navigation.DefaultUpdateFlags,
		ObstacleAvoidanceType: 3,
		QueryFilterType:       0,
	}
}

// AgentParamsPatch holds the agent parameters a caller asked to change.
// Integer fields are kept as floats and truncated on apply.
type AgentParamsPatch struct {
	Radius                *float32
	Height                *float32
	MaxAcceleration       *float32
	MaxSpeed              *float32
	CollisionQueryRange   *float32
	PathOptimizationRange *float32
	SeparationWeight      *float32
	UpdateFlags           *float32
	ObstacleAvoidanceType *float32
	QueryFilterType       *float32
}

func ParseAgentParams(m map[string]float32) AgentParamsPatch {
	var p AgentParamsPatch
	for k, v := range m {
		v := v
		switch k {
		case KeyRadius:
			p.Radius = &v
		case KeyHeight:
			p.Height = &v
		case KeyMaxAcceleration:
			p.MaxAcceleration = &v
		case KeyMaxSpeed:
			p.MaxSpeed = &v
		case KeyCollisionQueryRange:
			p.CollisionQueryRange = &v
		case KeyPathOptimizationRange:
			p.PathOptimizationRange = &v
		case KeySeparationWeight:
			p.SeparationWeight = &v
		case KeyUpdateFlags:
			p.UpdateFlags = &v
		case KeyObstacleAvoidanceType:
			p.ObstacleAvoidanceType = &v
		case KeyQueryFilterType:
			p.QueryFilterType = &v
		}
	}
	return p
}

func (p AgentParamsPatch) ApplyTo(ap *navigation.AgentParams) {
	set(&ap.Radius, p.Radius, nil)
	set(&ap.Height, p.Height, nil)
	set(&ap.MaxAcceleration, p.MaxAcceleration, nil)
	set(&ap.MaxSpeed, p.MaxSpeed, nil)
	set(&ap.CollisionQueryRange, p.CollisionQueryRange, nil)
	set(&ap.PathOptimizationRange, p.PathOptimizationRange, nil)
	set(&ap.SeparationWeight, p.SeparationWeight, nil)
	if p.UpdateFlags != nil {
		ap.UpdateFlags = toUint8(*p.UpdateFlags)
	}
	if p.ObstacleAvoidanceType != nil {
		ap.ObstacleAvoidanceType = toUint8(*p.ObstacleAvoidanceType)
	}
	if p.QueryFilterType != nil {
		ap.QueryFilterType = toUint8(*p.QueryFilterType)
	}
}

// AgentParamsMap reports every key ParseAgentParams accepts.
func AgentParamsMap(ap navigation.AgentParams) map[string]float32 {
	return map[string]float32{
		KeyRadius:                ap.Radius,
		KeyHeight:                ap.Height,
		KeyMaxAcceleration:       ap.MaxAcceleration,
		KeyMaxSpeed:              ap.MaxSpeed,
		KeyCollisionQueryRange:   ap.CollisionQueryRange,
		KeyPathOptimizationRange: ap.PathOptimizationRange,
		KeySeparationWeight:      ap.SeparationWeight,
		KeyUpdateFlags:           float32(ap.UpdateFlags),
		KeyObstacleAvoidanceType: float32(ap.ObstacleAvoidanceType),
		KeyQueryFilterType:       float32(ap.QueryFilterType),
	}
}

// AgentStateMap renders a state snapshot. Vectors are split into X, Y and Z
// keys and the move state is reported as targetState.
func AgentStateMap(st navigation.AgentState) map[string]float32 {
	m := map[string]float32{
		"active":                 flag(st.Active),
		"state":                  float32(st.State),
		"partial":                flag(st.Partial),
		"desiredSpeed":           st.DesiredSpeed,
		KeyRadius:                st.Params.Radius,
		KeyHeight:                st.Params.Height,
		KeyMaxAcceleration:       st.Params.MaxAcceleration,
		KeyMaxSpeed:              st.Params.MaxSpeed,
		KeyCollisionQueryRange:   st.Params.CollisionQueryRange,
		KeyPathOptimizationRange: st.Params.PathOptimizationRange,
		KeySeparationWeight:      st.Params.SeparationWeight,
		"targetState":            float32(st.MoveState),
	}
	vec := func(prefix string, x, y, z float32) {
		m[prefix+"X"], m[prefix+"Y"], m[prefix+"Z"] = x, y, z
	}
	vec("pos", st.Position.X, st.Position.Y, st.Position.Z)
	vec("vel", st.Velocity.X, st.Velocity.Y, st.Velocity.Z)
	vec("dvel", st.DesiredVelocity.X, st.DesiredVelocity.Y, st.DesiredVelocity.Z)
	vec("nvel", st.SteeringVelocity.X, st.SteeringVelocity.Y, st.SteeringVelocity.Z)
	vec("targetPos", st.TargetPos.X, st.TargetPos.Y, st.TargetPos.Z)
	return m
}
