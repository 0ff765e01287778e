package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

func TestSettings_Clamps(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]float32
		want func(s navigation.BuildSettings) bool
	}{
		{"cell size floor", map[string]float32{KeyCellSize: 0}, func(s navigation.BuildSettings) bool { return s.CellSize == minCellSize }},
		{"cell height floor", map[string]float32{KeyCellHeight: -3}, func(s navigation.BuildSettings) bool { return s.CellHeight == minCellSize }},
		{"agent height floor", map[string]float32{KeyAgentHeight: -1}, func(s navigation.BuildSettings) bool { return s.AgentHeight == 0 }},
		{"agent radius floor", map[string]float32{KeyAgentRadius: -0.5}, func(s navigation.BuildSettings) bool { return s.AgentRadius == 0 }},
		{"verts per poly high", map[string]float32{KeyVertsPerPoly: 12}, func(s navigation.BuildSettings) bool { return s.VertsPerPoly == 6 }},
		{"verts per poly low", map[string]float32{KeyVertsPerPoly: 1}, func(s navigation.BuildSettings) bool { return s.VertsPerPoly == 3 }},
		{"cell size NaN", map[string]float32{KeyCellSize: float32NaN()}, func(s navigation.BuildSettings) bool { return s.CellSize == minCellSize }},
		{"agent radius NaN", map[string]float32{KeyAgentRadius: float32NaN()}, func(s navigation.BuildSettings) bool { return s.AgentRadius == 0 }},
		{"verts per poly NaN", map[string]float32{KeyVertsPerPoly: float32NaN()}, func(s navigation.BuildSettings) bool { return s.VertsPerPoly == 3 }},
		{"climb passes through", map[string]float32{KeyAgentMaxClimb: -7}, func(s navigation.BuildSettings) bool { return s.AgentMaxClimb == -7 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := navigation.DefaultBuildSettings()
			ParseSettings(tt.in).ApplyTo(&s)
			assert.True(t, tt.want(s), "%+v", s)
		})
	}
}

func TestSettings_UnknownKeysIgnored(t *testing.T) {
	p := ParseSettings(map[string]float32{"bogus": 1, "CellSize": 9})
	assert.True(t, p.Empty())

	s := navigation.DefaultBuildSettings()
	p.ApplyTo(&s)
	assert.Equal(t, navigation.DefaultBuildSettings(), s)
}

func TestSettings_GetSetIsIdempotent(t *testing.T) {
	s := navigation.DefaultBuildSettings()
	s.EdgeMaxLen = 17
	got := SettingsMap(s)
	assert.Len(t, got, 13)

	patch := ParseSettings(got)
	var zero navigation.BuildSettings
	patch.ApplyTo(&zero)
	zero.PartitionType = s.PartitionType
	assert.Equal(t, s, zero)
	assert.Equal(t, got, SettingsMap(zero))
}

func TestAgentParams(t *testing.T) {
	d := DefaultAgentParams()
	assert.InDelta(t, 0.6, d.Radius, 1e-6)
	assert.InDelta(t, 7.2, d.CollisionQueryRange, 1e-5)
	assert.InDelta(t, 18, d.PathOptimizationRange, 1e-5)
	assert.Equal(t, uint8(3), d.ObstacleAvoidanceType)
	assert.Equal(t, navigation.DefaultUpdateFlags, d.UpdateFlags)

	ap := d
	ParseAgentParams(map[string]float32{
		KeyMaxSpeed:        5,
		KeyUpdateFlags:     3.9,
		KeyQueryFilterType: 2,
		"posX":             100,
	}).ApplyTo(&ap)
	assert.Equal(t, float32(5), ap.MaxSpeed)
	assert.Equal(t, uint8(3), ap.UpdateFlags)
	assert.Equal(t, uint8(2), ap.QueryFilterType)
	assert.Equal(t, d.Radius, ap.Radius)

	m := AgentParamsMap(ap)
	assert.Len(t, m, 10)
	var back navigation.AgentParams
	ParseAgentParams(m).ApplyTo(&back)
	assert.Equal(t, ap, back)
}

func TestAvoidance(t *testing.T) {
	ap := navigation.DefaultObstacleAvoidanceParams()
	ParseAvoidance(map[string]float32{KeyVelBias: 0.1, KeyAdaptiveDivs: 9.7, "x": 1}).ApplyTo(&ap)
	assert.Equal(t, float32(0.1), ap.VelBias)
	assert.Equal(t, uint8(9), ap.AdaptiveDivs)

	m := AvoidanceMap(ap)
	require.Len(t, m, 10)
	var back navigation.ObstacleAvoidanceParams
	ParseAvoidance(m).ApplyTo(&back)
	assert.Equal(t, ap, back)
}

func TestToUint8(t *testing.T) {
	assert.Equal(t, uint8(0), toUint8(float32NaN()))
	assert.Equal(t, uint8(255), toUint8(255.5))
	assert.Equal(t, uint8(0), toUint8(-0.5))
}

func TestAgentStateMap(t *testing.T) {
	st := navigation.AgentState{
		Active:    true,
		State:     navigation.WalkWalking,
		Position:  physics.V3(1, 2, 3),
		Velocity:  physics.V3(4, 5, 6),
		TargetPos: physics.V3(7, 8, 9),
		MoveState: navigation.MoveToTarget,
		Params:    DefaultAgentParams(),
	}
	m := AgentStateMap(st)
	assert.Equal(t, float32(1), m["active"])
	assert.Equal(t, float32(0), m["partial"])
	assert.Equal(t, float32(3), m["posZ"])
	assert.Equal(t, float32(5), m["velY"])
	assert.Equal(t, float32(7), m["targetPosX"])
	assert.Equal(t, float32(navigation.MoveToTarget), m["targetState"])
	assert.InDelta(t, 0.6, m["radius"], 1e-6)
	assert.Len(t, m, 27)
}

func float32NaN() float32 {
	var zero float32
	return zero / zero
}
