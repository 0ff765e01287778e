package reference

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

func walker() navigation.AgentParams {
	return navigation.AgentParams{
		Radius:                0.5,
		Height:                2,
		MaxAcceleration:       8,
		MaxSpeed:              3,
		CollisionQueryRange:   6,
		PathOptimizationRange: 15,
		SeparationWeight:      2,
		UpdateFlags:           navigation.DefaultUpdateFlags,
	}
}

func newTestCrowd(t *testing.T, maxAgents int) *Crowd {
	t.Helper()
	c, err := New(nil).NewCrowd(buildGrid(t, 10), maxAgents, 0.6)
	require.NoError(t, err)
	return c.(*Crowd)
}

func TestCrowd_AgentReachesTarget(t *testing.T) {
	c := newTestCrowd(t, 4)

	idx, err := c.AddAgent(physics.V3(1, 0, 1), walker())
	require.NoError(t, err)
	require.NoError(t, c.RequestMoveTarget(idx, 0, physics.V3(8, 0, 7)))

	st, ok := c.Agent(idx)
	require.True(t, ok)
	assert.Equal(t, navigation.MoveToTarget, st.MoveState)
	assert.NotZero(t, st.TargetRef)

	for i := 0; i < 400; i++ {
		c.Update(0.05)
	}
	st, _ = c.Agent(idx)
	assert.Equal(t, navigation.MoveIdle, st.MoveState)
	assert.InDelta(t, 8, st.Position.X, 0.2)
	assert.InDelta(t, 7, st.Position.Z, 0.2)
}

func TestCrowd_VelocityRequest(t *testing.T) {
	c := newTestCrowd(t, 1)
	idx, err := c.AddAgent(physics.V3(2, 0, 5), walker())
	require.NoError(t, err)

	require.NoError(t, c.RequestMoveVelocity(idx, physics.V3(1, 0, 0)))
	for i := 0; i < 20; i++ {
		c.Update(0.05)
	}
	st, _ := c.Agent(idx)
	assert.Equal(t, navigation.MoveByVelocity, st.MoveState)
	assert.Equal(t, physics.V3(1, 0, 0), st.TargetPos)
	assert.Greater(t, st.Position.X, float32(2.5))

	require.NoError(t, c.ResetMoveTarget(idx))
	st, _ = c.Agent(idx)
	assert.Equal(t, navigation.MoveIdle, st.MoveState)
}

func TestCrowd_AgentsKeepApart(t *testing.T) {
	c := newTestCrowd(t, 2)
	a, err := c.AddAgent(physics.V3(5, 0, 5), walker())
	require.NoError(t, err)
	b, err := c.AddAgent(physics.V3(5.2, 0, 5), walker())
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		c.Update(0.05)
	}
	sa, _ := c.Agent(a)
	sb, _ := c.Agent(b)
	assert.Greater(t, sa.Position.Dist2D(sb.Position), float32(0.5))
	assert.Equal(t, []int{b}, sa.Neighbors)
}

func TestCrowd_CapacityAndSlots(t *testing.T) {
	c := newTestCrowd(t, 2)
	first, err := c.AddAgent(physics.V3(1, 0, 1), walker())
	require.NoError(t, err)
	_, err = c.AddAgent(physics.V3(2, 0, 2), walker())
	require.NoError(t, err)

	_, err = c.AddAgent(physics.V3(3, 0, 3), walker())
	assert.ErrorIs(t, err, navigation.ErrEngine)
	assert.ErrorIs(t, err, navigation.ErrCapacityExceeded)

	c.RemoveAgent(first)
	st, ok := c.Agent(first)
	require.True(t, ok)
	assert.False(t, st.Active)

	again, err := c.AddAgent(physics.V3(3, 0, 3), walker())
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestCrowd_InvalidRequests(t *testing.T) {
	c := newTestCrowd(t, 2)

	err := c.RequestMoveTarget(1, 0, physics.V3(1, 0, 1))
	assert.ErrorIs(t, err, navigation.ErrInvalidAgent)
	assert.ErrorIs(t, c.UpdateAgentParameters(-1, walker()), navigation.ErrInvalidInput)

	idx, err := c.AddAgent(physics.V3(1, 0, 1), walker())
	require.NoError(t, err)
	err = c.RequestMoveTarget(idx, 0, physics.V3(50, 0, 50))
	assert.ErrorIs(t, err, navigation.ErrNoNearbyPolygon)
	err = c.RequestMoveTarget(idx, navigation.PolyRef(10000), physics.V3(1, 0, 1))
	assert.ErrorIs(t, err, navigation.ErrInvalidInput)

	_, err = c.AddAgent(physics.V3(float32(math.NaN()), 0, 0), walker())
	assert.ErrorIs(t, err, navigation.ErrInvalidVector)
}

func TestCrowd_ProfileBounds(t *testing.T) {
	c := newTestCrowd(t, 1)

	p, ok := c.ObstacleAvoidanceParams(0)
	require.True(t, ok)
	assert.Equal(t, navigation.DefaultObstacleAvoidanceParams(), p)

	p.VelBias = 0.9
	assert.True(t, c.SetObstacleAvoidanceParams(navigation.MaxObstacleAvoidanceProfiles-1, p))
	got, _ := c.ObstacleAvoidanceParams(navigation.MaxObstacleAvoidanceProfiles - 1)
	assert.Equal(t, float32(0.9), got.VelBias)
	assert.False(t, c.SetObstacleAvoidanceParams(navigation.MaxObstacleAvoidanceProfiles, p))
	_, ok = c.ObstacleAvoidanceParams(-1)
	assert.False(t, ok)

	require.NotNil(t, c.Filter(0))
	assert.Nil(t, c.Filter(navigation.MaxQueryFilterProfiles))
	c.Filter(3).IncludeFlags = navigation.FlagSwim
	assert.Equal(t, navigation.FlagSwim, c.Filter(3).IncludeFlags)
}

func TestEngine_NewCrowdValidates(t *testing.T) {
	e := New(nil)
	m := buildGrid(t, 2)
	_, err := e.NewCrowd(m, 0, 0.6)
	assert.ErrorIs(t, err, navigation.ErrEngine)
	_, err = e.NewCrowd(m, 4, 0)
	assert.ErrorIs(t, err, navigation.ErrEngine)
}
