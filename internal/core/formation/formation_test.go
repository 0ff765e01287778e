package formation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

type fakeAgents struct {
	mock.Mock
	open   bool
	active map[int]bool
}

func newFakeAgents(active ...int) *fakeAgents {
	f := &fakeAgents{open: true, active: map[int]bool{}}
	for _, a := range active {
		f.active[a] = true
	}
	return f
}

func (f *fakeAgents) IsOpen() bool          { return f.open }
func (f *fakeAgents) IsActive(idx int) bool { return f.open && f.active[idx] }
func (f *fakeAgents) MoveToRaw(idx int, pos physics.Vec3) error {
	return f.Called(idx, pos).Error(0)
}

func assertVec(t *testing.T, want, got physics.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-4, "x of %v", got)
	assert.InDelta(t, want.Y, got.Y, 1e-4, "y of %v", got)
	assert.InDelta(t, want.Z, got.Z, 1e-4, "z of %v", got)
}

func TestRight(t *testing.T) {
	assertVec(t, physics.V3(1, 0, 0), Right(physics.V3(0, 0, 1)))
	assertVec(t, physics.V3(0, 0, -1), Right(physics.V3(1, 0, 0)))
	assertVec(t, physics.Vec3{}, Right(physics.V3(0, 1, 0)))
}

func TestLayout_Shapes(t *testing.T) {
	center := physics.V3(10, 2, 10)
	fwd := physics.V3(0, 0, 1)

	tests := []struct {
		name  string
		shape Shape
		n     int
		want  []physics.Vec3
	}{
		{"line odd", ShapeLine, 3, []physics.Vec3{{X: 8, Y: 2, Z: 10}, {X: 10, Y: 2, Z: 10}, {X: 12, Y: 2, Z: 10}}},
		{"line even", ShapeLine, 2, []physics.Vec3{{X: 8, Y: 2, Z: 10}, {X: 10, Y: 2, Z: 10}}},
		{"column", ShapeColumn, 3, []physics.Vec3{{X: 10, Y: 2, Z: 10}, {X: 10, Y: 2, Z: 8}, {X: 10, Y: 2, Z: 6}}},
		{"wedge", ShapeWedge, 4, []physics.Vec3{
			{X: 10, Y: 2, Z: 10},
			{X: 9, Y: 2, Z: 8},
			{X: 11, Y: 2, Z: 8},
			{X: 13, Y: 2, Z: 8},
		}},
		{"box", ShapeBox, 4, []physics.Vec3{
			{X: 8, Y: 2, Z: 10},
			{X: 10, Y: 2, Z: 10},
			{X: 8, Y: 2, Z: 8},
			{X: 10, Y: 2, Z: 8},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Layout(tt.shape, 2, center, fwd, tt.n)
			require.Len(t, got, len(tt.want))
			for i := range got {
				assertVec(t, tt.want[i], got[i])
			}
		})
	}
}

func TestLayout_Circle(t *testing.T) {
	const n = 6
	spacing := float32(1.5)
	center := physics.V3(0, 0, 0)
	got := Layout(ShapeCircle, spacing, center, physics.V3(0, 0, 1), n)
	radius := spacing * n / (2 * math.Pi)
	for _, p := range got {
		assert.InDelta(t, radius, p.Dist2D(center), 1e-4)
	}
	assertVec(t, physics.V3(radius, 0, 0), got[0])
	assertVec(t, physics.V3(-radius, 0, 0), got[n/2])
}

func TestLayout_DeterministicAndRotated(t *testing.T) {
	fwd := physics.V3(1, 0, 1).Normalize()
	a := Layout(ShapeBox, 1.2, physics.V3(3, 0, 4), fwd, 7)
	b := Layout(ShapeBox, 1.2, physics.V3(3, 0, 4), fwd, 7)
	assert.Equal(t, a, b)
	assert.Nil(t, Layout(ShapeLine, 1, physics.Vec3{}, fwd, 0))

	col := Layout(ShapeColumn, 1, physics.Vec3{}, fwd, 2)
	assert.InDelta(t, 1, col[1].Dist2D(col[0]), 1e-5)
	assert.Less(t, col[1].X, float32(0))
}

func TestParseShape(t *testing.T) {
	s, err := ParseShape(" Wedge ")
	require.NoError(t, err)
	assert.Equal(t, ShapeWedge, s)
	s, err = ParseShape("4")
	require.NoError(t, err)
	assert.Equal(t, ShapeCircle, s)
	_, err = ParseShape("blob")
	assert.Error(t, err)
	assert.Equal(t, "shape(9)", Shape(9).String())
}

func TestEngine_RequiresCrowd(t *testing.T) {
	agents := newFakeAgents()
	agents.open = false
	e := NewEngine(agents, nil, nil)

	id, err := e.Create(ShapeLine, 1)
	assert.Equal(t, -1, id)
	assert.ErrorIs(t, err, navigation.ErrNotReady)
	assert.EqualError(t, err, "Create formation: crowd is not initialized")

	assert.ErrorIs(t, e.AddAgent(0, 0), navigation.ErrNotReady)
	_, err = e.RemoveAgent(0)
	assert.ErrorIs(t, err, navigation.ErrNotReady)
	assert.NoError(t, e.Update(0.1))
}

func TestEngine_CreateValidates(t *testing.T) {
	e := NewEngine(newFakeAgents(), nil, nil)
	_, err := e.Create(Shape(7), 1)
	assert.ErrorIs(t, err, navigation.ErrInvalidInput)
	_, err = e.Create(ShapeLine, -1)
	assert.ErrorIs(t, err, navigation.ErrInvalidInput)
	_, err = e.Create(ShapeLine, float32(math.NaN()))
	assert.ErrorIs(t, err, navigation.ErrInvalidInput)

	first, err := e.Create(ShapeLine, 1)
	require.NoError(t, err)
	require.NoError(t, e.Delete(first))
	second, err := e.Create(ShapeBox, 1)
	require.NoError(t, err)
	assert.Greater(t, second, first, "ids are never reused")
	assert.Equal(t, []int{second}, e.IDs())
	assert.Equal(t, 1, e.Count())
}

func TestEngine_Membership(t *testing.T) {
	e := NewEngine(newFakeAgents(1, 2, 3), nil, nil)
	a, _ := e.Create(ShapeLine, 1)
	b, _ := e.Create(ShapeColumn, 1)

	require.NoError(t, e.AddAgent(a, 1))
	require.NoError(t, e.AddAgent(a, 2))
	require.NoError(t, e.AddAgent(a, 1), "re-adding a member is a no-op")
	members, _ := e.Members(a)
	assert.Equal(t, []int{1, 2}, members)

	err := e.AddAgent(b, 1)
	assert.ErrorIs(t, err, ErrAlreadyInFormation)
	assert.ErrorIs(t, err, navigation.ErrInvalidInput)
	assert.ErrorIs(t, e.AddAgent(b, 9), navigation.ErrInvalidAgent)
	assert.ErrorIs(t, e.AddAgent(42, 3), ErrFormationNotFound)

	owner, ok := e.FormationOf(2)
	assert.True(t, ok)
	assert.Equal(t, a, owner)

	require.NoError(t, e.Delete(a))
	_, ok = e.FormationOf(1)
	assert.False(t, ok)
	require.NoError(t, e.AddAgent(b, 1), "deleting a formation frees its members")
	assert.ErrorIs(t, e.Delete(a), ErrFormationNotFound)
}

func TestEngine_LeaderStaysMember(t *testing.T) {
	e := NewEngine(newFakeAgents(1, 2), nil, nil)
	id, _ := e.Create(ShapeWedge, 2)
	require.NoError(t, e.AddAgent(id, 1))

	assert.ErrorIs(t, e.SetLeader(id, 2), ErrNotAMember)
	require.NoError(t, e.SetLeader(id, 1))
	info, _ := e.Info(id)
	assert.Equal(t, 1, info.Leader)

	removed, err := e.RemoveAgent(1)
	require.NoError(t, err)
	assert.True(t, removed)
	info, _ = e.Info(id)
	assert.Equal(t, -1, info.Leader)
	assert.Empty(t, info.Members)

	removed, err = e.RemoveAgent(1)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestEngine_SetTarget(t *testing.T) {
	e := NewEngine(newFakeAgents(), nil, nil)
	id, _ := e.Create(ShapeLine, 1)

	info, _ := e.Info(id)
	assert.Nil(t, info.Target)
	m := InfoMap(info)
	assert.Equal(t, float32(0), m["has_target"])
	assert.Equal(t, float32(1), m["dir_z"])
	assert.Equal(t, float32(-1), m["leader_idx"])
	assert.Len(t, m, 12)

	require.NoError(t, e.SetTarget(id, physics.V3(1, 2, 3), physics.V3(3, 0, 4)))
	info, _ = e.Info(id)
	require.NotNil(t, info.Target)
	assertVec(t, physics.V3(0.6, 0, 0.8), info.Target.Forward)
	m = InfoMap(info)
	assert.Equal(t, float32(1), m["has_target"])
	assert.Equal(t, float32(2), m["target_y"])

	require.NoError(t, e.SetTarget(id, physics.V3(1, 2, 3), physics.Vec3{}))
	info, _ = e.Info(id)
	assert.Equal(t, physics.V3(0, 0, 1), info.Target.Forward)

	assert.ErrorIs(t, e.SetTarget(id, physics.V3(float32(math.Inf(1)), 0, 0), physics.Vec3{}), navigation.ErrInvalidVector)
	assert.ErrorIs(t, e.SetTarget(99, physics.Vec3{}, physics.Vec3{}), ErrFormationNotFound)
}

func TestEngine_UpdateMovesActiveMembers(t *testing.T) {
	agents := newFakeAgents(4, 5, 6)
	e := NewEngine(agents, nil, nil)
	idle, _ := e.Create(ShapeLine, 1)
	require.NoError(t, e.AddAgent(idle, 6))

	id, _ := e.Create(ShapeLine, 2)
	require.NoError(t, e.AddAgent(id, 4))
	require.NoError(t, e.AddAgent(id, 5))
	require.NoError(t, e.SetTarget(id, physics.V3(10, 0, 10), physics.V3(0, 0, 1)))

	agents.On("MoveToRaw", 4, physics.V3(8, 0, 10)).Return(nil).Once()
	agents.On("MoveToRaw", 5, physics.V3(10, 0, 10)).Return(nil).Once()
	require.NoError(t, e.Update(0.1))
	agents.AssertExpectations(t)

	// Slot positions keep counting the inactive member.
	agents.active[4] = false
	agents.On("MoveToRaw", 5, physics.V3(10, 0, 10)).Return(navigation.ErrNoNearbyPolygon).Once()
	err := e.Update(0.1)
	assert.ErrorIs(t, err, navigation.ErrNoNearbyPolygon)
	members, _ := e.Members(id)
	assert.Equal(t, []int{4, 5}, members)
	agents.AssertNumberOfCalls(t, "MoveToRaw", 3)

	assert.ErrorIs(t, e.Update(-1), navigation.ErrInvalidInput)
}

func TestEngine_Reset(t *testing.T) {
	e := NewEngine(newFakeAgents(1), nil, nil)
	a, _ := e.Create(ShapeLine, 1)
	_, _ = e.Create(ShapeBox, 1)
	require.NoError(t, e.AddAgent(a, 1))

	e.Reset()
	assert.Zero(t, e.Count())
	_, ok := e.FormationOf(1)
	assert.False(t, ok)

	next, err := e.Create(ShapeCircle, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}
