package navigation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_CategoryMatching(t *testing.T) {
	err := NotReady("Add agent", ErrCrowdNotInitialized)

	assert.True(t, errors.Is(err, ErrNotReady))
	assert.True(t, errors.Is(err, ErrCrowdNotInitialized))
	assert.False(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "Add agent: crowd is not initialized", err.Error())
	assert.Equal(t, CodeNotReady, CodeOf(err))
}

func TestError_WrappedStillCoded(t *testing.T) {
	inner := Invalid("Set agent target", ErrInvalidVector, "position must have 3 components, got %d", 2)
	wrapped := fmt.Errorf("frame 12: %w", inner)

	var navErr *Error
	require.True(t, errors.As(wrapped, &navErr))
	assert.Equal(t, "Set agent target", navErr.Op)
	assert.Equal(t, CodeInvalidInput, CodeOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrInvalidVector))
}

func TestCodeOf_PlainSentinels(t *testing.T) {
	assert.Equal(t, CodeEngine, CodeOf(fmt.Errorf("%w: boom", ErrEngine)))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("other")))
	assert.Equal(t, "invalid-input", CodeInvalidInput.String())
}

func TestQueryFilter_Passes(t *testing.T) {
	f := DefaultQueryFilter()
	assert.True(t, f.Passes(FlagWalk))
	assert.False(t, f.Passes(0))

	f.ExcludeFlags = FlagDisabled
	assert.False(t, f.Passes(FlagWalk|FlagDisabled))
	assert.Equal(t, float32(1), f.Cost(AreaWater))
	assert.Equal(t, float32(1), f.Cost(200))
}

func TestGeometry_Validate(t *testing.T) {
	g := Geometry{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 0, 1},
		Faces:    []int{0, 1, 2},
	}
	require.NoError(t, g.Validate())

	g.Faces = []int{0, 1, 3}
	assert.ErrorIs(t, g.Validate(), ErrInvalidInput)

	bmin, bmax := Geometry{Vertices: []float32{1, 2, 3, -1, 5, 0}}.Bounds()
	assert.Equal(t, float32(-1), bmin.X)
	assert.Equal(t, float32(5), bmax.Y)
}

func TestPartitionType_Parse(t *testing.T) {
	for _, p := range []PartitionType{PartitionWatershed, PartitionMonotone, PartitionLayers} {
		got, err := ParsePartitionType(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePartitionType("voxel")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
