package injector

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/crowdnav/internal/config"
	"github.com/zeusync/crowdnav/internal/core/geometry"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

func TestInitializeNavmesh(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "silent"
	cfg.Log.Journal = "warn"
	cfg.Build.Settings = map[string]float32{"agentMaxSlope": 30}

	nm, err := InitializeNavmesh(cfg)
	require.NoError(t, err)
	require.NotNil(t, nm)
	assert.Equal(t, log.LevelWarn, nm.Journal().GetLevel())

	require.True(t, nm.InitByGeometry(geometry.Grid(physics.Vec3{}, 1, 3, 3)))
	assert.Equal(t, float32(30), nm.GetSettings()["agentMaxSlope"])
	require.True(t, nm.Build())
	assert.Empty(t, nm.GetLog(), "info lines stay out of a warn journal")
}

func TestInitializeNavmesh_LoggerError(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Output = []string{filepath.Join(t.TempDir(), "missing", "nav.log")}

	_, err := InitializeNavmesh(cfg)
	assert.ErrorContains(t, err, "build logger")
}
