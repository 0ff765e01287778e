package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, navigation.DefaultBuildSettings(), c.BuildSettings())
	assert.Nil(t, c.AgentParams().MaxSpeed)
	assert.Equal(t, log.LevelInfo, c.LogLevel())
}

func TestLoad(t *testing.T) {
	c, err := Load(strings.NewReader(`
log:
  level: debug
  journal: warn
  format: console
build:
  partition: monotone
  settings:
    cellSize: 0
    agentRadius: 0.4
crowd:
  max_agents: 32
  agent:
    maxSpeed: 5
paths:
  workers: 2
`))
	require.NoError(t, err)

	assert.Equal(t, log.LevelDebug, c.LogLevel())
	assert.Equal(t, log.LevelWarn, c.JournalLevel())
	assert.Equal(t, log.Options{Level: log.LevelDebug, Format: "console"}, c.LoggerOptions())
	assert.Equal(t, 32, c.Crowd.MaxAgents)
	assert.Equal(t, float32(2), c.Crowd.MaxAgentRadius, "unset fields keep their defaults")
	assert.Equal(t, 2, c.Paths.Workers)

	s := c.BuildSettings()
	assert.Equal(t, navigation.PartitionMonotone, s.PartitionType)
	assert.Equal(t, float32(0.0001), s.CellSize)
	assert.Equal(t, float32(0.4), s.AgentRadius)
	assert.Equal(t, float32(0.2), s.CellHeight)

	patch := c.AgentParams()
	require.NotNil(t, patch.MaxSpeed)
	assert.Equal(t, float32(5), *patch.MaxSpeed)
	assert.Nil(t, patch.Radius)
}

func TestLoad_EmptyYieldsDefaults(t *testing.T) {
	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(strings.NewReader("crowd: [1, 2"))
	assert.ErrorContains(t, err, "decode config")

	_, err = Load(strings.NewReader(`
log:
  level: loud
  format: xml
build:
  partition: hexagons
  settings:
    cellSise: 1
crowd:
  max_agents: 0
  max_agent_radius: -1
  agent:
    speed: 1
paths:
  workers: -3
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	for _, want := range []string{
		`log.level "loud"`,
		`log.format "xml"`,
		"build.partition",
		`unknown key "cellSise"`,
		"crowd.max_agents must be positive",
		"crowd.max_agent_radius must be positive",
		`crowd.agent: unknown key "speed"`,
		"paths.workers must not be negative",
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crowdnav.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crowd:\n  max_agents: 7\n"), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Crowd.MaxAgents)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
