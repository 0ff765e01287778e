package log

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestJournal_DrainClears(t *testing.T) {
	j := NewJournal(nil)
	j.Error("Add agent: crowd is not initialized.")
	j.Info("Created formation", Int("id", 0), Float32("spacing", 1.5))

	require.Equal(t, 2, j.Len())
	out := j.Drain()
	assert.Equal(t, "[ERROR] Add agent: crowd is not initialized.\n[INFO] Created formation id=0 spacing=1.50", out)
	assert.Equal(t, 0, j.Len())
	assert.Equal(t, "", j.Drain())
}

func TestJournal_LevelFilter(t *testing.T) {
	j := NewJournal(nil)
	j.Debug("hidden")
	j.Warn("shown")
	require.Len(t, j.Entries(), 1)
	assert.Equal(t, LevelWarn, j.Entries()[0].Level)

	j.SetLevel(LevelSilent)
	j.Error("dropped")
	assert.Equal(t, 1, j.Len())
}

func TestJournal_WithSharesBuffer(t *testing.T) {
	j := NewJournal(nil)
	child := j.With(String("component", "crowd"))
	child.Error("boom", Error(errors.New("cause")))

	entries := j.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "[ERROR] boom component=crowd error=cause", entries[0].String())
}

func TestJournal_ForwardsToLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	j := NewJournal(NewWithCore(core, LevelDebug))

	j.With(String("component", "formation")).Warn("Agent already in formation", Int("agent", 3))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Agent already in formation", entry.Message)
	assert.Equal(t, "formation", entry.ContextMap()["component"])
	assert.EqualValues(t, 3, entry.ContextMap()["agent"])
}

func TestLogger_LevelGate(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewWithCore(core, LevelWarn)

	l.Info("skip")
	l.Error("keep")
	assert.Equal(t, 1, logs.Len())

	l.SetLevel(LevelDebug)
	l.Debug("now kept")
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, LevelDebug, l.GetLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelSilent, ParseLevel("off"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, "SILENT", LevelSilent.String())
	assert.Equal(t, "UNKNOWN", Level(7).String())
}

func TestBuild_ConsoleToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.log")
	l, err := Build(Options{Level: LevelWarn, Format: "console", Output: []string{path}})
	require.NoError(t, err)

	l.Info("dropped")
	l.With(String("op", "Build navmesh")).Warn("Releasing crowd", Int("agents", 2))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "Releasing crowd")
	assert.Contains(t, out, `"agents": 2`)
	assert.Equal(t, LevelWarn, l.GetLevel())
}

func TestBuild_UnknownFormat(t *testing.T) {
	_, err := Build(Options{Format: "xml"})
	assert.ErrorContains(t, err, `unknown log format "xml"`)
}
