// Package navigator is the flat boundary API of the navigation layer. Every
// operation is fail-soft: a failure is written to the diagnostic journal and
// a neutral value is returned (-1, false, 0 or an empty slice or map).
// Vectors cross the boundary as flat float32 slices of length 3.
//
// A Navmesh is not safe for concurrent use.
package navigator

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeusync/crowdnav/internal/core/areas"
	"github.com/zeusync/crowdnav/internal/core/crowd"
	"github.com/zeusync/crowdnav/internal/core/events/bus"
	"github.com/zeusync/crowdnav/internal/core/formation"
	"github.com/zeusync/crowdnav/internal/core/geometry"
	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
)

const source = "navmesh"

// Options configures a Navmesh.
type Options struct {
	// Settings are restored on every geometry initialization.
	Settings navigation.BuildSettings
	// PathWorkers bounds the goroutines of FindStraightPathBatch. Values
	// below 1 run one goroutine per pair.
	PathWorkers int
	// Logger receives every journal entry as well. May be nil.
	Logger log.Log
	// Events receives lifecycle notifications. A private bus is created
	// when nil.
	Events bus.EventBus
}

func DefaultOptions() Options {
	return Options{
		Settings:    navigation.DefaultBuildSettings(),
		PathWorkers: 4,
	}
}

type Navmesh struct {
	engine  navigation.Engine
	journal *log.Journal
	log     log.Log
	events  bus.EventBus
	workers int

	defaults navigation.BuildSettings
	settings navigation.BuildSettings
	geom     *navigation.Geometry
	mesh     navigation.Mesh

	areas      *areas.Registry
	crowd      *crowd.Registry
	formations *formation.Engine
}

func New(engine navigation.Engine, opts Options) *Navmesh {
	journal := log.NewJournal(opts.Logger)
	events := opts.Events
	if events == nil {
		events = bus.New()
	}
	n := &Navmesh{
		engine:   engine,
		journal:  journal,
		log:      journal,
		events:   events,
		workers:  opts.PathWorkers,
		defaults: opts.Settings,
		settings: opts.Settings,
		areas:    areas.NewRegistry(),
		crowd:    crowd.NewRegistry(engine, journal, events),
	}
	n.formations = formation.NewEngine(n.crowd, journal, events)
	return n
}

// GetLog returns every pending journal line and clears the journal.
func (n *Navmesh) GetLog() string {
	return n.journal.Drain()
}

// Journal exposes the diagnostic sink, mainly to tune its level.
func (n *Navmesh) Journal() *log.Journal {
	return n.journal
}

func (n *Navmesh) Events() bus.EventBus {
	return n.events
}

// IsInitialized reports whether input geometry is loaded.
func (n *Navmesh) IsInitialized() bool {
	return n.geom != nil
}

// IsBuilt reports whether a navmesh is built or loaded.
func (n *Navmesh) IsBuilt() bool {
	return n.mesh != nil
}

// Close releases the crowd and forgets geometry, mesh, markers and
// formations. The journal keeps its pending lines.
func (n *Navmesh) Close() {
	n.clear()
}

func (n *Navmesh) clear() {
	n.formations.Reset()
	n.crowd.Close()
	n.areas.Clear()
	n.geom = nil
	n.mesh = nil
	n.settings = n.defaults
}

func (n *Navmesh) fail(err error) {
	n.log.Error(err.Error(), log.String("code", navigation.CodeOf(err).String()))
}

// failure converts an error of a collaborator into a navigation error
// carrying op.
func failure(op string, err error, what string) error {
	switch navigation.CodeOf(err) {
	case navigation.CodeNotReady:
		return &navigation.Error{Op: op, Code: navigation.CodeNotReady, Message: what + ": " + err.Error(), Cause: err}
	case navigation.CodeInvalidInput:
		return navigation.Invalid(op, err, "%s: %v", what, err)
	default:
		return navigation.EngineFailure(op, err, "%s: %v", what, err)
	}
}

func (n *Navmesh) requireGeometry(op string) bool {
	if n.geom == nil {
		n.fail(navigation.NotReady(op, navigation.ErrGeometryNotInitialized))
		return false
	}
	return true
}

func (n *Navmesh) requireMesh(op string) bool {
	if n.mesh == nil {
		n.fail(navigation.NotReady(op, navigation.ErrMeshNotBuilt))
		return false
	}
	return true
}

// InitByGeometry replaces the input geometry. Crowd, markers, formations
// and settings are reset first, even when g is rejected.
func (n *Navmesh) InitByGeometry(g navigation.Geometry) bool {
	return n.init("Init by geometry", func() (navigation.Geometry, error) {
		return geometry.Raw(g.Vertices, g.Faces)
	})
}

func (n *Navmesh) InitByRaw(vertices []float32, faces []int) bool {
	return n.init("Init by raw", func() (navigation.Geometry, error) {
		return geometry.Raw(vertices, faces)
	})
}

func (n *Navmesh) InitByOBJ(path string) bool {
	return n.init("Init by obj", func() (navigation.Geometry, error) {
		return geometry.LoadOBJFile(path)
	})
}

func (n *Navmesh) init(op string, load func() (navigation.Geometry, error)) bool {
	n.clear()
	g, err := load()
	if err != nil {
		n.fail(navigation.Invalid(op, err, "fail to load geometry: %v", err))
		return false
	}
	n.geom = &g
	n.log.Info("Geometry initialized",
		log.Int("vertices", len(g.Vertices)/3),
		log.Int("triangles", len(g.Faces)/3))
	return true
}

// Build builds a navmesh from the geometry, the current settings and every
// marker and connection. A crowd bound to the previous navmesh is released.
func (n *Navmesh) Build() bool {
	const op = "Build navmesh"
	if !n.requireGeometry(op) {
		return false
	}
	started := time.Now()
	mesh, err := n.engine.Build(navigation.BuildInput{
		Geometry:    *n.geom,
		Settings:    n.settings,
		Volumes:     n.areas.ConvexVolumes(),
		Connections: n.areas.OffMeshConnections(),
	})
	if err != nil {
		n.fail(failure(op, err, "fail to build navmesh"))
		return false
	}
	n.replaceMesh(mesh)
	n.log.Info("Navmesh built",
		log.Int("polygons", len(mesh.Polygons())),
		log.Int("vertices", len(mesh.Vertices())),
		log.Duration("took", time.Since(started)))
	return true
}

func (n *Navmesh) replaceMesh(mesh navigation.Mesh) {
	if n.crowd.IsOpen() {
		n.log.Warn("Releasing crowd bound to the previous navmesh", log.String("session", n.crowd.Session()))
		n.formations.Reset()
		n.crowd.Close()
	}
	n.mesh = mesh
	summary := bus.MeshSummary{Polygons: len(mesh.Polygons()), Vertices: len(mesh.Vertices())}
	if arcs, ok := mesh.(interface{ OffMeshArcs() int }); ok {
		summary.Connections = arcs.OffMeshArcs()
	}
	if err := n.events.Publish(bus.NewEvent(bus.TypeMeshBuilt, source, summary)); err != nil {
		n.log.Warn("Event handler failed", log.String("event", bus.TypeMeshBuilt), log.Error(err))
	}
}

func checkBinPath(op, path string) error {
	ext := filepath.Ext(path)
	if ext == "" {
		return navigation.Invalid(op, nil, "invalid file path")
	}
	if !strings.EqualFold(ext, ".bin") {
		return navigation.Invalid(op, nil, "invalid file extension (it should be *.bin)")
	}
	return nil
}

// Save writes the built navmesh to a *.bin file.
func (n *Navmesh) Save(path string) bool {
	const op = "Save navmesh"
	if !n.requireMesh(op) {
		return false
	}
	if err := checkBinPath(op, path); err != nil {
		n.fail(err)
		return false
	}
	data, err := n.mesh.MarshalBinary()
	if err != nil {
		n.fail(failure(op, err, "fail to encode navmesh"))
		return false
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		n.fail(navigation.EngineFailure(op, err, "fail to write %s: %v", path, err))
		return false
	}
	n.log.Info("Navmesh saved", log.String("path", path), log.Int("bytes", len(data)))
	return true
}

// Load replaces the navmesh with one saved by Save. Geometry must be
// initialized; the loaded navmesh does not need to match it.
func (n *Navmesh) Load(path string) bool {
	const op = "Load navmesh"
	if !n.requireGeometry(op) {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		n.fail(navigation.Invalid(op, err, "fail to read %s: %v", path, err))
		return false
	}
	mesh, err := n.engine.Load(data)
	if err != nil {
		n.fail(failure(op, err, "fail to load navmesh"))
		return false
	}
	n.replaceMesh(mesh)
	n.log.Info("Navmesh loaded", log.String("path", path), log.Int("polygons", len(mesh.Polygons())))
	return true
}
