// Package reference is a small pure Go navigation engine. It builds convex
// polygon meshes from triangle soup, answers path queries with A* and a
// funnel pass and steers crowd agents with sampled velocity avoidance.
package reference

import (
	"fmt"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
)

var _ navigation.Engine = (*Engine)(nil)

type Engine struct {
	log log.Log
}

func New(logger log.Log) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{log: logger.With(log.String("component", "engine"))}
}

func (e *Engine) NewCrowd(mesh navigation.Mesh, maxAgents int, maxAgentRadius float32) (navigation.Crowd, error) {
	m, ok := mesh.(*Mesh)
	if !ok || m == nil {
		return nil, fmt.Errorf("%w: mesh was not built by the reference engine", navigation.ErrEngine)
	}
	if maxAgents <= 0 {
		return nil, fmt.Errorf("%w: max agents must be positive, got %d", navigation.ErrEngine, maxAgents)
	}
	if !(maxAgentRadius > 0) {
		return nil, fmt.Errorf("%w: max agent radius must be positive, got %.2f", navigation.ErrEngine, maxAgentRadius)
	}
	return newCrowd(m, maxAgents, maxAgentRadius, e.log), nil
}
