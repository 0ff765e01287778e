package navigator

import (
	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/core/params"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

// GetSettings returns the 13 build settings of the next build.
func (n *Navmesh) GetSettings() map[string]float32 {
	if !n.requireGeometry("Get settings") {
		return map[string]float32{}
	}
	return params.SettingsMap(n.settings)
}

// SetSettings overlays the recognized keys of m onto the build settings.
// Unknown keys are ignored.
func (n *Navmesh) SetSettings(m map[string]float32) bool {
	if !n.requireGeometry("Set settings") {
		return false
	}
	params.ParseSettings(m).ApplyTo(&n.settings)
	return true
}

func (n *Navmesh) GetPartitionType() navigation.PartitionType {
	if !n.requireGeometry("Get partition type") {
		return navigation.PartitionWatershed
	}
	return n.settings.PartitionType
}

func (n *Navmesh) SetPartitionType(p navigation.PartitionType) bool {
	const op = "Set partition type"
	if !n.requireGeometry(op) {
		return false
	}
	if !p.Valid() {
		n.fail(navigation.Invalid(op, nil, "unknown partition type %d", int(p)))
		return false
	}
	n.settings.PartitionType = p
	return true
}

// MarkWalkableTriangles sets the slope limit of the next build.
func (n *Navmesh) MarkWalkableTriangles(slope float32) bool {
	const op = "Mark walkable triangles"
	if !n.requireGeometry(op) {
		return false
	}
	if !physics.IsFinite(slope) {
		n.fail(navigation.Invalid(op, nil, "slope must be finite, got %v", slope))
		return false
	}
	n.settings.AgentMaxSlope = slope
	n.log.Warn(op+": applied as agentMaxSlope of the next build", log.Float32("slope", slope))
	return true
}

// ErodeWalkableArea only reports that erosion happens during the build.
func (n *Navmesh) ErodeWalkableArea(radius int) {
	const op = "Erode walkable area"
	if !n.requireGeometry(op) {
		return
	}
	n.log.Warn(op+": this should be applied during navmesh build process", log.Int("radius", radius))
}

// MedianFilterWalkableArea only reports that filtering happens during the
// build.
func (n *Navmesh) MedianFilterWalkableArea() {
	const op = "Median filter walkable area"
	if !n.requireGeometry(op) {
		return
	}
	n.log.Warn(op + ": this should be applied during navmesh build process")
}
