// Package params converts between the sparse string keyed parameter maps of
// the flat API and the dense engine structures.
package params

import (
	"math"

	"github.com/zeusync/crowdnav/internal/core/navigation"
)

const (
	minCellSize     = 0.0001
	minVertsPerPoly = 3
	maxVertsPerPoly = 6
)

// Settings keys, in the order SettingsMap reports them.
const (
	KeyCellSize             = "cellSize"
	KeyCellHeight           = "cellHeight"
	KeyAgentHeight          = "agentHeight"
	KeyAgentRadius          = "agentRadius"
	KeyAgentMaxClimb        = "agentMaxClimb"
	KeyAgentMaxSlope        = "agentMaxSlope"
	KeyRegionMinSize        = "regionMinSize"
	KeyRegionMergeSize      = "regionMergeSize"
	KeyEdgeMaxLen           = "edgeMaxLen"
	KeyEdgeMaxError         = "edgeMaxError"
	KeyVertsPerPoly         = "vertsPerPoly"
	KeyDetailSampleDist     = "detailSampleDist"
	KeyDetailSampleMaxError = "detailSampleMaxError"
)

// SettingsPatch holds the build settings a caller asked to change. A nil
// field leaves the current value alone.
type SettingsPatch struct {
	CellSize             *float32
	CellHeight           *float32
	AgentHeight          *float32
	AgentRadius          *float32
	AgentMaxClimb        *float32
	AgentMaxSlope        *float32
	RegionMinSize        *float32
	RegionMergeSize      *float32
	EdgeMaxLen           *float32
	EdgeMaxError         *float32
	VertsPerPoly         *float32
	DetailSampleDist     *float32
	DetailSampleMaxError *float32
}

// ParseSettings picks the recognized keys out of m. Unknown keys are ignored.
func ParseSettings(m map[string]float32) SettingsPatch {
	var p SettingsPatch
	for k, v := range m {
		v := v
		switch k {
		case KeyCellSize:
			p.CellSize = &v
		case KeyCellHeight:
			p.CellHeight = &v
		case KeyAgentHeight:
			p.AgentHeight = &v
		case KeyAgentRadius:
			p.AgentRadius = &v
		case KeyAgentMaxClimb:
			p.AgentMaxClimb = &v
		case KeyAgentMaxSlope:
			p.AgentMaxSlope = &v
		case KeyRegionMinSize:
			p.RegionMinSize = &v
		case KeyRegionMergeSize:
			p.RegionMergeSize = &v
		case KeyEdgeMaxLen:
			p.EdgeMaxLen = &v
		case KeyEdgeMaxError:
			p.EdgeMaxError = &v
		case KeyVertsPerPoly:
			p.VertsPerPoly = &v
		case KeyDetailSampleDist:
			p.DetailSampleDist = &v
		case KeyDetailSampleMaxError:
			p.DetailSampleMaxError = &v
		}
	}
	return p
}

// Empty reports whether the patch changes nothing.
func (p SettingsPatch) Empty() bool {
	return p == SettingsPatch{}
}

// ApplyTo writes the patch into s. Cell sizes are floored to a small
// positive value, agent height and radius to zero and verts per polygon is
// clamped to [3, 6]. Everything else passes through.
func (p SettingsPatch) ApplyTo(s *navigation.BuildSettings) {
	set(&s.CellSize, p.CellSize, floor(minCellSize))
	set(&s.CellHeight, p.CellHeight, floor(minCellSize))
	set(&s.AgentHeight, p.AgentHeight, floor(0))
	set(&s.AgentRadius, p.AgentRadius, floor(0))
	set(&s.AgentMaxClimb, p.AgentMaxClimb, nil)
	set(&s.AgentMaxSlope, p.AgentMaxSlope, nil)
	set(&s.RegionMinSize, p.RegionMinSize, nil)
	set(&s.RegionMergeSize, p.RegionMergeSize, nil)
	set(&s.EdgeMaxLen, p.EdgeMaxLen, nil)
	set(&s.EdgeMaxError, p.EdgeMaxError, nil)
	set(&s.VertsPerPoly, p.VertsPerPoly, func(v float32) float32 {
		if math.IsNaN(float64(v)) {
			return minVertsPerPoly
		}
		return max(minVertsPerPoly, min(v, maxVertsPerPoly))
	})
	set(&s.DetailSampleDist, p.DetailSampleDist, nil)
	set(&s.DetailSampleMaxError, p.DetailSampleMaxError, nil)
}

// SettingsMap reports every key ParseSettings accepts.
func SettingsMap(s navigation.BuildSettings) map[string]float32 {
	return map[string]float32{
		KeyCellSize:             s.CellSize,
		KeyCellHeight:           s.CellHeight,
		KeyAgentHeight:          s.AgentHeight,
		KeyAgentRadius:          s.AgentRadius,
		KeyAgentMaxClimb:        s.AgentMaxClimb,
		KeyAgentMaxSlope:        s.AgentMaxSlope,
		KeyRegionMinSize:        s.RegionMinSize,
		KeyRegionMergeSize:      s.RegionMergeSize,
		KeyEdgeMaxLen:           s.EdgeMaxLen,
		KeyEdgeMaxError:         s.EdgeMaxError,
		KeyVertsPerPoly:         s.VertsPerPoly,
		KeyDetailSampleDist:     s.DetailSampleDist,
		KeyDetailSampleMaxError: s.DetailSampleMaxError,
	}
}

func set[T any](dst *T, v *T, clamp func(T) T) {
	if v == nil {
		return
	}
	if clamp != nil {
		*dst = clamp(*v)
		return
	}
	*dst = *v
}

func floor(lo float32) func(float32) float32 {
	return func(v float32) float32 {
		if math.IsNaN(float64(v)) {
			return lo
		}
		return max(v, lo)
	}
}

// toUint8 truncates v the way a C cast of a small float to unsigned char
// does for in-range values. NaN maps to zero.
func toUint8(v float32) uint8 {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0
	}
	return uint8(int64(v))
}

func flag(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
