package params

import "github.com/zeusync/crowdnav/internal/core/navigation"

// Obstacle avoidance keys.
const (
	KeyVelBias       = "velBias"
	KeyWeightDesVel  = "weightDesVel"
	KeyWeightCurVel  = "weightCurVel"
	KeyWeightSide    = "weightSide"
	KeyWeightToi     = "weightToi"
	KeyHorizTime     = "horizTime"
	KeyGridSize      = "gridSize"
	KeyAdaptiveDivs  = "adaptiveDivs"
	KeyAdaptiveRings = "adaptiveRings"
	KeyAdaptiveDepth = "adaptiveDepth"
)

type AvoidancePatch struct {
	VelBias       *float32
	WeightDesVel  *float32
	WeightCurVel  *float32
	WeightSide    *float32
	WeightToi     *float32
	HorizTime     *float32
	GridSize      *float32
	AdaptiveDivs  *float32
	AdaptiveRings *float32
	AdaptiveDepth *float32
}

func ParseAvoidance(m map[string]float32) AvoidancePatch {
	var p AvoidancePatch
	for k, v := range m {
		v := v
		switch k {
		case KeyVelBias:
			p.VelBias = &v
		case KeyWeightDesVel:
			p.WeightDesVel = &v
		case KeyWeightCurVel:
			p.WeightCurVel = &v
		case KeyWeightSide:
			p.WeightSide = &v
		case KeyWeightToi:
			p.WeightToi = &v
		case KeyHorizTime:
			p.HorizTime = &v
		case KeyGridSize:
			p.GridSize = &v
		case KeyAdaptiveDivs:
			p.AdaptiveDivs = &v
		case KeyAdaptiveRings:
			p.AdaptiveRings = &v
		case KeyAdaptiveDepth:
			p.AdaptiveDepth = &v
		}
	}
	return p
}

func (p AvoidancePatch) ApplyTo(ap *navigation.ObstacleAvoidanceParams) {
	set(&ap.VelBias, p.VelBias, nil)
	set(&ap.WeightDesVel, p.WeightDesVel, nil)
	set(&ap.WeightCurVel, p.WeightCurVel, nil)
	set(&ap.WeightSide, p.WeightSide, nil)
	set(&ap.WeightToi, p.WeightToi, nil)
	set(&ap.HorizTime, p.HorizTime, nil)
	for _, f := range []struct {
		dst *uint8
		v   *float32
	}{
		{&ap.GridSize, p.GridSize},
		{&ap.AdaptiveDivs, p.AdaptiveDivs},
		{&ap.AdaptiveRings, p.AdaptiveRings},
		{&ap.AdaptiveDepth, p.AdaptiveDepth},
	} {
		if f.v != nil {
			*f.dst = toUint8(*f.v)
		}
	}
}

func AvoidanceMap(ap navigation.ObstacleAvoidanceParams) map[string]float32 {
	return map[string]float32{
		KeyVelBias:       ap.VelBias,
		KeyWeightDesVel:  ap.WeightDesVel,
		KeyWeightCurVel:  ap.WeightCurVel,
		KeyWeightSide:    ap.WeightSide,
		KeyWeightToi:     ap.WeightToi,
		KeyHorizTime:     ap.HorizTime,
		KeyGridSize:      float32(ap.GridSize),
		KeyAdaptiveDivs:  float32(ap.AdaptiveDivs),
		KeyAdaptiveRings: float32(ap.AdaptiveRings),
		KeyAdaptiveDepth: float32(ap.AdaptiveDepth),
	}
}
