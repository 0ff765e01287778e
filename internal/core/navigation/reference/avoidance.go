package reference

import (
	"math"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

// sampleVelocity picks a steering velocity for agent idx by scoring
// candidates on rings around the desired velocity, refining the ring radius
// on each pass.
func (c *Crowd) sampleVelocity(idx int) physics.Vec3 {
	a := &c.agents[idx]
	profile := int(a.params.ObstacleAvoidanceType)
	if profile >= len(c.avoidance) {
		profile = 0
	}
	p := c.avoidance[profile]

	vmax := a.params.MaxSpeed
	if vmax <= 0 {
		return physics.Vec3{}
	}
	divs := clampInt(int(p.AdaptiveDivs), 1, 32)
	rings := clampInt(int(p.AdaptiveRings), 1, 4)
	depth := clampInt(int(p.AdaptiveDepth), 1, 5)

	base := float32(0)
	if d := a.dvel.Horizontal(); d.Length2D() > 0.0001 {
		base = float32(math.Atan2(float64(d.Z), float64(d.X)))
	}
	da := 2 * math.Pi / float64(divs)

	pattern := []physics.Vec3{{}}
	for j := 0; j < rings; j++ {
		r := float32(rings-j) / float32(rings)
		offset := float64(j&1) * 0.5 * da
		for i := 0; i < divs; i++ {
			ang := float64(base) + offset + float64(i)*da
			pattern = append(pattern, physics.V3(float32(math.Cos(ang))*r, 0, float32(math.Sin(ang))*r))
		}
	}

	cr := vmax * (1 - p.VelBias)
	res := a.dvel.Horizontal().Scale(p.VelBias)
	for k := 0; k < depth; k++ {
		bestPenalty := float32(math.MaxFloat32)
		best := res
		for _, s := range pattern {
			cand := res.Mad(s, cr)
			if cand.Dot(cand) > (vmax+0.001)*(vmax+0.001) {
				continue
			}
			if pen := c.penalty(a, p, cand, vmax); pen < bestPenalty {
				bestPenalty = pen
				best = cand
			}
		}
		res = best
		cr *= 0.5
	}
	return res
}

func (c *Crowd) penalty(a *agent, p navigation.ObstacleAvoidanceParams, cand physics.Vec3, vmax float32) float32 {
	invVmax := 1 / vmax
	horiz := max(p.HorizTime, 0.0001)
	tmin := horiz
	var side float32
	nside := 0

	for _, j := range a.neighbors {
		b := &c.agents[j]
		vab := cand.Scale(2).Sub(a.vel).Sub(b.vel).Horizontal()

		dp := b.pos.Sub(a.pos).Horizontal().Normalize()
		np := physics.V3(-dp.Z, 0, dp.X)
		dv := b.dvel.Sub(a.dvel).Horizontal()
		side += physics.Clamp(min(dp.Dot(dv)*0.5+0.5, np.Dot(dv)*2), 0, 1)
		nside++

		htmin, htmax, ok := sweepCircleCircle(a.pos, a.params.Radius, vab, b.pos, b.params.Radius)
		if !ok {
			continue
		}
		if htmin < 0 && htmax > 0 {
			htmin = -htmin * 0.5
		}
		if htmin >= 0 && htmin < tmin {
			tmin = htmin
		}
	}
	if nside > 0 {
		side /= float32(nside)
	}

	vpen := p.WeightDesVel * cand.Dist2D(a.dvel) * invVmax
	vcpen := p.WeightCurVel * cand.Dist2D(a.vel) * invVmax
	spen := p.WeightSide * side
	tpen := p.WeightToi * (1 / (0.1 + tmin/horiz))
	return vpen + vcpen + spen + tpen
}

// sweepCircleCircle returns the times at which a circle at c0 moving with v
// touches the static circle at c1.
func sweepCircleCircle(c0 physics.Vec3, r0 float32, v physics.Vec3, c1 physics.Vec3, r1 float32) (float32, float32, bool) {
	const eps = 0.0001
	s := c1.Sub(c0)
	r := r0 + r1
	cc := s.X*s.X + s.Z*s.Z - r*r
	aa := v.X*v.X + v.Z*v.Z
	if aa < eps {
		return 0, 0, false
	}
	bb := v.X*s.X + v.Z*s.Z
	d := bb*bb - aa*cc
	if d < 0 {
		return 0, 0, false
	}
	inv := 1 / aa
	rd := sqrt32(d)
	return (bb - rd) * inv, (bb + rd) * inv, true
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
