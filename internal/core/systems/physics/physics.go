package physics

import "math"

// Vec3 is a Y-up 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

func V3(x, y, z float32) Vec3 { return Vec3{X: x, Y: y, Z: z} }

// FromSlice reads the first three components of s. It reports false when s
// does not hold exactly three values or any of them is not finite.
func FromSlice(s []float32) (Vec3, bool) {
	if len(s) != 3 {
		return Vec3{}, false
	}
	v := Vec3{X: s[0], Y: s[1], Z: s[2]}
	return v, v.IsFinite()
}

func (v Vec3) Slice() []float32 { return []float32{v.X, v.Y, v.Z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Mad returns v + o*s.
func (v Vec3) Mad(o Vec3, s float32) Vec3 {
	return Vec3{v.X + o.X*s, v.Y + o.Y*s, v.Z + o.Z*s}
}

// Lerp interpolates between v and o.
func (v Vec3) Lerp(o Vec3, t float32) Vec3 {
	return Vec3{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t, v.Z + (o.Z-v.Z)*t}
}

func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float32 { return sqrt(v.Dot(v)) }

func (v Vec3) Length2D() float32 { return sqrt(v.X*v.X + v.Z*v.Z) }

func (v Vec3) Dist(o Vec3) float32 { return v.Sub(o).Length() }

// Dist2D is the distance between v and o projected on the XZ plane.
func (v Vec3) Dist2D(o Vec3) float32 { return v.Sub(o).Length2D() }

func (v Vec3) DistSqr(o Vec3) float32 {
	d := v.Sub(o)
	return d.Dot(d)
}

// Normalize returns the unit vector of v, or the zero vector when v has no
// length.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Horizontal drops the Y component.
func (v Vec3) Horizontal() Vec3 { return Vec3{X: v.X, Z: v.Z} }

// Right is the horizontal vector perpendicular to v, turned a quarter turn
// clockwise when seen from above, normalized. A vertical v has no right
// vector and yields zero.
func (v Vec3) Right() Vec3 {
	r := Vec3{X: v.Z, Z: -v.X}
	l := r.Length2D()
	if l <= 0.001 {
		return r
	}
	return r.Scale(1 / l)
}

// ClampLength limits the length of v to max.
func (v Vec3) ClampLength(max float32) Vec3 {
	l := v.Length()
	if l > max && l > 0 {
		return v.Scale(max / l)
	}
	return v
}

func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func (v Vec3) Equal(o Vec3) bool { return v == o }

// Cross2D is the signed area of the triangle (o, a, b) on the XZ plane.
// Positive when b lies counter-clockwise of a around o.
func Cross2D(o, a, b Vec3) float32 {
	return (a.X-o.X)*(b.Z-o.Z) - (a.Z-o.Z)*(b.X-o.X)
}

// DistPointSegment2D returns the squared XZ distance between p and the
// segment ab, and the parameter t of the closest point.
func DistPointSegment2D(p, a, b Vec3) (float32, float32) {
	dx := b.X - a.X
	dz := b.Z - a.Z
	d := dx*dx + dz*dz
	var t float32
	if d > 0 {
		t = ((p.X-a.X)*dx + (p.Z-a.Z)*dz) / d
	}
	t = Clamp(t, 0, 1)
	ex := a.X + t*dx - p.X
	ez := a.Z + t*dz - p.Z
	return ex*ex + ez*ez, t
}

// PointInPolygon2D tests whether p lies inside the polygon verts on the XZ
// plane using the crossing rule.
func PointInPolygon2D(p Vec3, verts []Vec3) bool {
	inside := false
	for i, j := 0, len(verts)-1; i < len(verts); j, i = i, i+1 {
		vi, vj := verts[i], verts[j]
		if (vi.Z > p.Z) != (vj.Z > p.Z) &&
			p.X < (vj.X-vi.X)*(p.Z-vi.Z)/(vj.Z-vi.Z)+vi.X {
			inside = !inside
		}
	}
	return inside
}

// Distance2 computes Euclidean distance between two 2D points.
func Distance2(x1, z1, x2, z2 float32) float32 {
	return float32(math.Hypot(float64(x2-x1), float64(z2-z1)))
}

func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sqrt(v float32) float32 { return float32(math.Sqrt(float64(v))) }

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float32) bool { return isFinite(f) }
