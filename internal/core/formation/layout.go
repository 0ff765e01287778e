// Package formation groups crowd agents and steers each group as one
// pattern toward a shared destination.
package formation

import (
	"fmt"
	"math"
	"strings"

	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

// Shape is the slot pattern of a formation.
type Shape int

const (
	ShapeLine Shape = iota
	ShapeColumn
	ShapeWedge
	ShapeBox
	ShapeCircle
)

var shapeNames = [...]string{"line", "column", "wedge", "box", "circle"}

func (s Shape) String() string {
	if s.Valid() {
		return shapeNames[s]
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

func (s Shape) Valid() bool {
	return s >= ShapeLine && s <= ShapeCircle
}

// ParseShape accepts a shape name or its numeric value.
func ParseShape(name string) (Shape, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range shapeNames {
		if n == name || fmt.Sprint(i) == name {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("unknown formation shape %q", name)
}

// Right returns forward turned a quarter clockwise in the horizontal plane.
func Right(forward physics.Vec3) physics.Vec3 {
	r := physics.V3(forward.Z, 0, -forward.X)
	if l := r.Length2D(); l > 0.001 {
		r = r.Scale(1 / l)
	}
	return r
}

// Slot returns the target of slot i among n for a formation centered on
// center and facing forward. The height of every slot is the height of the
// center.
func Slot(shape Shape, spacing float32, center, forward physics.Vec3, i, n int) physics.Vec3 {
	right := Right(forward)
	var side, back float32
	switch shape {
	case ShapeLine:
		side = float32(i-n/2) * spacing
	case ShapeColumn:
		back = float32(i) * spacing
	case ShapeWedge:
		row := int(math.Sqrt(float64(i)))
		col := i - row*row
		side = (float32(col) - float32(row)*0.5) * spacing
		back = float32(row) * spacing
	case ShapeBox:
		cols := int(math.Ceil(math.Sqrt(float64(n))))
		row, col := i/cols, i%cols
		side = (float32(col) - float32(cols)*0.5) * spacing
		back = float32(row) * spacing
	case ShapeCircle:
		angle := float64(i) / float64(n) * 2 * math.Pi
		radius := spacing * float32(n) / (2 * math.Pi)
		side = radius * float32(math.Cos(angle))
		back = -radius * float32(math.Sin(angle))
	}
	return physics.V3(
		center.X+side*right.X-back*forward.X,
		center.Y,
		center.Z+side*right.Z-back*forward.Z,
	)
}

// Layout returns the targets of all n slots.
func Layout(shape Shape, spacing float32, center, forward physics.Vec3, n int) []physics.Vec3 {
	if n <= 0 {
		return nil
	}
	out := make([]physics.Vec3, n)
	for i := range out {
		out[i] = Slot(shape, spacing, center, forward, i, n)
	}
	return out
}
