package arena

import "math"

type Vec2 struct{ X, Y float64 }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Len() float64    { return math.Hypot(a.X, a.Y) }
func (a Vec2) Norm() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}
func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }

func (a Vec2) DistSq(b Vec2) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// StepToward moves a toward b by at most step and stops keep units short.
func (a Vec2) StepToward(b Vec2, step, keep float64) Vec2 {
	diff := b.Sub(a)
	d := diff.Len() - keep
	if d <= 0 || step <= 0 {
		return a
	}
	return a.Add(diff.Norm().Scale(math.Min(step, d)))
}
