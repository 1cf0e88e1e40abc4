package gravity

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

/*

body section: per-particle state and the per-tick integrator.

*/

// Body is a point mass. Acc accumulates during a tick's tree walk and is
// consumed (and zeroed) by the next Update.
type Body struct {
	Pos  mgl64.Vec3
	Vel  mgl64.Vec3
	Acc  mgl64.Vec3
	Mass float64

	// bounded ring of recent positions, oldest overwritten first.
	trail []mgl64.Vec3
	tcur  int
}

// NewBody creates a body at rest.
func NewBody(pos mgl64.Vec3, mass float64) *Body {
	return &Body{Pos: pos, Mass: mass}
}

// Radius derives a display radius from mass: ten times the radius of a
// unit-density sphere, plus a fixed pad so small bodies stay visible.
func (b *Body) Radius() float64 {
	return 10*math.Cbrt(3*b.Mass/(4*math.Pi)) + 10
}

// EnableTrail sizes the motion-trail ring to n positions. n <= 0
// disables the trail.
func (b *Body) EnableTrail(n int) {
	if n <= 0 {
		b.trail = nil
		b.tcur = 0
		return
	}
	b.trail = make([]mgl64.Vec3, 0, n)
	b.tcur = 0
}

// Trail returns the recorded positions, oldest first.
func (b *Body) Trail() []mgl64.Vec3 {
	if len(b.trail) < cap(b.trail) {
		out := make([]mgl64.Vec3, len(b.trail))
		copy(out, b.trail)
		return out
	}
	out := make([]mgl64.Vec3, 0, len(b.trail))
	out = append(out, b.trail[b.tcur:]...)
	out = append(out, b.trail[:b.tcur]...)
	return out
}

func (b *Body) pushTrail(p mgl64.Vec3) {
	if len(b.trail) < cap(b.trail) {
		b.trail = append(b.trail, p)
		return
	}
	b.trail[b.tcur] = p
	b.tcur = (b.tcur + 1) % len(b.trail)
}

// Update advances the body one tick under the speed ceiling c: record the
// trail point, clamp |v| to c, fold the pending acceleration into the
// velocity with the relativistic composition step, clamp |v| to c again,
// move, and clear the acceleration. the second clamp covers what the
// composition alone does not bound: a kick from rest, or a kick larger
// than c.
func (b *Body) Update(c float64) {
	if cap(b.trail) > 0 {
		b.pushTrail(b.Pos)
	}

	s := b.Vel.Len()
	if s > c {
		b.Vel = b.Vel.Mul(c / s)
		s = c
	}

	if s == 0 {
		b.Vel = b.Vel.Add(b.Acc)
	} else {
		par := project(b.Acc, b.Vel)
		ort := b.Acc.Sub(par)
		alpha := math.Sqrt(1 - (s*s)/(c*c))
		b.Vel = b.Vel.Add(par).Add(ort.Mul(alpha)).
			Mul(1 / (1 + b.Vel.Dot(b.Acc)/(c*c)))
	}

	if s = b.Vel.Len(); s > c {
		b.Vel = b.Vel.Mul(c / s)
	}

	b.Pos = b.Pos.Add(b.Vel)
	b.Acc = mgl64.Vec3{}
}

// Rotate rotates the body about the axis through base. position and
// trail points rotate as points in space. velocity and acceleration are
// directions from an origin, not points: shift them to base, rotate,
// and shift back.
func (b *Body) Rotate(base, axis mgl64.Vec3, angle float64) {
	b.Pos = rotateAbout(b.Pos, base, axis, angle)
	b.Vel = rotateAbout(b.Vel.Add(base), base, axis, angle).Sub(base)
	b.Acc = rotateAbout(b.Acc.Add(base), base, axis, angle).Sub(base)
	for i := range b.trail {
		b.trail[i] = rotateAbout(b.trail[i], base, axis, angle)
	}
}

func (b *Body) String() string {
	return fmt.Sprintf("m: %.4f\np: [%.2f, %.2f, %.2f]\nv: [%.2f, %.2f, %.2f]\n",
		b.Mass, b.Pos[0], b.Pos[1], b.Pos[2], b.Vel[0], b.Vel[1], b.Vel[2])
}
