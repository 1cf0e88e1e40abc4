// Package gravity implements a real-time gravitational n-body simulator
// built around a Barnes-Hut octree.
package gravity

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

/*

vector helpers.
mgl64.Vec3 carries the arithmetic; these fill in what it lacks.

*/

// project returns the projection of a onto b. projecting onto the zero
// vector yields the zero vector.
func project(a, b mgl64.Vec3) mgl64.Vec3 {
	bb := b.Dot(b)
	if bb == 0 {
		return mgl64.Vec3{}
	}
	return b.Mul(a.Dot(b) / bb)
}

// reject returns the component of a orthogonal to b.
func reject(a, b mgl64.Vec3) mgl64.Vec3 {
	return a.Sub(project(a, b))
}

// unit normalizes a. the zero vector stays zero.
func unit(a mgl64.Vec3) mgl64.Vec3 {
	l := a.Len()
	if l == 0 {
		return a
	}
	return a.Mul(1 / l)
}

// rotateAbout rotates point p by a signed angle around the axis through
// base, using Rodrigues' rotation formula. a zero axis leaves p alone.
func rotateAbout(p, base, axis mgl64.Vec3, angle float64) mgl64.Vec3 {
	k := unit(axis)
	if k == (mgl64.Vec3{}) {
		return p
	}
	v := p.Sub(base)
	sin, cos := math.Sincos(angle)
	r := v.Mul(cos).
		Add(k.Cross(v).Mul(sin)).
		Add(k.Mul(k.Dot(v) * (1 - cos)))
	return r.Add(base)
}

// maxAbs returns the largest absolute component of v.
func maxAbs(v mgl64.Vec3) float64 {
	return math.Max(math.Abs(v[0]), math.Max(math.Abs(v[1]), math.Abs(v[2])))
}

// finite reports whether every component of v is a real number.
func finite(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}
