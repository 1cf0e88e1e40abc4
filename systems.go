package gravity

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl64"
)

/*

system generators: preset initial conditions. each one atomically
replaces the contents of the body vector under the body lock. y is "up"
for the disk-like systems.

*/

// SystemType selects a generator preset.
type SystemType int

const (
	None SystemType = iota
	SlowParticles
	FastParticles
	MassiveBody
	OrbitalSystem
	BinarySystem
	PlanetarySystem
	DistributionTest
	NoiseCloud
)

var systemNames = map[SystemType]string{
	None:             "none",
	SlowParticles:    "slow-particles",
	FastParticles:    "fast-particles",
	MassiveBody:      "massive-body",
	OrbitalSystem:    "orbital-system",
	BinarySystem:     "binary-system",
	PlanetarySystem:  "planetary-system",
	DistributionTest: "distribution-test",
	NoiseCloud:       "noise-cloud",
}

func (st SystemType) String() string {
	if s, ok := systemNames[st]; ok {
		return s
	}
	return fmt.Sprintf("SystemType(%d)", int(st))
}

// ParseSystemType maps a preset name (as printed by String) back to its
// SystemType.
func ParseSystemType(name string) (SystemType, error) {
	for st, s := range systemNames {
		if s == name {
			return st, nil
		}
	}
	return None, fmt.Errorf("unknown system type %q", name)
}

// Generate fills the body vector from the chosen preset, replacing
// whatever was there.
func (w *World) Generate(st SystemType) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.bodies {
		w.bodies[i] = nil
	}

	switch st {
	case None:
		// cleared above
	case SlowParticles:
		w.genParticles(5)
	case FastParticles:
		w.genParticles(5e3)
	case MassiveBody:
		w.genMassiveBody()
	case OrbitalSystem:
		w.genOrbitalSystem()
	case BinarySystem:
		w.genBinarySystem()
	case PlanetarySystem:
		w.genPlanetarySystem()
	case DistributionTest:
		w.genDistributionTest()
	case NoiseCloud:
		w.genNoiseCloud()
	default:
		return fmt.Errorf("unknown system type %d", int(st))
	}

	if w.trailLen > 0 {
		for _, b := range w.bodies {
			if b != nil {
				b.EnableTrail(w.trailLen)
			}
		}
	}
	return nil
}

var up = mgl64.Vec3{0, 1, 0}

// orbitSpeed is the circular-orbit speed for an orbiter of mass m at
// distance d from a primary of mass pm. note the pm² numerator: it
// reduces to the textbook √(G·M/d) only as m → 0, and every preset
// uses this same form.
func orbitSpeed(g, pm, m, d float64) float64 {
	return math.Sqrt(g * pm * pm / ((pm + m) * d))
}

// orbitVelocity is the circular-orbit velocity of b around primary:
// speed from orbitSpeed, direction unit(cross(r, ŷ)), riding on the
// primary's own velocity.
func orbitVelocity(g float64, primary, b *Body) mgl64.Vec3 {
	r := b.Pos.Sub(primary.Pos)
	d := r.Len()
	if d == 0 {
		return primary.Vel
	}
	dir := unit(r.Cross(up))
	return dir.Mul(orbitSpeed(g, primary.Mass, b.Mass, d)).Add(primary.Vel)
}

// diskPosition samples a point of a thick disk: radius d from the axis,
// angle uniform, height y.
func diskPosition(d, y float64) mgl64.Vec3 {
	th := Double(2 * math.Pi)
	return mgl64.Vec3{math.Cos(th) * d, y, math.Sin(th) * d}
}

func particleMass() float64 { return DoubleRange(3e4, 1e6+3e4) }

// genParticles fills every slot with a cloud particle whose velocity
// components are uniform in ±vmag.
func (w *World) genParticles(vmag float64) {
	for i := range w.bodies {
		b := NewBody(diskPosition(Double(1e6), DoubleRange(-2e5, 2e5)), particleMass())
		b.Vel = RandVector(vmag)
		w.bodies[i] = b
	}
}

// genMassiveBody: a dominant primary, a secondary near it, and the rest
// of the slots orbiting the secondary in a shallow disk. the finished
// disk is rigidly tilted about (1,1,1) through the origin.
func (w *World) genMassiveBody() {
	primary := NewBody(mgl64.Vec3{}, 1e10)
	w.bodies[0] = primary
	if len(w.bodies) < 2 {
		return
	}

	secondary := NewBody(diskPosition(DoubleRange(3e5, 5e5), 0), DoubleRange(1e8, 1e9))
	secondary.Vel = orbitVelocity(w.G, primary, secondary)
	w.bodies[1] = secondary

	for i := 2; i < len(w.bodies); i++ {
		d := DoubleRange(1e4, 1e5)
		b := NewBody(secondary.Pos.Add(diskPosition(d, DoubleRange(-d/20, d/20))), particleMass())
		b.Vel = orbitVelocity(w.G, secondary, b)
		w.bodies[i] = b
	}

	for _, b := range w.bodies {
		if b != nil {
			b.Rotate(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, math.Pi/10)
		}
	}
}

// genOrbitalSystem: a central primary with circular orbiters in a thick
// disk.
func (w *World) genOrbitalSystem() {
	primary := NewBody(mgl64.Vec3{}, 1e10)
	w.bodies[0] = primary

	for i := 1; i < len(w.bodies); i++ {
		b := NewBody(diskPosition(DoubleRange(5e4, 1e6), DoubleRange(-2e5, 2e5)), particleMass())
		b.Vel = orbitVelocity(w.G, primary, b)
		w.bodies[i] = b
	}
}

// genBinarySystem: two massive bodies at equal half-separations about
// the origin on a random line in the x-z plane, each with the circular
// speed of the reduced two-body problem, plus a surrounding disk. disk
// bodies closer than twice the separation get their speed scaled by
// d/(2·sep), at least one half since d >= sep, so the inner edge doesn't
// fly apart.
func (w *World) genBinarySystem() {
	sep := DoubleRange(4e5, 8e5)
	dir := diskPosition(1, 0) // random unit direction in x-z

	a := NewBody(dir.Mul(sep/2), DoubleRange(1e9, 1e10))
	b := NewBody(dir.Mul(-sep/2), DoubleRange(1e9, 1e10))
	a.Vel = unit(a.Pos.Cross(up)).Mul(orbitSpeed(w.G, b.Mass, a.Mass, sep))
	b.Vel = unit(b.Pos.Cross(up)).Mul(orbitSpeed(w.G, a.Mass, b.Mass, sep))
	w.bodies[0] = a
	if len(w.bodies) < 2 {
		return
	}
	w.bodies[1] = b

	pair := NewBody(mgl64.Vec3{}, a.Mass+b.Mass)
	for i := 2; i < len(w.bodies); i++ {
		d := DoubleRange(sep, 3e6)
		o := NewBody(diskPosition(d, DoubleRange(-d/10, d/10)), particleMass())
		o.Vel = orbitVelocity(w.G, pair, o)
		if d < 2*sep {
			o.Vel = o.Vel.Mul(d / (2 * sep))
		}
		w.bodies[i] = o
	}
}

// genPlanetarySystem: a central star, 5-14 planets on circular orbits,
// a ring of 100 coplanar particles around one planet, 0-3 moons around
// the others, and an outer asteroid belt in any remaining slots.
func (w *World) genPlanetarySystem() {
	star := NewBody(mgl64.Vec3{}, 1e10)
	w.bodies[0] = star
	slot := 1

	place := func(b *Body) bool {
		if slot >= len(w.bodies) {
			return false
		}
		w.bodies[slot] = b
		slot++
		return true
	}

	nplanets := 5 + Int(9)
	ringed := Int(nplanets - 1)
	for p := 0; p < nplanets; p++ {
		d := DoubleRange(3e5, 3e6)
		planet := NewBody(diskPosition(d, DoubleRange(-d/50, d/50)), DoubleRange(1e6, 1e8))
		planet.Vel = orbitVelocity(w.G, star, planet)
		if !place(planet) {
			return
		}

		if p == ringed {
			// ring particles share the planet's y so the ring is flat.
			for r := 0; r < 100; r++ {
				rr := DoubleRange(3e3, 6e3)
				th := Double(2 * math.Pi)
				pos := planet.Pos.Add(mgl64.Vec3{math.Cos(th) * rr, 0, math.Sin(th) * rr})
				grain := NewBody(pos, DoubleRange(1e2, 1e3))
				grain.Vel = orbitVelocity(w.G, planet, grain)
				if !place(grain) {
					return
				}
			}
			continue
		}

		for m := Int(3); m > 0; m-- {
			md := DoubleRange(4e3, 2e4)
			moon := NewBody(planet.Pos.Add(diskPosition(md, DoubleRange(-md/10, md/10))), DoubleRange(1e3, 1e5))
			moon.Vel = orbitVelocity(w.G, planet, moon)
			if !place(moon) {
				return
			}
		}
	}

	// outer belt fills whatever is left.
	for slot < len(w.bodies) {
		d := DoubleRange(3.2e6, 4e6)
		rock := NewBody(diskPosition(d, DoubleRange(-d/40, d/40)), DoubleRange(1e3, 1e5))
		rock.Vel = orbitVelocity(w.G, star, rock)
		place(rock)
	}
}

// distribution-test lattice spacing.
const latticeSpacing = 4e4

// genDistributionTest: a centered cubic lattice of side ⌊N^(1/3)⌋,
// every body identical and at rest. exercises tree construction with a
// known geometry.
func (w *World) genDistributionTest() {
	// floor of the cube root, guarded against Cbrt landing a hair under
	// an exact integer.
	side := int(math.Cbrt(float64(len(w.bodies))) + 1e-9)
	for side*side*side > len(w.bodies) {
		side--
	}
	if side < 1 {
		return
	}
	i := 0
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			for z := 0; z < side; z++ {
				pos := mgl64.Vec3{
					float64(x-side/2) * latticeSpacing,
					float64(y-side/2) * latticeSpacing,
					float64(z-side/2) * latticeSpacing,
				}
				w.bodies[i] = NewBody(pos, 5e6)
				i++
			}
		}
	}
}

// genNoiseCloud: particles rejection-sampled against a perlin density
// field, giving a clumpy cloud instead of the uniform disk presets.
func (w *World) genNoiseCloud() {
	const (
		extent = 1e6
		scale  = 1.5 / extent
	)
	noise := perlin.NewPerlin(2, 2, 3, int64(Int(math.MaxInt32)))
	for i := range w.bodies {
		pos := RandVector(extent)
		for try := 0; try < 16; try++ {
			density := (noise.Noise3D(pos[0]*scale, pos[1]*scale, pos[2]*scale) + 1) / 2
			if Double(1) < density {
				break
			}
			pos = RandVector(extent)
		}
		b := NewBody(pos, particleMass())
		b.Vel = RandVector(5)
		w.bodies[i] = b
	}
}
