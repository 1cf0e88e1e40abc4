package gravity

import (
	"fmt"
	"log"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/dgravesa/go-parallel/parallel"
	"github.com/go-gl/mathgl/mgl64"
)

/*

world section: the per-tick orchestrator, commands, and observers.
one mutex guards the body vector; every whole-set operation (tick,
generate, rotate, resize, snapshot) holds it for its full duration.

*/

// tunable process defaults.
const (
	DefaultG = 67   // gravitational constant
	DefaultC = 1e4  // speed ceiling
	DefaultN = 1000 // body slot capacity
)

const (
	// FpsMax caps the smoothed frame-rate readout.
	FpsMax = 999.9

	frameInterval  = 33 * time.Millisecond
	fpsSmoothing   = 0.2
	cameraEasing   = 0.94
	rootSlack      = 2.1 // root width per unit of farthest coordinate
	defaultCameraZ = 1e6
)

// World owns the body vector and advances it tick by tick. a World is a
// handle: constants G and C are fields, not globals, so independent
// worlds can coexist.
type World struct {
	G float64
	C float64

	// Workers sizes the acceleration pass; <= 0 means 2x CPU count.
	Workers int

	mu       sync.Mutex
	bodies   []*Body
	tree     *Octree
	active   bool
	direct   bool
	frames   int
	fps      float64
	camZ     float64
	camVZ    float64
	trailLen int
	warnOnce sync.Once
}

// NewWorld allocates a world with n body slots, all empty.
func NewWorld(n int) (*World, error) {
	if n <= 0 {
		return nil, fmt.Errorf("world: capacity must be positive, got %d", n)
	}
	w := &World{
		G:      DefaultG,
		C:      DefaultC,
		bodies: make([]*Body, n),
		camZ:   defaultCameraZ,
	}
	w.tree = NewOctree(w.G)
	return w, nil
}

// SetAccuracy adjusts the tree opening angle and softening length.
func (w *World) SetAccuracy(theta, epsilon float64) {
	w.mu.Lock()
	w.tree.Theta = theta
	w.tree.Epsilon = epsilon
	w.mu.Unlock()
}

// SetDirect toggles the O(n²) reference sum in place of the tree. kept
// for validating the tree and for small systems.
func (w *World) SetDirect(on bool) {
	w.mu.Lock()
	w.direct = on
	w.mu.Unlock()
}

// SetActive starts or pauses the physics. pausing leaves the body
// vector untouched.
func (w *World) SetActive(on bool) {
	w.mu.Lock()
	w.active = on
	w.mu.Unlock()
}

// ToggleActive flips the active flag and returns the new state.
func (w *World) ToggleActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = !w.active
	return w.active
}

// EnableTrails sizes the motion-trail ring on every live body and on
// bodies created by later generators. n <= 0 disables trails.
func (w *World) EnableTrails(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.trailLen = n
	for _, b := range w.bodies {
		if b != nil {
			b.EnableTrail(n)
		}
	}
}

// Tick advances the simulation one frame: physics when active, then
// camera housekeeping. frame pacing and the FPS readout belong to Run.
func (w *World) Tick() {
	if w.isActive() {
		w.step()
	}
	w.easeCamera()
}

func (w *World) isActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// step is one physics pass: advance every body under the speed ceiling
// while scanning the farthest coordinate, rebuild the tree around that
// bound, then accumulate accelerations for the next tick in parallel.
func (w *World) step() {
	w.mu.Lock()
	defer w.mu.Unlock()

	h := 0.0
	live := 0
	for _, b := range w.bodies {
		if b == nil {
			continue
		}
		b.Update(w.C)
		live++
		if m := maxAbs(b.Pos); m > h {
			h = m
		}
	}
	if live == 0 {
		return
	}

	// the 0.1 slack keeps every body strictly inside the root despite
	// floating-point drift.
	w.tree.G = w.G
	w.tree.Reset(mgl64.Vec3{}, rootSlack*h)
	for _, b := range w.bodies {
		if b != nil && finite(b.Pos) {
			w.tree.Insert(b)
		}
	}

	if err := w.accelerateAll(); err != nil {
		// a worker died mid-phase. drop the partial accelerations so the
		// next update sees the pre-tick zeros.
		for _, b := range w.bodies {
			if b != nil {
				b.Acc = mgl64.Vec3{}
			}
		}
		log.Printf("gravity: acceleration pass failed: %v", err)
	}

	for _, b := range w.bodies {
		if b == nil {
			continue
		}
		if !finite(b.Acc) {
			b.Acc = mgl64.Vec3{}
			w.warnOnce.Do(func() {
				log.Print("gravity: non-finite acceleration detected; quiescing affected bodies")
			})
		}
	}

	if w.tree.Count() > 0 {
		w.frames++
	}
}

func (w *World) accelerateAll() error {
	if w.direct {
		return w.accelerateDirect()
	}
	return ParallelFor(0, len(w.bodies), w.Workers, func(i int) {
		if b := w.bodies[i]; b != nil && finite(b.Pos) {
			w.tree.Accelerate(b)
		}
	})
}

// accelerateDirect is the pairwise reference sum, softened identically
// to the tree. worker i writes only bodies[i].Acc, so the loop is
// race-free under index partitioning.
func (w *World) accelerateDirect() error {
	eps2 := w.tree.Epsilon * w.tree.Epsilon
	p := w.Workers
	if p <= 0 {
		p = 2 * runtime.NumCPU()
	}
	parallel.WithNumGoroutines(p).For(len(w.bodies), func(i, _ int) {
		b := w.bodies[i]
		if b == nil || !finite(b.Pos) {
			return
		}
		for j, o := range w.bodies {
			if o == nil || j == i || !finite(o.Pos) {
				continue
			}
			d := o.Pos.Sub(b.Pos)
			r := math.Sqrt(d.Dot(d) + eps2)
			if r == 0 {
				continue
			}
			k := w.G * o.Mass / (r * r * r)
			b.Acc = b.Acc.Add(d.Mul(k))
		}
	})
	return nil
}

// easeCamera advances the camera toward its target distance.
func (w *World) easeCamera() {
	w.mu.Lock()
	w.camZ += w.camVZ * w.camZ
	if w.camZ < 1 {
		w.camZ = 1
	}
	w.camVZ *= cameraEasing
	w.mu.Unlock()
}

// Run ticks the world at the frame interval until stop closes,
// maintaining the smoothed FPS readout. intended for a dedicated
// goroutine; a headless driver may call Tick directly instead.
func (w *World) Run(stop <-chan struct{}) {
	last := time.Now()
	for {
		select {
		case <-stop:
			return
		default:
		}

		w.Tick()

		if d := frameInterval - time.Since(last); d > 0 {
			time.Sleep(d)
		}
		now := time.Now()
		if dms := float64(now.Sub(last).Milliseconds()); dms > 0 {
			w.mu.Lock()
			w.fps += (1000/dms - w.fps) * fpsSmoothing
			if w.fps > FpsMax {
				w.fps = FpsMax
			}
			w.mu.Unlock()
		}
		last = now
	}
}

// Rotate rigidly rotates every body (positions, velocities, pending
// accelerations, trails) about the axis through base.
func (w *World) Rotate(base, axis mgl64.Vec3, angle float64) error {
	if !finite(base) || !finite(axis) || math.IsNaN(angle) || math.IsInf(angle, 0) {
		return fmt.Errorf("world: non-finite rotation arguments")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range w.bodies {
		if b != nil {
			b.Rotate(base, axis, angle)
		}
	}
	return nil
}

// Resize changes the body slot capacity, keeping as many live bodies as
// fit.
func (w *World) Resize(n int) error {
	if n <= 0 {
		return fmt.Errorf("world: capacity must be positive, got %d", n)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	next := make([]*Body, n)
	copy(next, w.bodies)
	w.bodies = next
	return nil
}

// SetBodies replaces the world's slots with bs, resizing to fit. bodies
// with non-positive mass or non-finite state are rejected.
func (w *World) SetBodies(bs []*Body) error {
	for i, b := range bs {
		if b == nil {
			continue
		}
		if b.Mass <= 0 || !finite(b.Pos) || !finite(b.Vel) {
			return fmt.Errorf("world: invalid body at slot %d", i)
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	next := make([]*Body, len(bs))
	copy(next, bs)
	w.bodies = next
	if w.trailLen > 0 {
		for _, b := range w.bodies {
			if b != nil {
				b.EnableTrail(w.trailLen)
			}
		}
	}
	return nil
}

// MoveCamera nudges the camera's easing velocity.
func (w *World) MoveCamera(delta float64) {
	w.mu.Lock()
	w.camVZ += delta
	w.mu.Unlock()
}

// ResetCamera restores the default camera distance.
func (w *World) ResetCamera() {
	w.mu.Lock()
	w.camZ = defaultCameraZ
	w.camVZ = 0
	w.mu.Unlock()
}

// CameraZ is the camera's current distance from the origin.
func (w *World) CameraZ() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.camZ
}

// BodyCount is the number of live bodies.
func (w *World) BodyCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.bodies {
		if b != nil {
			n++
		}
	}
	return n
}

// TotalMass is the summed mass of all live bodies.
func (w *World) TotalMass() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := 0.0
	for _, b := range w.bodies {
		if b != nil {
			m += b.Mass
		}
	}
	return m
}

// KineticEnergy sums ½·m·|v|² over all live bodies.
func (w *World) KineticEnergy() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	e := 0.0
	for _, b := range w.bodies {
		if b != nil {
			e += 0.5 * b.Mass * b.Vel.Dot(b.Vel)
		}
	}
	return e
}

// Frames is the count of ticks that advanced at least one body.
func (w *World) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Fps is the smoothed frame rate maintained by Run.
func (w *World) Fps() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fps
}

// RootWidth is the width of the last tick's root cell.
func (w *World) RootWidth() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree.Width()
}
