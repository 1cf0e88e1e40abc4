package gravity

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewWorldValidation(t *testing.T) {
	if _, err := NewWorld(0); err == nil {
		t.Error("capacity 0 accepted")
	}
	if _, err := NewWorld(-5); err == nil {
		t.Error("negative capacity accepted")
	}
	w, err := NewWorld(10)
	if err != nil {
		t.Fatal(err)
	}
	if w.G != DefaultG || w.C != DefaultC {
		t.Errorf("defaults G=%g C=%g, want %g %g", w.G, w.C, float64(DefaultG), DefaultC)
	}
}

// an empty active world ticks without advancing the frame counter.
func TestEmptyWorldTick(t *testing.T) {
	w, _ := NewWorld(10)
	w.SetActive(true)

	w.Tick()

	if n := w.BodyCount(); n != 0 {
		t.Errorf("BodyCount = %d, want 0", n)
	}
	if f := w.Frames(); f != 0 {
		t.Errorf("Frames = %d, want 0", f)
	}
}

// a lone body at rest stays at rest.
func TestSingleBodyAtRest(t *testing.T) {
	w, _ := NewWorld(1)
	if err := w.SetBodies([]*Body{NewBody(mgl64.Vec3{}, 1)}); err != nil {
		t.Fatal(err)
	}
	w.SetActive(true)

	w.Tick()
	w.Tick()

	snap := w.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot has %d bodies", len(snap))
	}
	vecClose(t, snap[0].Pos, mgl64.Vec3{}, 0)
	if f := w.Frames(); f != 2 {
		t.Errorf("Frames = %d, want 2", f)
	}
}

// two equal masses mirrored through the origin accelerate toward each
// other symmetrically.
func TestTwoBodySymmetry(t *testing.T) {
	a := NewBody(mgl64.Vec3{100, 0, 0}, 1e6)
	b := NewBody(mgl64.Vec3{-100, 0, 0}, 1e6)

	w, _ := NewWorld(2)
	if err := w.SetBodies([]*Body{a, b}); err != nil {
		t.Fatal(err)
	}
	w.C = math.Inf(1)
	w.SetAccuracy(0, 0)
	w.SetDirect(true)
	w.SetActive(true)

	// first tick computes accelerations; second folds them into motion.
	w.Tick()
	vecClose(t, a.Acc, b.Acc.Mul(-1), 1e-9)
	if a.Acc[0] >= 0 {
		t.Errorf("body at +x accelerating away: %v", a.Acc)
	}

	w.Tick()
	vecClose(t, a.Vel, b.Vel.Mul(-1), 1e-9)
	vecClose(t, a.Pos, b.Pos.Mul(-1), 1e-9)
	if a.Vel[1] != 0 || a.Vel[2] != 0 {
		t.Errorf("motion left the x axis: %v", a.Vel)
	}
}

// tree and direct paths agree on the same configuration.
func TestWorldTreeMatchesDirect(t *testing.T) {
	Seed(21)
	bodies := randomBodies(64, 2e5)

	run := func(direct bool) []mgl64.Vec3 {
		w, _ := NewWorld(len(bodies))
		cp := make([]*Body, len(bodies))
		for i, b := range bodies {
			c := *b
			cp[i] = &c
		}
		if err := w.SetBodies(cp); err != nil {
			t.Fatal(err)
		}
		w.SetAccuracy(0, 0)
		w.SetDirect(direct)
		w.SetActive(true)
		w.Tick()
		acc := make([]mgl64.Vec3, len(cp))
		for i, b := range cp {
			acc[i] = b.Acc
		}
		return acc
	}

	tree := run(false)
	direct := run(true)
	for i := range tree {
		if diff := tree[i].Sub(direct[i]).Len(); diff > 1e-9*direct[i].Len() {
			t.Fatalf("body %d: tree %v direct %v", i, tree[i], direct[i])
		}
	}
}

// after a tick the root cube strictly contains every body.
func TestRootContainment(t *testing.T) {
	Seed(22)
	w, _ := NewWorld(300)
	if err := w.Generate(SlowParticles); err != nil {
		t.Fatal(err)
	}
	w.SetActive(true)

	w.Tick()

	half := w.RootWidth() / 2
	for _, s := range w.Snapshot() {
		for k := 0; k < 3; k++ {
			if math.Abs(s.Pos[k]) >= half {
				t.Fatalf("body %d coordinate %g outside root half-width %g", s.ID, s.Pos[k], half)
			}
		}
	}
}

// pausing freezes the body vector.
func TestPauseLeavesBodiesUntouched(t *testing.T) {
	a := NewBody(mgl64.Vec3{100, 0, 0}, 1e6)
	a.Vel = mgl64.Vec3{1, 0, 0}
	w, _ := NewWorld(1)
	if err := w.SetBodies([]*Body{a}); err != nil {
		t.Fatal(err)
	}

	w.Tick() // inactive
	vecClose(t, a.Pos, mgl64.Vec3{100, 0, 0}, 0)
	if w.Frames() != 0 {
		t.Errorf("inactive tick advanced Frames to %d", w.Frames())
	}

	if !w.ToggleActive() {
		t.Fatal("ToggleActive did not activate")
	}
	w.Tick()
	vecClose(t, a.Pos, mgl64.Vec3{101, 0, 0}, 1e-12)
}

// rotating the whole system rotates the field with it.
func TestRotationEquivariance(t *testing.T) {
	Seed(23)
	const angle = 0.7
	axis := mgl64.Vec3{0, 1, 0}
	bodies := randomBodies(64, 2e5)

	tree := buildTree(bodies, 1)
	tree.Theta = 0
	tree.Epsilon = 0
	before := make([]mgl64.Vec3, len(bodies))
	for i, b := range bodies {
		tree.Accelerate(b)
		before[i] = b.Acc
		b.Acc = mgl64.Vec3{}
	}

	for _, b := range bodies {
		b.Rotate(mgl64.Vec3{}, axis, angle)
	}

	tree = buildTree(bodies, 1)
	tree.Theta = 0
	tree.Epsilon = 0
	scale := 0.0
	for _, a := range before {
		if l := a.Len(); l > scale {
			scale = l
		}
	}
	for i, b := range bodies {
		tree.Accelerate(b)
		want := rotateAbout(before[i], mgl64.Vec3{}, axis, angle)
		if diff := b.Acc.Sub(want).Len(); diff > 1e-6*scale {
			t.Fatalf("body %d: rotated field %v, want %v", i, b.Acc, want)
		}
		b.Acc = mgl64.Vec3{}
	}
}

func TestRotateRejectsNonFinite(t *testing.T) {
	w, _ := NewWorld(4)
	if err := w.Rotate(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, math.NaN()); err == nil {
		t.Error("NaN angle accepted")
	}
	if err := w.Rotate(mgl64.Vec3{math.Inf(1), 0, 0}, mgl64.Vec3{0, 1, 0}, 1); err == nil {
		t.Error("infinite base accepted")
	}
}

// a body gone non-finite is quiesced, not propagated.
func TestNonFiniteBodyQuarantine(t *testing.T) {
	bad := NewBody(mgl64.Vec3{1, 1, 1}, 1)
	good := NewBody(mgl64.Vec3{100, 0, 0}, 1e6)
	w, _ := NewWorld(2)
	if err := w.SetBodies([]*Body{bad, good}); err != nil {
		t.Fatal(err)
	}
	bad.Pos = mgl64.Vec3{math.NaN(), 0, 0} // corrupt after validation
	w.SetActive(true)

	w.Tick()

	if bad.Acc != (mgl64.Vec3{}) {
		t.Errorf("corrupt body accumulated acceleration %v", bad.Acc)
	}
	if !finite(good.Acc) {
		t.Errorf("healthy body caught non-finite acceleration %v", good.Acc)
	}
}

func TestResize(t *testing.T) {
	w, _ := NewWorld(4)
	if err := w.Generate(SlowParticles); err != nil {
		t.Fatal(err)
	}
	if err := w.Resize(0); err == nil {
		t.Error("Resize(0) accepted")
	}
	if err := w.Resize(2); err != nil {
		t.Fatal(err)
	}
	if n := w.BodyCount(); n != 2 {
		t.Errorf("BodyCount after shrink = %d, want 2", n)
	}
	if err := w.Resize(8); err != nil {
		t.Fatal(err)
	}
	if n := w.BodyCount(); n != 2 {
		t.Errorf("BodyCount after grow = %d, want 2", n)
	}
}

func TestSetBodiesValidation(t *testing.T) {
	w, _ := NewWorld(2)
	if err := w.SetBodies([]*Body{NewBody(mgl64.Vec3{}, -1)}); err == nil {
		t.Error("negative mass accepted")
	}
	if err := w.SetBodies([]*Body{NewBody(mgl64.Vec3{math.NaN(), 0, 0}, 1)}); err == nil {
		t.Error("non-finite position accepted")
	}
	if err := w.SetBodies([]*Body{nil, NewBody(mgl64.Vec3{}, 1)}); err != nil {
		t.Errorf("nil slot rejected: %v", err)
	}
}

func TestCamera(t *testing.T) {
	w, _ := NewWorld(1)
	z0 := w.CameraZ()

	w.MoveCamera(0.1)
	w.Tick()
	if z := w.CameraZ(); z <= z0 {
		t.Errorf("camera did not ease outward: %g -> %g", z0, z)
	}

	// easing decays: repeated ticks converge rather than run away.
	for i := 0; i < 200; i++ {
		w.Tick()
	}
	if z := w.CameraZ(); math.IsInf(z, 0) || math.IsNaN(z) {
		t.Fatalf("camera diverged to %g", z)
	}

	w.ResetCamera()
	if z := w.CameraZ(); z != z0 {
		t.Errorf("ResetCamera gave %g, want %g", z, z0)
	}

	// the camera never crosses the near floor
	w.MoveCamera(-2)
	for i := 0; i < 50; i++ {
		w.Tick()
	}
	if z := w.CameraZ(); z < 1 {
		t.Errorf("camera z %g below floor", z)
	}
}

// integrating with a tighter opening angle tracks the direct sum's
// kinetic energy more closely.
func TestEnergyErrorShrinksWithTheta(t *testing.T) {
	Seed(25)
	bodies := randomBodies(64, 2e5)

	run := func(direct bool, theta float64) float64 {
		w, _ := NewWorld(len(bodies))
		cp := make([]*Body, len(bodies))
		for i, b := range bodies {
			c := *b
			cp[i] = &c
		}
		if err := w.SetBodies(cp); err != nil {
			t.Fatal(err)
		}
		w.SetAccuracy(theta, DefaultEpsilon)
		w.SetDirect(direct)
		w.SetActive(true)
		for i := 0; i < 10; i++ {
			w.Tick()
		}
		return w.KineticEnergy()
	}

	want := run(true, 0)
	if want <= 0 {
		t.Fatalf("direct run gained no kinetic energy: %g", want)
	}
	errLoose := math.Abs(run(false, 1.0)-want) / want
	errTight := math.Abs(run(false, 0.05)-want) / want

	if errTight > errLoose {
		t.Errorf("θ=0.05 energy error %g above θ=1.0 error %g", errTight, errLoose)
	}
	if errTight > 1e-3 {
		t.Errorf("θ=0.05 relative energy error %g too large", errTight)
	}
}

// Run paces ticks and maintains the FPS readout until stopped.
func TestRunLoop(t *testing.T) {
	w, _ := NewWorld(4)
	if err := w.SetBodies([]*Body{NewBody(mgl64.Vec3{1, 0, 0}, 1)}); err != nil {
		t.Fatal(err)
	}
	w.SetActive(true)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		w.Run(stop)
		close(done)
	}()
	time.Sleep(200 * time.Millisecond)
	close(stop)
	<-done

	if f := w.Frames(); f == 0 {
		t.Error("Run advanced no frames")
	}
	fps := w.Fps()
	if fps <= 0 || fps > FpsMax {
		t.Errorf("Fps = %g out of range", fps)
	}
}

func TestObservers(t *testing.T) {
	w, _ := NewWorld(100)
	Seed(24)
	if err := w.Generate(SlowParticles); err != nil {
		t.Fatal(err)
	}
	if n := w.BodyCount(); n != 100 {
		t.Errorf("BodyCount = %d, want 100", n)
	}
	if m := w.TotalMass(); m < 100*3e4 {
		t.Errorf("TotalMass = %g implausibly small", m)
	}
	if f := w.Fps(); f != 0 {
		t.Errorf("Fps before Run = %g, want 0", f)
	}
}
