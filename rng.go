package gravity

import (
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

/*

random sampling over a shared source.
the source is not reproducible across runs unless Seed is called.

*/

var src = struct {
	mu sync.Mutex
	r  *rand.Rand
}{r: rand.New(rand.NewSource(time.Now().UnixNano()))}

// Seed reseeds the shared source. tests use this for determinism.
func Seed(seed int64) {
	src.mu.Lock()
	src.r = rand.New(rand.NewSource(seed))
	src.mu.Unlock()
}

// Double samples uniformly in [0, max).
func Double(max float64) float64 {
	src.mu.Lock()
	f := src.r.Float64()
	src.mu.Unlock()
	return f * max
}

// DoubleRange samples uniformly in [lo, hi).
func DoubleRange(lo, hi float64) float64 {
	return lo + Double(hi-lo)
}

// Int samples an integer in [0, max], inclusive.
func Int(max int) int {
	src.mu.Lock()
	n := src.r.Intn(max + 1)
	src.mu.Unlock()
	return n
}

// RandVector samples a vector whose components are independent uniforms
// in [-mag, +mag].
func RandVector(mag float64) mgl64.Vec3 {
	return mgl64.Vec3{
		DoubleRange(-mag, mag),
		DoubleRange(-mag, mag),
		DoubleRange(-mag, mag),
	}
}
