package gravity

import "github.com/go-gl/mathgl/mgl64"

/*

renderer boundary. the draw side never touches live bodies: it gets a
copied snapshot taken under the body lock, or a Draw pass that hands
out positions and radii through an opaque Renderer.

*/

// Snapshot is a renderer-facing copy of one body.
type Snapshot struct {
	ID     int
	Pos    mgl64.Vec3
	Mass   float64
	Radius float64
	Trail  []mgl64.Vec3
}

// Snapshot copies every live body under the body lock. ID is the
// body's slot index, stable across ticks until a generate or resize.
func (w *World) Snapshot() []Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Snapshot, 0, len(w.bodies))
	for i, b := range w.bodies {
		if b == nil {
			continue
		}
		s := Snapshot{
			ID:     i,
			Pos:    b.Pos,
			Mass:   b.Mass,
			Radius: b.Radius(),
		}
		if cap(b.trail) > 0 {
			s.Trail = b.Trail()
		}
		out = append(out, s)
	}
	return out
}

// Renderer is the opaque drawing service the core hands positions to.
// projection state (camera, viewport) lives entirely on the renderer.
type Renderer interface {
	// Project maps a world position to screen coordinates. ok is false
	// when the point is not visible.
	Project(world mgl64.Vec3) (x, y float64, ok bool)
	// FillCircle rasterizes a filled circle of world radius r at a
	// projected position.
	FillCircle(x, y, r float64)
}

// Draw hands every live body to r as a projected filled circle.
func (w *World) Draw(r Renderer) {
	for _, s := range w.Snapshot() {
		if x, y, ok := r.Project(s.Pos); ok {
			r.FillCircle(x, y, s.Radius)
		}
	}
}
