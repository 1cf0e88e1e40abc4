package gravity

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

/*

spacial tree acceleration structure.
point oct-tree based on Barnes-Hut.
https://en.wikipedia.org/wiki/Barnes%E2%80%93Hut_simulation

cells live in a single arena with children addressed by index, so a
tick's tree is one allocation that the next tick reuses.

*/

// tunable defaults. Theta dials accuracy (0 disables the multipole
// approximation entirely), Epsilon softens close encounters, MinWidth
// halts subdivision.
const (
	DefaultTheta    = 0.5
	DefaultEpsilon  = 700
	DefaultMinWidth = 1.0
)

const noCell = int32(-1)

// cell is a cubical axis-aligned region. first is tracked only while
// the cell holds a single body; it is what lets Accelerate skip
// self-interaction geometrically.
type cell struct {
	center mgl64.Vec3
	width  float64
	mass   float64
	com    mgl64.Vec3
	count  int
	first  *Body
	kids   [8]int32
}

func newCell(center mgl64.Vec3, width float64) cell {
	c := cell{center: center, width: width}
	for i := range c.kids {
		c.kids[i] = noCell
	}
	return c
}

// contains reports whether p lies within the closed cube of c.
func (c *cell) contains(p mgl64.Vec3) bool {
	h := c.width / 2
	return math.Abs(p[0]-c.center[0]) <= h &&
		math.Abs(p[1]-c.center[1]) <= h &&
		math.Abs(p[2]-c.center[2]) <= h
}

// Octree is the Barnes-Hut spatial index. a tree is built fresh each
// tick (Reset then Insert every body) and queried with Accelerate. it is
// not safe for concurrent mutation; concurrent Accelerate calls are fine.
type Octree struct {
	Theta    float64
	Epsilon  float64
	MinWidth float64
	G        float64

	cells []cell
}

// NewOctree returns a tree with the default tuning and gravitational
// constant g.
func NewOctree(g float64) *Octree {
	return &Octree{
		Theta:    DefaultTheta,
		Epsilon:  DefaultEpsilon,
		MinWidth: DefaultMinWidth,
		G:        g,
	}
}

// Reset re-roots the tree on a cube at center with the given width,
// keeping the arena's storage for reuse.
func (t *Octree) Reset(center mgl64.Vec3, width float64) {
	t.cells = t.cells[:0]
	t.cells = append(t.cells, newCell(center, width))
}

// Count is the number of bodies inserted since the last Reset.
func (t *Octree) Count() int {
	if len(t.cells) == 0 {
		return 0
	}
	return t.cells[0].count
}

// Mass is the aggregate mass of the tree.
func (t *Octree) Mass() float64 {
	if len(t.cells) == 0 {
		return 0
	}
	return t.cells[0].mass
}

// CenterOfMass is the aggregate center of mass of the tree.
func (t *Octree) CenterOfMass() mgl64.Vec3 {
	if len(t.cells) == 0 {
		return mgl64.Vec3{}
	}
	return t.cells[0].com
}

// Width is the root cell's width.
func (t *Octree) Width() float64 {
	if len(t.cells) == 0 {
		return 0
	}
	return t.cells[0].width
}

// Insert places b in the tree. the caller must have sized the root to
// contain b's position.
func (t *Octree) Insert(b *Body) {
	if len(t.cells) == 0 {
		t.Reset(mgl64.Vec3{}, 0)
	}
	t.insert(0, b)
}

func (t *Octree) insert(ci int32, b *Body) {
	n := &t.cells[ci]

	total := n.mass + b.Mass
	n.com = n.com.Mul(n.mass / total).Add(b.Pos.Mul(b.Mass / total))
	n.mass = total
	n.count++

	if n.count == 1 {
		n.first = b
		return
	}

	// on the 1->2 transition the remembered body descends too.
	var prev *Body
	if n.count == 2 {
		prev = n.first
		n.first = nil
	}

	half := n.width / 2
	if half < t.MinWidth {
		// subdivision floor: bodies contribute to aggregates only.
		return
	}

	center := n.center // n is invalid once the arena grows
	if prev != nil {
		t.descend(ci, center, half, prev)
	}
	t.descend(ci, center, half, b)
}

// descend routes b into the child octant holding its position, creating
// the child lazily. a coordinate exactly on a split plane goes to the
// positive side.
func (t *Octree) descend(parent int32, center mgl64.Vec3, half float64, b *Body) {
	oct := 0
	off := mgl64.Vec3{-half / 2, -half / 2, -half / 2}
	for i := 0; i < 3; i++ {
		if b.Pos[i] >= center[i] {
			oct |= 1 << i
			off[i] = half / 2
		}
	}

	k := t.cells[parent].kids[oct]
	if k == noCell {
		k = int32(len(t.cells))
		t.cells = append(t.cells, newCell(center.Add(off), half))
		t.cells[parent].kids[oct] = k
	}
	t.insert(k, b)
}

// Accelerate walks b through the tree, accumulating gravitational
// acceleration into b.Acc from nearby bodies and distant aggregates.
func (t *Octree) Accelerate(b *Body) {
	if len(t.cells) == 0 || t.cells[0].count == 0 {
		return
	}
	t.accelerate(0, b)
}

func (t *Octree) accelerate(ci int32, b *Body) {
	n := &t.cells[ci]
	d := n.com.Sub(b.Pos)
	d2 := d.Dot(d)

	switch {
	case n.count == 1 && !n.contains(b.Pos):
		// a lone remote body. the containment test is what rules out
		// self-interaction without an identity comparison.
		t.apply(n, b, d, d2)
	case n.width*n.width < t.Theta*t.Theta*d2:
		// cell is far enough away to act as a single point mass.
		t.apply(n, b, d, d2)
	default:
		for _, k := range n.kids {
			if k != noCell {
				t.accelerate(k, b)
			}
		}
	}
}

// apply treats cell n as a point mass at its center of mass.
func (t *Octree) apply(n *cell, b *Body, d mgl64.Vec3, d2 float64) {
	r := math.Sqrt(d2 + t.Epsilon*t.Epsilon)
	if r == 0 {
		return
	}
	k := t.G * n.mass / (r * r * r)
	b.Acc = b.Acc.Add(d.Mul(k))
}
