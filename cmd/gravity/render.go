package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/quillaja/gravity"
)

/*

png output. this is the "external collaborator" side of the renderer
boundary: a perspective projector plus a filled-circle rasterizer, fed
by World.Draw.

*/

// pngRenderer implements gravity.Renderer onto png files, one per frame.
type pngRenderer struct {
	dir           string
	width, height int
	camZ          float64
	vp            mgl64.Mat4
	img           *image.RGBA
	frame         int
}

func newPNGRenderer(dir string, width, height int, camZ float64) (*pngRenderer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("render: create %s: %w", dir, err)
	}

	campos := mgl64.Vec3{1, 1, 5}.Normalize().Mul(camZ)
	view := mgl64.LookAtV(campos, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})
	proj := mgl64.Perspective(mgl64.DegToRad(60), float64(width)/float64(height), 0.1, 100)

	return &pngRenderer{
		dir:    dir,
		width:  width,
		height: height,
		camZ:   camZ,
		vp:     proj.Mul4(view),
	}, nil
}

// begin starts a frame on a black film with origin axes for scale.
func (r *pngRenderer) begin(frame int) {
	r.frame = frame
	r.img = image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	axis := r.camZ / 10
	r.line(red, mgl64.Vec3{}, mgl64.Vec3{axis, 0, 0})
	r.line(green, mgl64.Vec3{}, mgl64.Vec3{0, axis, 0})
	r.line(blue, mgl64.Vec3{}, mgl64.Vec3{0, 0, axis})
}

// Project maps a world position to screen coordinates.
func (r *pngRenderer) Project(world mgl64.Vec3) (float64, float64, bool) {
	t := r.vp.Mul4x1(world.Vec4(1))
	if t[3] <= 0 {
		return 0, 0, false
	}
	t = t.Mul(1 / t[3]) // NDC space
	x, y := mgl64.GLToScreenCoords(t.X(), t.Y(), r.width, r.height)
	return float64(x), float64(y), true
}

// FillCircle rasterizes a body as a filled circle, shading by world
// radius so heavy bodies stand out.
func (r *pngRenderer) FillCircle(x, y, radius float64) {
	px := int(radius / r.camZ * float64(r.height))
	if px < 1 {
		px = 1
	}
	if px > 50 {
		px = 50
	}
	fillCircle(r.img, shade(radius), int(x), int(y), px)
}

// renderFrame draws one snapshot: motion trails first, then every body
// as a projected filled circle.
func (r *pngRenderer) renderFrame(frame int, bodies []gravity.Snapshot) error {
	r.begin(frame)
	for _, s := range bodies {
		if len(s.Trail) < 2 {
			continue
		}
		for i := 1; i < len(s.Trail); i++ {
			r.line(trailGray, s.Trail[i-1], s.Trail[i])
		}
	}
	for _, s := range bodies {
		if x, y, ok := r.Project(s.Pos); ok {
			r.FillCircle(x, y, s.Radius)
		}
	}
	return r.finish()
}

// finish writes the frame to disk.
func (r *pngRenderer) finish() error {
	file, err := os.Create(filepath.Join(r.dir, fmt.Sprintf("%010d.png", r.frame)))
	if err != nil {
		return fmt.Errorf("render: frame %d: %w", r.frame, err)
	}
	defer file.Close()
	return png.Encode(file, r.img)
}

func (r *pngRenderer) line(c color.Color, p1, p2 mgl64.Vec3) {
	x1, y1, ok1 := r.Project(p1)
	x2, y2, ok2 := r.Project(p2)
	if !ok1 || !ok2 {
		return
	}
	plotline(r.img, c, int(x1), int(y1), int(x2), int(y2))
}

var (
	red       = color.RGBA{255, 0, 0, 255}
	green     = color.RGBA{0, 255, 0, 255}
	blue      = color.RGBA{0, 0, 255, 255}
	yellow    = color.RGBA{255, 255, 0, 255}
	cyan      = color.RGBA{0, 255, 255, 255}
	trailGray = color.RGBA{64, 64, 64, 255}
)

// shade picks a color band by display radius (a proxy for mass).
func shade(radius float64) color.Color {
	switch {
	case radius > 10000:
		return red
	case radius > 5000:
		return yellow
	case radius > 1000:
		return cyan
	default:
		return color.White
	}
}

// plotline draws a simple line on img from (x0,y0) to (x1,y1).
//
// This is basically a copy of a version of Bresenham's line algorithm
// from https://en.wikipedia.org/wiki/Bresenham%27s_line_algorithm.
func plotline(img draw.Image, c color.Color, x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// abs cuz no integer abs function in the Go standard library.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// fillCircle draws a filled circle at (x0,y0) of radius r.
//
// This seems to perform just slightly faster than other versions I've
// tried.
func fillCircle(img draw.Image, c color.Color, x0, y0, r int) {
	rsqr := float64(r * r)
	for y := r; y >= 0; y-- {
		xright := int(math.Sqrt(rsqr - float64(y*y)))
		for x := -xright; x <= xright; x++ {
			img.Set(x0+x, y0+y, c)
			img.Set(x0+x, y0-y, c)
		}
	}
}

var _ gravity.Renderer = (*pngRenderer)(nil)
