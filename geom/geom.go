// Package geom holds the small value types shared by labels and renderers.
package geom

import (
	"fmt"
	"image"
	"math"
)

// Rect is an axis-aligned rectangle in a document's logical pixel space.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// R is shorthand for Rect{x, y, w, h}.
func R(x, y, w, h int) Rect { return Rect{X: x, Y: y, Width: w, Height: h} }

func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Image converts r to an image.Rectangle with the same pixel bounds.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Float converts r to a RectF.
func (r Rect) Float() RectF {
	return RectF{X: float64(r.X), Y: float64(r.Y), Width: float64(r.Width), Height: float64(r.Height)}
}

// Center returns the rectangle's center point in logical units.
func (r Rect) Center() (float64, float64) {
	return float64(r.X) + float64(r.Width)/2, float64(r.Y) + float64(r.Height)/2
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// RectF is a rectangle with fractional coordinates, used once a scale has
// been applied.
type RectF struct {
	X, Y, Width, Height float64
}

// Inset shrinks the rectangle by dx on the left and right and by dy on the top
// and bottom; negative values grow it.
func (r RectF) Inset(dx, dy float64) RectF {
	return RectF{X: r.X + dx, Y: r.Y + dy, Width: r.Width - 2*dx, Height: r.Height - 2*dy}
}

// Snap rounds the edges to the nearest device pixel.
func (r RectF) Snap() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)),
		int(math.Round(r.Y+r.Height)),
	)
}

// Transform scales logical coordinates to device coordinates independently
// on each axis.
type Transform struct {
	SX, SY float64
}

// Identity is the transform used when output size equals document size.
var Identity = Transform{SX: 1, SY: 1}

// Scale returns the transform that maps a from-sized space onto a to-sized one.
func Scale(fromW, fromH, toW, toH int) Transform {
	return Transform{SX: float64(toW) / float64(fromW), SY: float64(toH) / float64(fromH)}
}

// Apply maps a logical rectangle to device space.
func (t Transform) Apply(r Rect) RectF {
	return t.ApplyF(r.Float())
}

// ApplyF maps a fractional logical rectangle to device space.
func (t Transform) ApplyF(r RectF) RectF {
	return RectF{X: r.X * t.SX, Y: r.Y * t.SY, Width: r.Width * t.SX, Height: r.Height * t.SY}
}

// Point maps a logical point to device space.
func (t Transform) Point(x, y float64) (float64, float64) {
	return x * t.SX, y * t.SY
}
