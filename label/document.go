// Package label defines the label document model: a fixed-size canvas and an
// ordered list of typed fields, together with its JSON encoding.
package label

import (
	"github.com/google/uuid"
)

// Document is a label template. Its fields slice is owned exclusively by the
// document and is not synchronized; renders may run concurrently as long as
// no Add happens at the same time.
type Document struct {
	ID       uuid.UUID
	WidthPx  int
	HeightPx int
	WidthCm  float64
	HeightCm float64

	fields []Field
}

// New creates a document whose physical size is derived from a resolution in
// pixels per centimeter.
func New(widthPx, heightPx int, pxPerCm float64) *Document {
	return NewWithSize(widthPx, heightPx, float64(widthPx)/pxPerCm, float64(heightPx)/pxPerCm)
}

// NewWithSize creates a document with an explicit physical size.
func NewWithSize(widthPx, heightPx int, widthCm, heightCm float64) *Document {
	return &Document{
		ID:       uuid.New(),
		WidthPx:  widthPx,
		HeightPx: heightPx,
		WidthCm:  widthCm,
		HeightCm: heightCm,
	}
}

// Add appends fields in order. Nothing is deduplicated or reordered; nil
// fields are dropped.
func (d *Document) Add(fields ...Field) {
	for _, f := range fields {
		if f != nil {
			d.fields = append(d.fields, f)
		}
	}
}

// Fields returns a copy of the field list in insertion order.
func (d *Document) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// Len reports the number of fields.
func (d *Document) Len() int { return len(d.fields) }

// Each calls fn with the document index of every field of kind k, in
// insertion order, and stops at the first error.
func (d *Document) Each(k FieldKind, fn func(i int, f Field) error) error {
	for i, f := range d.fields {
		if f.Kind() != k {
			continue
		}
		if err := fn(i, f); err != nil {
			return err
		}
	}
	return nil
}

// PixelsPerCm returns the horizontal and vertical logical resolution.
func (d *Document) PixelsPerCm() (float64, float64) {
	return float64(d.WidthPx) / d.WidthCm, float64(d.HeightPx) / d.HeightCm
}
