package label

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
)

// Validate reports problems that constructors and Decode accept silently:
// non-positive or non-finite document dimensions, empty or duplicated
// entries, negative rectangle sizes or stroke widths and image payloads that
// do not decode.
// Rendering does not call it. Image formats must be registered by the caller
// (the renderer package registers the common ones).
func (d *Document) Validate() error {
	var errs []error
	if d.WidthPx <= 0 || d.HeightPx <= 0 {
		errs = append(errs, fmt.Errorf("pixel size %dx%d must be positive", d.WidthPx, d.HeightPx))
	}
	if !positiveFinite(d.WidthCm) || !positiveFinite(d.HeightCm) {
		errs = append(errs, fmt.Errorf("physical size %gx%g cm must be positive and finite", d.WidthCm, d.HeightCm))
	}

	seen := map[FieldKind]map[string]bool{}
	for i, f := range d.fields {
		if r := f.Bounds(); r.Width < 0 || r.Height < 0 {
			errs = append(errs, fmt.Errorf("field %d (%s): negative size %s", i, f.Kind(), r))
		}
		switch v := f.(type) {
		case Attribute, TextSlot, QRSlot:
			entry := f.Entry()
			if entry == "" {
				errs = append(errs, fmt.Errorf("field %d (%s): empty entry", i, f.Kind()))
				continue
			}
			if seen[f.Kind()] == nil {
				seen[f.Kind()] = map[string]bool{}
			}
			if seen[f.Kind()][entry] {
				errs = append(errs, fmt.Errorf("field %d (%s): duplicate entry %q", i, f.Kind(), entry))
			}
			seen[f.Kind()][entry] = true
		case Box:
			if v.StrokeWidth < 0 {
				errs = append(errs, fmt.Errorf("field %d (Rect): negative stroke width %d", i, v.StrokeWidth))
			}
		case Image:
			if _, _, err := image.DecodeConfig(bytes.NewReader(v.Data)); err != nil {
				errs = append(errs, fmt.Errorf("field %d (Image): %w", i, err))
			}
		}
	}
	return errors.Join(errs...)
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
