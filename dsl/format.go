package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/labelkit/geom"
	"github.com/ByLCY/labelkit/label"
)

// Format writes doc in DSL form. Images are always embedded as data so the
// output does not depend on the source image files; ParseString(Format(doc))
// reproduces doc.
func Format(doc *label.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "label %s {\n", strconv.Quote(doc.ID.String()))
	fmt.Fprintf(&b, "  pixels %d %d\n", doc.WidthPx, doc.HeightPx)
	fmt.Fprintf(&b, "  centimeters %s %s\n", number(doc.WidthCm), number(doc.HeightCm))
	for _, f := range doc.Fields() {
		b.WriteString("  ")
		switch v := f.(type) {
		case label.Attribute:
			fmt.Fprintf(&b, "attribute %s = %s", strconv.Quote(v.Key), strconv.Quote(v.Value))
		case label.Text:
			fmt.Fprintf(&b, "text %s%s %s", at(v.Rect), style(v.FontSize, v.Align), strconv.Quote(v.Value))
		case label.Image:
			fmt.Fprintf(&b, "image %s data %s", at(v.Rect), strconv.Quote(label.EncodeImagePayload(v.Data)))
		case label.Box:
			fmt.Fprintf(&b, "rect %s stroke %d", at(v.Rect), v.StrokeWidth)
		case label.TextSlot:
			fmt.Fprintf(&b, "textslot %s %s%s %s", strconv.Quote(v.Key), at(v.Rect), style(v.FontSize, v.Align), strconv.Quote(v.Preview))
		case label.QRSlot:
			fmt.Fprintf(&b, "qrslot %s %s %s", strconv.Quote(v.Key), at(v.Rect), strconv.Quote(v.Preview))
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	return b.String()
}

func at(r geom.Rect) string {
	return fmt.Sprintf("at %d %d %d %d", r.X, r.Y, r.Width, r.Height)
}

func style(size uint, align geom.Alignment) string {
	var s string
	if size != 0 {
		s += fmt.Sprintf(" size %d", size)
	}
	if align != geom.Left {
		s += " align " + align.String()
	}
	return s
}

func number(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
