package dsl_test

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ByLCY/labelkit/dsl"
	"github.com/ByLCY/labelkit/geom"
	"github.com/ByLCY/labelkit/label"
)

const sampleDSL = `
// shipping label, 400x200 at 20 px/cm
label "5f1c2f1e-8d0b-4c55-9a59-0f6f7b1f2a10" {
  pixels 400 200
  centimeters 20 10

  attribute "title" = "Shipping"
  text at 0 0 400 50 size 40 align Center "HELLO"
  rect at 10 10 100 50 stroke 3
  rect at 0 0 400 200          # default stroke
  textslot "name" at 0 100 300 100 align right size 20 "Jane \"JD\" Doe"
  qrslot "url" at 300 100 100 100 "https://example.com"
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.ID.String() != "5f1c2f1e-8d0b-4c55-9a59-0f6f7b1f2a10" {
		t.Fatalf("unexpected id %s", doc.ID)
	}
	if doc.WidthPx != 400 || doc.HeightPx != 200 || doc.WidthCm != 20 || doc.HeightCm != 10 {
		t.Fatalf("unexpected size %+v", doc)
	}
	want := []label.Field{
		label.NewAttribute("title", "Shipping"),
		label.NewText(geom.R(0, 0, 400, 50), "HELLO", label.WithFontSize(40), label.WithAlign(geom.Center)),
		label.NewRectStroke(geom.R(10, 10, 100, 50), 3),
		label.NewRect(geom.R(0, 0, 400, 200)),
		label.NewTextSlot(geom.R(0, 100, 300, 100), "name", `Jane "JD" Doe`, label.WithFontSize(20), label.WithAlign(geom.Right)),
		label.NewQrCodeSlot(geom.R(300, 100, 100, 100), "url", "https://example.com"),
	}
	if got := doc.Fields(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected fields:\n got=%+v\nwant=%+v", got, want)
	}
}

func TestParseResolution(t *testing.T) {
	doc, err := dsl.ParseString(`label { pixels 400 200; resolution 40 }`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.WidthCm != 10 || doc.HeightCm != 5 {
		t.Fatalf("unexpected physical size %gx%g", doc.WidthCm, doc.HeightCm)
	}
	if doc.Len() != 0 {
		t.Fatalf("expected no fields")
	}
}

func TestParsePhysicalUnits(t *testing.T) {
	cases := []struct {
		src  string
		w, h float64
	}{
		{`label { pixels 496 232; physical 62mm 29mm }`, 6.2, 2.9},
		{`label { pixels 400 600; physical 4in 6 in }`, 10.16, 15.24},
		{`label { pixels 100 50; physical 2 1 }`, 2, 1},
		{`label { pixels 100 50; physical 72pt 2.5cm }`, 2.54, 2.5},
	}
	for _, c := range cases {
		doc, err := dsl.ParseString(c.src)
		if err != nil {
			t.Fatalf("%s: %v", c.src, err)
		}
		if math.Abs(doc.WidthCm-c.w) > 1e-3 || math.Abs(doc.HeightCm-c.h) > 1e-3 {
			t.Fatalf("%s: got %gx%g cm, want %gx%g", c.src, doc.WidthCm, doc.HeightCm, c.w, c.h)
		}
	}
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImageSources(t *testing.T) {
	dir := t.TempDir()
	data := samplePNG(t)
	if err := os.WriteFile(filepath.Join(dir, "logo.png"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	src := `label {
  pixels 100 100
  resolution 10
  image at 0 0 64 64 file "logo.png"
  image at 0 0 64 64 data "` + label.EncodeImagePayload(data) + `"
}`
	path := filepath.Join(dir, "logo.label")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := dsl.ParseFile(path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	for i, f := range doc.Fields() {
		img, ok := f.(label.Image)
		if !ok || !bytes.Equal(img.Data, data) {
			t.Fatalf("field %d: unexpected image %+v", i, f)
		}
	}

	_, err = dsl.Parse(strings.NewReader(src), dsl.Options{BaseDir: t.TempDir()})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist for missing image, got %v", err)
	}
}

// TestFormatRoundTrip 验证 ParseString(Format(doc)) 还原出相同的文档。
func TestFormatRoundTrip(t *testing.T) {
	doc := label.New(400, 200, 30)
	doc.Add(
		label.NewAttribute("sku", "A-1\nB"),
		label.NewText(geom.R(-5, 0, 400, 50), "Grüße", label.WithAlign(geom.Right)),
		label.NewImage(geom.R(0, 50, 64, 64), samplePNG(t)),
		label.NewRectStroke(geom.R(10, 10, 100, 50), 0),
		label.NewTextSlot(geom.R(0, 100, 300, 100), "name", "Jane", label.WithFontSize(12)),
		label.NewQrCodeSlot(geom.R(300, 100, 100, 100), "url", ""),
	)
	text := dsl.Format(doc)
	back, err := dsl.ParseString(text)
	if err != nil {
		t.Fatalf("formatted output does not parse: %v\n%s", err, text)
	}
	if !reflect.DeepEqual(back, doc) {
		t.Fatalf("round trip mismatch:\n%s\n got=%+v\nwant=%+v", text, back, doc)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"missing pixels":      `label { centimeters 1 1 }`,
		"missing physical":    `label { pixels 1 1 }`,
		"duplicate pixels":    `label { pixels 1 1; pixels 2 2; resolution 1 }`,
		"both physical":       `label { pixels 1 1; resolution 1; centimeters 1 1 }`,
		"physical and cm":     `label { pixels 1 1; physical 1mm 1mm; centimeters 1 1 }`,
		"zero physical":       `label { pixels 1 1; physical 0mm 1mm }`,
		"negative physical":   `label { pixels 1 1; physical 1in -1in }`,
		"unknown unit":        `label { pixels 1 1; physical 1ft 1ft }`,
		"zero resolution":     `label { pixels 1 1; resolution 0 }`,
		"bad id":              `label "nope" { pixels 1 1; resolution 1 }`,
		"bad alignment":       `label { pixels 1 1; resolution 1; text at 0 0 1 1 align Middle "x" }`,
		"fractional pixels":   `label { pixels 1.5 1; resolution 1 }`,
		"negative font size":  `label { pixels 1 1; resolution 1; text at 0 0 1 1 size -2 "x" }`,
		"missing value":       `label { pixels 1 1; resolution 1; text at 0 0 1 1 }`,
		"short box":           `label { pixels 1 1; resolution 1; rect at 0 0 1 }`,
		"bad image data":      `label { pixels 1 1; resolution 1; image at 0 0 1 1 data "***" }`,
		"unknown statement":   `label { pixels 1 1; resolution 1; circle at 0 0 1 1 }`,
		"missing close brace": `label { pixels 1 1; resolution 1`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := dsl.ParseString(src); err == nil {
				t.Fatalf("expected error for %q", src)
			}
		})
	}
}

func TestStatementKind(t *testing.T) {
	ast, err := dsl.ParseAST("inline", strings.NewReader(sampleDSL))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	var kinds []string
	for _, st := range ast.Statements {
		kinds = append(kinds, st.Kind())
	}
	want := "pixels centimeters attribute text rect rect textslot qrslot"
	if got := strings.Join(kinds, " "); got != want {
		t.Fatalf("unexpected statements %q", got)
	}
}
