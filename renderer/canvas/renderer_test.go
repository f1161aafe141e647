package canvasrenderer

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"testing"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/opentype"

	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/geom"
	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/renderer"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(Options{})
	if err != nil {
		t.Fatalf("创建渲染器失败: %v", err)
	}
	return r
}

func sampleDocument(t *testing.T) *label.Document {
	t.Helper()
	var logo bytes.Buffer
	if err := png.Encode(&logo, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	doc := label.New(400, 200, 20)
	doc.Add(
		label.NewAttribute("title", "Shipping label"),
		label.NewAttribute("author", "warehouse"),
		label.NewText(geom.R(0, 0, 400, 50), "HELLO", label.WithAlign(geom.Center)),
		label.NewImage(geom.R(0, 50, 64, 64), logo.Bytes()),
		label.NewRectStroke(geom.R(10, 10, 100, 50), 3),
		label.NewRect(geom.R(0, 0, 400, 200)),
		label.NewTextSlot(geom.R(0, 120, 300, 80), "name", "Jane Doe"),
		label.NewQrCodeSlot(geom.R(300, 100, 100, 100), "url", "https://example.com"),
	)
	return doc
}

func TestRenderPDF(t *testing.T) {
	r := newRenderer(t)
	doc := sampleDocument(t)

	one, err := r.RenderPDF(doc, Page{Preview: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(one, []byte("%PDF-")) {
		t.Fatalf("输出不是 PDF: %q", one[:min(len(one), 16)])
	}

	three, err := r.RenderPDF(doc,
		Page{Slots: map[string]string{"name": "John", "url": "https://a"}},
		Page{Slots: map[string]string{"name": "Mary"}},
		Page{Slots: nil},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(three) <= len(one) {
		t.Fatalf("多页 PDF 应比单页大: %d <= %d", len(three), len(one))
	}
}

func TestRenderPDFErrors(t *testing.T) {
	r := newRenderer(t)
	if _, err := r.RenderPDF(sampleDocument(t)); err == nil {
		t.Fatalf("没有页面时应报错")
	}
	if _, err := r.RenderPDF(nil, Page{Preview: true}); err == nil {
		t.Fatalf("nil 文档应报错")
	}
	flat := label.NewWithSize(100, 100, 0, 0)
	if _, err := r.RenderPDF(flat, Page{Preview: true}); err == nil {
		t.Fatalf("物理尺寸为 0 时应报错")
	}
	bad := label.New(100, 100, 10)
	bad.Add(label.NewText(geom.R(0, 0, 10, 10), "x", label.WithAlign(geom.Alignment(4))))
	if _, err := r.RenderPDF(bad, Page{Preview: true}); err == nil {
		t.Fatalf("无效对齐方式应中止渲染")
	}
}

func TestInfo(t *testing.T) {
	doc := sampleDocument(t)
	title, subject, keywords, author, creator := Info(doc)
	if title != "Shipping label" || subject != "" || keywords != "" || author != "warehouse" || creator != DefaultCreator {
		t.Fatalf("unexpected info %q %q %q %q %q", title, subject, keywords, author, creator)
	}

	bare := label.New(10, 10, 1)
	if title, _, _, _, _ := Info(bare); title != bare.ID.String() {
		t.Fatalf("没有 title 属性时应使用文档 id, got %q", title)
	}
}

func newSurface(t *testing.T) *Surface {
	c := canvas.New(200, 100)
	return newRenderer(t).NewSurface(canvas.NewContext(c), 400, 200, 200, 100)
}

// TestMeasureTextEqualWidth 验证单行测量的可加性：相同字符重复两次宽度翻倍。
func TestMeasureTextEqualWidth(t *testing.T) {
	s := newSurface(t)
	one, err := s.MeasureText("W", 40)
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	two, err := s.MeasureText("WW", 40)
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	if one.Width <= 0 || math.Abs(two.Width-2*one.Width) > 1e-6*two.Width+1e-9 {
		t.Fatalf("宽度不成比例: W=%g WW=%g", one.Width, two.Width)
	}
	if one.Ascent <= 0 || one.Descent <= 0 {
		t.Fatalf("字体度量无效: %+v", one)
	}
	zero, _ := s.MeasureText("W", 0)
	if zero.Width != 0 {
		t.Fatalf("字号为 0 时宽度应为 0")
	}
}

// TestMeasureMatchesRaster 矢量与光栅 Surface 的测量均以逻辑像素为单位，结果应一致。
func TestMeasureMatchesRaster(t *testing.T) {
	f, err := opentype.Parse(fonts.Default())
	if err != nil {
		t.Fatal(err)
	}
	raster := renderer.NewRaster(400, 200, f)
	want, err := raster.MeasureText("HELLO labels", 40)
	if err != nil {
		t.Fatal(err)
	}
	got, err := newSurface(t).MeasureText("HELLO labels", 40)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got.Width-want.Width) > want.Width*0.05 {
		t.Fatalf("矢量测量 %g 与光栅测量 %g 相差过大", got.Width, want.Width)
	}
}

func TestSurfaceTransform(t *testing.T) {
	s := newSurface(t)
	s.SetTransform(geom.Scale(200, 100, 400, 200))
	if s.logicW != 200 || s.logicH != 100 {
		t.Fatalf("逻辑尺寸错误: %gx%g", s.logicW, s.logicH)
	}
}
