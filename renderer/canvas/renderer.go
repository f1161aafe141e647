package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	xdraw "golang.org/x/image/draw"

	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/geom"
	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/renderer"
)

// hairline 是宽度为 0 的描边在页面上的宽度（mm）。
const hairline = 0.1

// DefaultCreator 是 PDF 信息字典中 Creator 的缺省值。
const DefaultCreator = "labelkit"

// Renderer 通过 github.com/tdewolff/canvas 将标签输出为 PDF，页面尺寸取标签的物理尺寸。
type Renderer struct {
	engine *renderer.Engine

	fontMu sync.Mutex
	family *canvas.FontFamily
	faces  map[faceKey]*canvas.FontFace
}

type faceKey struct {
	size  float64
	color layout.Color
}

// Options configures the canvas renderer.
type Options struct {
	Font   []byte           // nil 使用 fonts.Default()
	Engine renderer.Options // 布局使用的样式与二维码编码器；字体总是与 Font 一致
}

// Page 描述 PDF 中的一页。Preview 为 true 时忽略 Slots 按预览渲染。
type Page struct {
	Preview bool
	Slots   map[string]string
}

// NewRenderer creates a canvas-based PDF renderer.
func NewRenderer(opts Options) (*Renderer, error) {
	data := opts.Font
	if data == nil {
		data = fonts.Default()
	}
	engineOpts := opts.Engine
	engineOpts.Font = data
	engine, err := renderer.NewEngine(engineOpts)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("labelkit")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载字体失败: %w", err)
	}
	return &Renderer{engine: engine, family: family, faces: map[faceKey]*canvas.FontFace{}}, nil
}

// RenderPDF 渲染为 PDF 字节切片，每个 Page 一页。
func (r *Renderer) RenderPDF(doc *label.Document, pages ...Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WritePDF(&buf, doc, pages...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePDF 将每个 Page 渲染为一页写入 w。PDF 信息取自文档属性
// title、subject、keywords、author 与 creator。
func (r *Renderer) WritePDF(w io.Writer, doc *label.Document, pages ...Page) error {
	if doc == nil {
		return fmt.Errorf("文档为空")
	}
	if len(pages) == 0 {
		return fmt.Errorf("缺少可渲染的页面")
	}
	if doc.WidthCm <= 0 || doc.HeightCm <= 0 {
		return fmt.Errorf("标签物理尺寸无效: %gx%gcm", doc.WidthCm, doc.HeightCm)
	}
	pageW, pageH := doc.WidthCm*10, doc.HeightCm*10

	writer := pdf.New(w, pageW, pageH, nil)
	applyMeta(writer, doc)
	for i, page := range pages {
		if i > 0 {
			writer.NewPage(pageW, pageH)
		}
		c := canvas.New(pageW, pageH)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与标签保持左上角为原点

		s := r.NewSurface(ctx, doc.WidthPx, doc.HeightPx, pageW, pageH)
		var err error
		if page.Preview {
			err = r.engine.RenderPreviewOn(s, doc, doc.WidthPx, doc.HeightPx)
		} else {
			err = r.engine.RenderOn(s, doc, doc.WidthPx, doc.HeightPx, page.Slots)
		}
		if err != nil {
			return fmt.Errorf("渲染第 %d 页失败: %w", i+1, err)
		}
		c.RenderTo(writer)
	}
	renderer.Logger().Debug("pdf", "id", doc.ID, "pages", len(pages))

	if err := writer.Close(); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return nil
}

// Info 返回写入 PDF 信息字典的 title、subject、keywords、author、creator。
func Info(doc *label.Document) (title, subject, keywords, author, creator string) {
	title, _ = doc.Attribute("title")
	subject, _ = doc.Attribute("subject")
	keywords, _ = doc.Attribute("keywords")
	author, _ = doc.Attribute("author")
	creator, ok := doc.Attribute("creator")
	if !ok {
		creator = DefaultCreator
	}
	if title == "" {
		title = doc.ID.String()
	}
	return title, subject, keywords, author, creator
}

func applyMeta(writer *pdf.PDF, doc *label.Document) {
	writer.SetInfo(Info(doc))
}

func (r *Renderer) face(size float64, col layout.Color) *canvas.FontFace {
	key := faceKey{size: size, color: col}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if face, ok := r.faces[key]; ok {
		return face
	}
	// 逻辑像素被视图缩放为 mm；字体系统使用 pt，这里做一次 mm→pt
	face := r.family.Face(layout.Length{Value: size, Unit: layout.UnitMM}.ToPT(), colorFromLayout(col), canvas.FontRegular, canvas.FontNormal)
	r.faces[key] = face
	return face
}

// Surface 是 renderer.Surface 的矢量实现，把逻辑像素映射到页面毫米。
type Surface struct {
	r      *Renderer
	ctx    *canvas.Context
	w, h   int     // 设备像素尺寸
	mmW    float64 // 页面尺寸（mm）
	mmH    float64
	t      geom.Transform
	logicW float64
	logicH float64
}

var _ renderer.Surface = (*Surface)(nil)

// NewSurface 返回在 ctx 上绘制的 Surface；w×h 的设备像素铺满 mmW×mmH 的页面。
func (r *Renderer) NewSurface(ctx *canvas.Context, w, h int, mmW, mmH float64) *Surface {
	s := &Surface{r: r, ctx: ctx, w: w, h: h, mmW: mmW, mmH: mmH}
	s.SetTransform(geom.Identity)
	return s
}

func (s *Surface) SetTransform(t geom.Transform) {
	s.t = t
	s.logicW = float64(s.w) / t.SX
	s.logicH = float64(s.h) / t.SY
	s.ctx.SetView(canvas.Identity.Scale(s.mmW/s.logicW, s.mmH/s.logicH))
}

// SetHints 对矢量输出没有意义。
func (s *Surface) SetHints(renderer.Hints) {}

func (s *Surface) Clear(c layout.Color) {
	s.fill(0, 0, s.logicW, s.logicH, c)
}

func (s *Surface) FillRect(r geom.Rect, c layout.Color) {
	s.fill(float64(r.X), float64(r.Y), float64(r.Width), float64(r.Height), c)
}

func (s *Surface) fill(x, y, w, h float64, c layout.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	s.ctx.SetFillColor(colorFromLayout(c))
	s.ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	s.ctx.DrawPath(x, y, canvas.Rectangle(w, h))
}

func (s *Surface) StrokeRect(r geom.Rect, width float64, c layout.Color) {
	if width <= 0 {
		width = hairline * s.logicW / s.mmW
	}
	s.ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	s.ctx.SetStrokeColor(colorFromLayout(c))
	s.ctx.SetStrokeWidth(width)
	s.ctx.DrawPath(float64(r.X), float64(r.Y), canvas.Rectangle(float64(r.Width), float64(r.Height)))
}

func (s *Surface) MeasureText(content string, fontSize float64) (layout.TextMetrics, error) {
	if fontSize <= 0 {
		return layout.TextMetrics{}, nil
	}
	face := s.r.face(fontSize, layout.Black)
	m := face.Metrics()
	return layout.TextMetrics{
		Width:   face.TextWidth(content),
		Ascent:  m.Ascent,
		Descent: math.Abs(m.Descent),
	}, nil
}

func (s *Surface) DrawText(text string, x, baseline, size float64, c layout.Color) error {
	if text == "" || size <= 0 {
		return nil
	}
	line := canvas.NewTextLine(s.r.face(size, c), text, canvas.Left)
	s.ctx.DrawText(x, baseline, line)
	return nil
}

// DrawImage 先按最近邻放大到设备像素，避免阅读器插值使二维码模糊。
func (s *Surface) DrawImage(img image.Image, dst geom.Rect) {
	if img == nil || dst.Empty() {
		return
	}
	dr := s.t.Apply(dst).Snap()
	if dr.Empty() {
		return
	}
	scaled := image.NewRGBA(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	dpmm := float64(dr.Dx()) / float64(dst.Width)
	s.ctx.DrawImage(float64(dst.X), float64(dst.Y), scaled, canvas.DPMM(dpmm))
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
