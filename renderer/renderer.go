package renderer

import (
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/font/opentype"

	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/geom"
	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/layout"
)

// Surface 是渲染引擎需要的全部绘图能力。所有坐标都是文档逻辑像素，
// 由 SetTransform 给出的缩放统一映射到设备像素；MeasureText 同样按逻辑像素返回。
type Surface interface {
	layout.Measurer
	SetTransform(t geom.Transform)
	SetHints(h Hints)
	Clear(c layout.Color)
	FillRect(r geom.Rect, c layout.Color)
	// StrokeRect 描边居中于 r 的边界，width 为逻辑像素，<=0 时画 1 个设备像素宽的细线。
	StrokeRect(r geom.Rect, width float64, c layout.Color)
	DrawText(s string, x, baseline, size float64, c layout.Color) error
	DrawImage(img image.Image, dst geom.Rect)
}

// Hints 是渲染质量提示。零值即标签打印机需要的效果：单色位文字、最近邻缩放图片。
type Hints struct {
	Antialias bool
}

// Options 配置 Engine，创建后不再修改。
type Options struct {
	Style layout.Style // 零值时使用 layout.DefaultStyle()
	Hints Hints
	Font  []byte           // TrueType/OpenType 数据，nil 使用 fonts.Default()
	QR    layout.QREncoder // nil 使用 QREncoder{}
}

// Engine 将 label.Document 渲染为位图或任意 Surface。可并发使用。
type Engine struct {
	style layout.Style
	hints Hints
	qr    layout.QREncoder
	font  *opentype.Font
}

// NewEngine 解析字体并返回引擎。
func NewEngine(opts Options) (*Engine, error) {
	data := opts.Font
	if data == nil {
		data = fonts.Default()
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体失败: %w", err)
	}
	e := &Engine{style: opts.Style, hints: opts.Hints, qr: opts.QR, font: f}
	if e.style == (layout.Style{}) {
		e.style = layout.DefaultStyle()
	}
	if e.qr == nil {
		e.qr = QREncoder{}
	}
	return e, nil
}

// NewSurface 返回 w×h 的光栅 Surface，使用引擎的字体。
func (e *Engine) NewSurface(w, h int) *Raster { return NewRaster(w, h, e.font) }

// PreviewRender 以预览模式渲染为 w×h 位图：槽位显示预览值，文本槽带浅灰底色。
func (e *Engine) PreviewRender(doc *label.Document, w, h int) (*Bitmap, error) {
	return e.bitmap(doc, w, h, layout.ModePreview, nil)
}

// FinalRender 以最终模式渲染为 w×h 位图：槽位取 slots 中的值，缺失的槽位不绘制。
func (e *Engine) FinalRender(doc *label.Document, w, h int, slots map[string]string) (*Bitmap, error) {
	return e.bitmap(doc, w, h, layout.ModeFinal, slots)
}

// RenderPreview 按文档自身的像素尺寸预览渲染。
func (e *Engine) RenderPreview(doc *label.Document) (*Bitmap, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	return e.PreviewRender(doc, doc.WidthPx, doc.HeightPx)
}

// Render 按文档自身的像素尺寸最终渲染。
func (e *Engine) Render(doc *label.Document, slots map[string]string) (*Bitmap, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	return e.FinalRender(doc, doc.WidthPx, doc.HeightPx, slots)
}

// RenderPreviewOn 在调用方提供的 Surface 上预览渲染，w×h 为 Surface 的设备尺寸。
func (e *Engine) RenderPreviewOn(s Surface, doc *label.Document, w, h int) error {
	_, err := e.draw(s, doc, w, h, layout.ModePreview, nil)
	return err
}

// RenderOn 在调用方提供的 Surface 上最终渲染。
func (e *Engine) RenderOn(s Surface, doc *label.Document, w, h int, slots map[string]string) error {
	_, err := e.draw(s, doc, w, h, layout.ModeFinal, slots)
	return err
}

// Plan 只做布局计算，返回 w×h 输出下的绘制计划，可用于调试输出。
func (e *Engine) Plan(doc *label.Document, w, h int, mode layout.Mode, slots map[string]string) (*layout.Plan, error) {
	if err := checkSize(doc, w, h); err != nil {
		return nil, err
	}
	s := e.NewSurface(w, h)
	s.SetTransform(geom.Scale(doc.WidthPx, doc.HeightPx, w, h))
	return e.build(s, doc, mode, slots)
}

func (e *Engine) bitmap(doc *label.Document, w, h int, mode layout.Mode, slots map[string]string) (*Bitmap, error) {
	if err := checkSize(doc, w, h); err != nil {
		return nil, err
	}
	s := e.NewSurface(w, h)
	if _, err := e.draw(s, doc, w, h, mode, slots); err != nil {
		return nil, err
	}
	return NewBitmap(s.Image(), doc), nil
}

func (e *Engine) draw(s Surface, doc *label.Document, w, h int, mode layout.Mode, slots map[string]string) (*layout.Plan, error) {
	if err := checkSize(doc, w, h); err != nil {
		return nil, err
	}
	s.SetTransform(geom.Scale(doc.WidthPx, doc.HeightPx, w, h))
	s.SetHints(e.hints)

	plan, err := e.build(s, doc, mode, slots)
	if err != nil {
		return nil, err
	}
	Logger().Debug("render",
		"id", doc.ID,
		"mode", mode.String(),
		"size", fmt.Sprintf("%dx%d", w, h),
		"ops", len(plan.Ops))

	s.Clear(plan.Background)
	if err := Paint(s, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (e *Engine) build(m layout.Measurer, doc *label.Document, mode layout.Mode, slots map[string]string) (*layout.Plan, error) {
	return layout.Build(doc, layout.BuildOptions{
		Measurer: m,
		QR:       e.qr,
		Style:    e.style,
		Mode:     mode,
		Slots:    slots,
	})
}

// Paint 按顺序把绘制计划中的原语画到 Surface 上，不负责清屏。
func Paint(s Surface, plan *layout.Plan) error {
	for i, op := range plan.Ops {
		switch op.Kind {
		case layout.OpFill:
			s.FillRect(op.Rect, op.Color)
		case layout.OpStroke:
			s.StrokeRect(op.Rect, op.StrokeWidth, op.Color)
		case layout.OpText:
			if err := s.DrawText(op.Text, op.X, op.Baseline, op.FontSize, op.Color); err != nil {
				return fmt.Errorf("绘制原语 %d (%s %q): %w", i, op.Source, op.Entry, err)
			}
		case layout.OpImage:
			s.DrawImage(op.Image, op.Rect)
		default:
			return fmt.Errorf("未知的绘制原语 %q", op.Kind)
		}
	}
	return nil
}

func checkSize(doc *label.Document, w, h int) error {
	if doc == nil {
		return fmt.Errorf("文档为空")
	}
	if doc.WidthPx <= 0 || doc.HeightPx <= 0 {
		return fmt.Errorf("文档像素尺寸无效: %dx%d", doc.WidthPx, doc.HeightPx)
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("输出尺寸无效: %dx%d", w, h)
	}
	return nil
}

var defaultEngine = sync.OnceValues(func() (*Engine, error) { return NewEngine(Options{}) })

// Default 返回使用默认字体与样式的共享引擎。
func Default() (*Engine, error) { return defaultEngine() }

// PreviewRender 使用默认引擎预览渲染。
func PreviewRender(doc *label.Document, w, h int) (*Bitmap, error) {
	e, err := Default()
	if err != nil {
		return nil, err
	}
	return e.PreviewRender(doc, w, h)
}

// FinalRender 使用默认引擎最终渲染。
func FinalRender(doc *label.Document, w, h int, slots map[string]string) (*Bitmap, error) {
	e, err := Default()
	if err != nil {
		return nil, err
	}
	return e.FinalRender(doc, w, h, slots)
}
