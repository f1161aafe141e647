package layout

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/labelkit/geom"
	"github.com/ByLCY/labelkit/label"
)

// ErrUnsupportedAlignment 表示字段携带了无法识别的对齐方式，渲染整体中止。
var ErrUnsupportedAlignment = errors.New("unsupported alignment")

// drawOrder 是固定的绘制层级，与字段在文档中的顺序无关；
// Rect 是装饰框，始终叠加在最上层。Attribute 从不绘制。
var drawOrder = [...]label.FieldKind{
	label.KindText,
	label.KindImage,
	label.KindTextSlot,
	label.KindQrCodeSlot,
	label.KindRect,
}

// Build 根据文档生成按绘制顺序排列的原语列表。同一类型内保持插入顺序。
func Build(doc *label.Document, opts BuildOptions) (*Plan, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: 缺少文字测量后端 Measurer")
	}

	b := &builder{opts: opts}
	b.plan = &Plan{
		Width:      doc.WidthPx,
		Height:     doc.HeightPx,
		Mode:       opts.Mode,
		Background: opts.Style.Background,
	}

	for _, kind := range drawOrder {
		err := doc.Each(kind, func(i int, f label.Field) error {
			if err := b.field(i, f); err != nil {
				return fmt.Errorf("字段 %d (%s): %w", i, kind, err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return b.plan, nil
}

type builder struct {
	opts BuildOptions
	plan *Plan
}

func (b *builder) emit(op Op) { b.plan.Ops = append(b.plan.Ops, op) }

func (b *builder) field(i int, f label.Field) error {
	switch v := f.(type) {
	case label.Text:
		return b.text(i, f, v.Rect, v.Value, v.FontSize, v.Align)
	case label.Image:
		return b.image(i, f, v)
	case label.TextSlot:
		return b.textSlot(i, f, v)
	case label.QRSlot:
		return b.qrSlot(i, f, v)
	case label.Box:
		b.emit(Op{
			Kind:        OpStroke,
			Source:      f.Kind(),
			Entry:       f.Entry(),
			Field:       i,
			Rect:        v.Rect,
			Color:       b.opts.Style.Stroke,
			StrokeWidth: float64(v.StrokeWidth),
		})
	}
	return nil
}

// resolve 返回槽位在当前模式下要绘制的内容；ok 为 false 时跳过该槽位。
func (b *builder) resolve(entry, preview string) (string, bool) {
	if b.opts.Mode == ModePreview {
		return preview, true
	}
	v, ok := b.opts.Slots[entry]
	return v, ok
}

func (b *builder) textSlot(i int, f label.Field, v label.TextSlot) error {
	content, ok := b.resolve(v.Key, v.Preview)
	if !ok {
		return nil
	}
	if b.opts.Mode == ModePreview {
		// 预览时用浅灰底色区分槽位与固定文字；二维码槽位没有这种区分。
		b.emit(Op{
			Kind:   OpFill,
			Source: f.Kind(),
			Entry:  f.Entry(),
			Field:  i,
			Rect:   v.Rect,
			Color:  b.opts.Style.SlotFill,
		})
	}
	return b.text(i, f, v.Rect, content, v.FontSize, v.Align)
}

func (b *builder) text(i int, f label.Field, rect geom.Rect, content string, size uint, align geom.Alignment) error {
	content = norm.NFC.String(content)
	fontSize := FontSize(size, rect)
	m, err := b.opts.Measurer.MeasureText(content, fontSize)
	if err != nil {
		return err
	}
	x, baseline, err := PlaceText(rect, m, align)
	if err != nil {
		return err
	}
	b.emit(Op{
		Kind:     OpText,
		Source:   f.Kind(),
		Entry:    f.Entry(),
		Field:    i,
		Rect:     rect,
		Color:    b.opts.Style.Text,
		Text:     content,
		FontSize: fontSize,
		X:        x,
		Baseline: baseline,
		Width:    m.Width,
	})
	return nil
}

func (b *builder) image(i int, f label.Field, v label.Image) error {
	img, _, err := image.Decode(bytes.NewReader(v.Data))
	if err != nil {
		return fmt.Errorf("图片解码失败: %w", err)
	}
	size := img.Bounds().Size()
	dst := FitImage(v.Rect, size.X, size.Y)
	if dst.Empty() {
		return nil
	}
	b.emit(Op{Kind: OpImage, Source: f.Kind(), Entry: f.Entry(), Field: i, Rect: dst, Image: img})
	return nil
}

func (b *builder) qrSlot(i int, f label.Field, v label.QRSlot) error {
	payload, ok := b.resolve(v.Key, v.Preview)
	if !ok || payload == "" {
		return nil
	}
	if b.opts.QR == nil {
		return fmt.Errorf("layout: 缺少二维码编码器 QREncoder")
	}
	modules, err := b.opts.QR.Encode(payload, QRLow)
	if err != nil {
		return fmt.Errorf("二维码编码失败: %w", err)
	}
	dst := FitSquare(v.Rect)
	if dst.Empty() || len(modules) == 0 {
		return nil
	}
	b.emit(Op{
		Kind:   OpImage,
		Source: f.Kind(),
		Entry:  f.Entry(),
		Field:  i,
		Rect:   dst,
		Image:  MatrixImage(modules, b.opts.Style.Text, b.opts.Style.Background),
	})
	return nil
}

// FontSize 返回字段的实际字号：0 表示由行盒高度的一半推导。
func FontSize(size uint, rect geom.Rect) float64 {
	if size == 0 {
		return float64(rect.Height) / 2
	}
	return float64(size)
}

// PlaceText 计算单行文字的起点与基线：垂直方向始终居中，水平方向按对齐方式。
func PlaceText(rect geom.Rect, m TextMetrics, align geom.Alignment) (float64, float64, error) {
	var x float64
	switch align {
	case geom.Left:
		x = float64(rect.X)
	case geom.Center:
		x = float64(rect.X) + (float64(rect.Width)-m.Width)/2
	case geom.Right:
		x = float64(rect.X+rect.Width) - m.Width
	default:
		return 0, 0, fmt.Errorf("%w: %d", ErrUnsupportedAlignment, int(align))
	}
	baseline := float64(rect.Y) + (float64(rect.Height)-m.Height())/2 + m.Ascent
	return x, baseline, nil
}

// FitImage 将 w×h 的图片等比缩放到 rect 内并居中，不裁剪。
// 图片宽高比不小于 rect 时占满宽度，否则占满高度。
func FitImage(rect geom.Rect, w, h int) geom.Rect {
	if w <= 0 || h <= 0 || rect.Empty() {
		return geom.Rect{}
	}
	rx := float64(w) / float64(rect.Width)
	ry := float64(h) / float64(rect.Height)

	var fw, fh int
	if rx >= ry {
		fw = rect.Width
		fh = int(math.RoundToEven(float64(rect.Width) * float64(h) / float64(w)))
	} else {
		fw = int(math.RoundToEven(float64(rect.Height) * float64(w) / float64(h)))
		fh = rect.Height
	}
	return geom.Rect{
		X:      rect.X + rect.Width/2 - fw/2,
		Y:      rect.Y + rect.Height/2 - fh/2,
		Width:  fw,
		Height: fh,
	}
}

// FitSquare 返回 rect 内居中的最大正方形。
func FitSquare(rect geom.Rect) geom.Rect {
	size := min(rect.Width, rect.Height)
	return geom.Rect{
		X:      rect.X + rect.Width/2 - size/2,
		Y:      rect.Y + rect.Height/2 - size/2,
		Width:  size,
		Height: size,
	}
}

// MatrixImage 将模块矩阵转换为每模块 1 像素的位图。
func MatrixImage(modules [][]bool, dark, light Color) *image.RGBA {
	n := len(modules)
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	d, l := dark.rgba(), light.rgba()
	for y, row := range modules {
		for x := 0; x < n; x++ {
			if x < len(row) && row[x] {
				img.SetRGBA(x, y, d)
			} else {
				img.SetRGBA(x, y, l)
			}
		}
	}
	return img
}

// RGBA 实现 color.Color，Color 总是不透明的。
func (c Color) RGBA() (r, g, b, a uint32) { return c.rgba().RGBA() }

func (c Color) rgba() color.RGBA {
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 0xff}
}
