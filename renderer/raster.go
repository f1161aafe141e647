package renderer

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/labelkit/geom"
	"github.com/ByLCY/labelkit/layout"
)

// Raster 是基于 golang.org/x/image 的软件光栅 Surface。
type Raster struct {
	img   *image.RGBA
	font  *opentype.Font
	t     geom.Transform
	hints Hints

	// opentype 的 face 不能并发使用，缓存与绘制都在锁内进行
	mu    sync.Mutex
	faces map[float64]font.Face
}

var _ Surface = (*Raster)(nil)

// NewRaster 创建 w×h 的光栅 Surface，初始为透明，变换为单位变换。
func NewRaster(w, h int, f *opentype.Font) *Raster {
	return &Raster{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		font:  f,
		t:     geom.Identity,
		faces: map[float64]font.Face{},
	}
}

// Image 返回底层位图。
func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) SetTransform(t geom.Transform) { r.t = t }
func (r *Raster) SetHints(h Hints)              { r.hints = h }

func (r *Raster) Clear(c layout.Color) {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (r *Raster) FillRect(rect geom.Rect, c layout.Color) {
	draw.Draw(r.img, r.t.Apply(rect).Snap(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (r *Raster) StrokeRect(rect geom.Rect, width float64, c layout.Color) {
	wx, wy := width*r.t.SX, width*r.t.SY
	if width <= 0 {
		wx, wy = 1, 1
	}
	box := r.t.Apply(rect)
	outer := box.Inset(-wx/2, -wy/2).Snap()

	src := image.NewUniform(c)
	// image.Rect 会交换颠倒的边，描边宽于矩形时必须先判断
	var inner image.Rectangle
	if box.Width > wx && box.Height > wy {
		inner = box.Inset(wx/2, wy/2).Snap()
	}
	if inner.Empty() {
		draw.Draw(r.img, outer, src, image.Point{}, draw.Src)
		return
	}
	bands := [...]image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y), // 上
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y), // 下
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y), // 左
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y), // 右
	}
	for _, band := range bands {
		draw.Draw(r.img, band, src, image.Point{}, draw.Src)
	}
}

func (r *Raster) DrawImage(img image.Image, dst geom.Rect) {
	if img == nil {
		return
	}
	dr := r.t.Apply(dst).Snap()
	if dr.Empty() {
		return
	}
	r.scaler().Scale(r.img, dr, img, img.Bounds(), xdraw.Over, nil)
}

// MeasureText 按逻辑像素测量单行文字。
func (r *Raster) MeasureText(content string, fontSize float64) (layout.TextMetrics, error) {
	if fontSize <= 0 {
		return layout.TextMetrics{}, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	face, err := r.face(fontSize)
	if err != nil {
		return layout.TextMetrics{}, err
	}
	m := face.Metrics()
	return layout.TextMetrics{
		Width:   fromFixed(font.MeasureString(face, content)),
		Ascent:  fromFixed(m.Ascent),
		Descent: fromFixed(m.Descent),
	}, nil
}

// DrawText 在 (x, baseline) 处绘制单行文字。字形先按纵向缩放后的字号画进蒙版，
// 横纵缩放不一致时再将蒙版横向拉伸。蒙版按字形墨迹范围分配，原点即基线起点，
// 左侧负边距与右侧悬出的笔画都不会被裁掉。
func (r *Raster) DrawText(s string, x, baseline, size float64, c layout.Color) error {
	dev := size * r.t.SY
	if s == "" {
		return nil
	}
	if dev <= 0 {
		Logger().Warn("跳过字号为零的文字", "text", s)
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	face, err := r.face(dev)
	if err != nil {
		return err
	}
	const pad = 2
	ink, _ := font.BoundString(face, s)
	mask := image.NewAlpha(image.Rect(
		ink.Min.X.Floor()-pad, ink.Min.Y.Floor()-pad,
		ink.Max.X.Ceil()+pad, ink.Max.Y.Ceil()+pad,
	))
	d := font.Drawer{Dst: mask, Src: image.Opaque, Face: face}
	d.DrawString(s)
	if !r.hints.Antialias {
		threshold(mask)
	}

	src := mask
	if k := r.t.SX / r.t.SY; k != 1 {
		mr := mask.Rect
		minX := int(math.Floor(float64(mr.Min.X) * k))
		maxX := max(minX+1, int(math.Ceil(float64(mr.Max.X)*k)))
		src = image.NewAlpha(image.Rect(minX, mr.Min.Y, maxX, mr.Max.Y))
		r.scaler().Scale(src, src.Rect, mask, mr, xdraw.Src, nil)
	}

	ox, oy := r.t.Point(x, baseline)
	origin := image.Pt(int(math.Round(ox)), int(math.Round(oy)))
	draw.DrawMask(r.img, src.Rect.Add(origin), image.NewUniform(c), image.Point{}, src, src.Rect.Min, draw.Over)
	return nil
}

func (r *Raster) face(size float64) (font.Face, error) {
	if face, ok := r.faces[size]; ok {
		return face, nil
	}
	if r.font == nil {
		return nil, fmt.Errorf("光栅 Surface 未设置字体")
	}
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 %.2fpx 字体失败: %w", size, err)
	}
	r.faces[size] = face
	return face, nil
}

func (r *Raster) scaler() xdraw.Scaler {
	if r.hints.Antialias {
		return xdraw.ApproxBiLinear
	}
	return xdraw.NearestNeighbor
}

// threshold 把抗锯齿蒙版二值化，得到单色位文字。
func threshold(mask *image.Alpha) {
	for i, a := range mask.Pix {
		if a >= 0x80 {
			mask.Pix[i] = 0xff
		} else {
			mask.Pix[i] = 0
		}
	}
}

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }
