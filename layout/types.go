package layout

// 该文件定义绘制计划（Plan）与颜色/样式描述，供布局计算、渲染与调试 JSON 共用。

import (
	"image"

	"github.com/ByLCY/labelkit/geom"
	"github.com/ByLCY/labelkit/label"
)

// Mode 区分预览渲染与最终渲染。
type Mode int

const (
	ModePreview Mode = iota
	ModeFinal
)

func (m Mode) String() string {
	if m == ModeFinal {
		return "final"
	}
	return "preview"
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// OpKind 是绘制原语的类型。
type OpKind string

const (
	OpFill   OpKind = "fill"
	OpStroke OpKind = "stroke"
	OpText   OpKind = "text"
	OpImage  OpKind = "image"
)

// Plan 保存按最终绘制顺序排列的原语，坐标均为文档逻辑像素。
type Plan struct {
	Width      int   `json:"width"`
	Height     int   `json:"height"`
	Mode       Mode  `json:"mode"`
	Background Color `json:"background"`
	Ops        []Op  `json:"ops"`
}

// Op 是一个已经定位好的绘制原语。Source/Entry/Field 记录其来源字段，
// 便于调试与测试追溯像素归属。
type Op struct {
	Kind   OpKind          `json:"kind"`
	Source label.FieldKind `json:"source"`
	Entry  string          `json:"entry"`
	Field  int             `json:"field"` // 字段在文档中的下标

	Rect  geom.Rect `json:"rect"`
	Color Color     `json:"color"`

	// OpStroke
	StrokeWidth float64 `json:"strokeWidth,omitempty"`

	// OpText：X 为行起点，Baseline 为基线（逻辑像素）
	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	X        float64 `json:"x,omitempty"`
	Baseline float64 `json:"baseline,omitempty"`
	Width    float64 `json:"textWidth,omitempty"`

	// OpImage：已解码的位图，按最近邻缩放到 Rect
	Image image.Image `json:"-"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	White     = Color{R: 255, G: 255, B: 255}
	Black     = Color{}
	LightGray = Color{R: 211, G: 211, B: 211}
)

// Style 是渲染时使用的全部颜色，显式传入，不依赖全局画笔。
type Style struct {
	Background Color `json:"background"`
	Text       Color `json:"text"`
	Stroke     Color `json:"stroke"`
	SlotFill   Color `json:"slotFill"` // 预览模式下文本槽的底色
}

// DefaultStyle 为黑白标签打印机准备：白底、黑字黑框、浅灰色槽位底色。
func DefaultStyle() Style {
	return Style{
		Background: White,
		Text:       Black,
		Stroke:     Black,
		SlotFill:   LightGray,
	}
}
