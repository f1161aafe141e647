package layout

// BuildOptions 配置布局阶段所需的依赖，例如文字测量后端与二维码编码器。
type BuildOptions struct {
	Measurer Measurer
	QR       QREncoder
	Style    Style
	Mode     Mode
	// Slots 仅在 ModeFinal 下使用：entry → 实际值。缺失的槽位不绘制。
	Slots map[string]string
}

// TextMetrics 以文档逻辑像素为单位。
type TextMetrics struct {
	Width   float64
	Ascent  float64
	Descent float64
}

// Height 返回单行文字的行盒高度。
func (m TextMetrics) Height() float64 { return m.Ascent + m.Descent }

// Measurer 负责测量单行文字，通常由绘制表面实现（同一字体、同一缩放）。
type Measurer interface {
	MeasureText(content string, fontSize float64) (TextMetrics, error)
}

// QRLevel 是二维码纠错等级。
type QRLevel int

const (
	QRLow QRLevel = iota
	QRMedium
	QRQuartile
	QRHigh
)

// QREncoder 将字符串编码为黑白模块矩阵（true 为黑），不含静区。
type QREncoder interface {
	Encode(content string, level QRLevel) ([][]bool, error)
}
