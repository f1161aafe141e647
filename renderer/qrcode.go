package renderer

import (
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/ByLCY/labelkit/layout"
)

// QREncoder 基于 github.com/skip2/go-qrcode 生成二维码模块矩阵，不带静区。
type QREncoder struct{}

var _ layout.QREncoder = QREncoder{}

func (QREncoder) Encode(content string, level layout.QRLevel) ([][]bool, error) {
	q, err := qrcode.New(content, recoveryLevel(level))
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}
	q.DisableBorder = true
	return q.Bitmap(), nil
}

func recoveryLevel(l layout.QRLevel) qrcode.RecoveryLevel {
	switch l {
	case layout.QRMedium:
		return qrcode.Medium
	case layout.QRQuartile:
		return qrcode.High
	case layout.QRHigh:
		return qrcode.Highest
	default:
		return qrcode.Low
	}
}
