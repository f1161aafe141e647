package renderer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/layout"
)

// Bitmap 是渲染结果，DPIX/DPIY 由输出像素与标签物理尺寸得出。
type Bitmap struct {
	Image *image.RGBA
	DPIX  float64
	DPIY  float64
}

// NewBitmap 包装 img，并按 doc 的物理尺寸计算分辨率。
func NewBitmap(img *image.RGBA, doc *label.Document) *Bitmap {
	b := img.Bounds()
	return &Bitmap{
		Image: img,
		DPIX:  layout.DPI(b.Dx(), doc.WidthCm),
		DPIY:  layout.DPI(b.Dy(), doc.HeightCm),
	}
}

func (b *Bitmap) Width() int  { return b.Image.Bounds().Dx() }
func (b *Bitmap) Height() int { return b.Image.Bounds().Dy() }

// WritePNG 以 PNG 格式写出位图；分辨率已知时写入 pHYs 块。
func (b *Bitmap) WritePNG(w io.Writer) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, b.Image); err != nil {
		return fmt.Errorf("编码 PNG 失败: %w", err)
	}
	data := buf.Bytes()
	if b.DPIX > 0 && b.DPIY > 0 {
		data = insertPHYs(data, dotsPerMeter(b.DPIX), dotsPerMeter(b.DPIY))
	}
	_, err := w.Write(data)
	return err
}

// SavePNG 将位图写入 path。
func (b *Bitmap) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := b.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func dotsPerMeter(dpi float64) uint32 {
	return uint32(math.Round(dpi / layout.CmPerInch * 100))
}

// PNG 签名 8 字节 + IHDR 块 25 字节，pHYs 必须位于 IDAT 之前
const ihdrEnd = 8 + 25

func insertPHYs(data []byte, ppmX, ppmY uint32) []byte {
	chunk := make([]byte, 0, 21)
	chunk = binary.BigEndian.AppendUint32(chunk, 9)
	chunk = append(chunk, "pHYs"...)
	chunk = binary.BigEndian.AppendUint32(chunk, ppmX)
	chunk = binary.BigEndian.AppendUint32(chunk, ppmY)
	chunk = append(chunk, 1) // 单位：米
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, data[ihdrEnd:]...)
}

// ReadPNGDPI 读取 PNG 中 pHYs 块记录的分辨率；没有该块时 ok 为 false。
func ReadPNGDPI(r io.Reader) (dpiX, dpiY float64, ok bool, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, 0, false, err
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		return 0, 0, false, fmt.Errorf("不是 PNG 数据")
	}
	for p := 8; p+12 <= len(data); {
		n := int(binary.BigEndian.Uint32(data[p:]))
		typ := string(data[p+4 : p+8])
		if p+12+n > len(data) {
			break
		}
		if typ == "pHYs" && n == 9 && data[p+16] == 1 {
			x := binary.BigEndian.Uint32(data[p+8:])
			y := binary.BigEndian.Uint32(data[p+12:])
			return float64(x) / 100 * layout.CmPerInch, float64(y) / 100 * layout.CmPerInch, true, nil
		}
		if typ == "IDAT" {
			break
		}
		p += 12 + n
	}
	return 0, 0, false, nil
}
