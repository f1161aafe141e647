package dsl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ByLCY/labelkit/geom"
	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/layout"
)

// Options 控制 DSL 到文档的转换。
type Options struct {
	// BaseDir 是 image file 相对路径的根目录；为空时相对于当前工作目录。
	BaseDir string
}

// Parse parses DSL content from an io.Reader and builds the label document.
func Parse(r io.Reader, opts Options) (*label.Document, error) {
	ast, err := ParseAST("", r)
	if err != nil {
		return nil, err
	}
	return Build(ast, opts)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*label.Document, error) {
	return Parse(strings.NewReader(input), Options{})
}

// ParseFile parses the DSL file at path, resolving images relative to its directory.
func ParseFile(path string) (*label.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开 DSL 文件 %s: %w", path, err)
	}
	defer f.Close()
	ast, err := ParseAST(path, f)
	if err != nil {
		return nil, err
	}
	return Build(ast, Options{BaseDir: filepath.Dir(path)})
}

// Build 将语法树转换为 label.Document。pixels 必须出现一次，
// centimeters、physical 与 resolution 三选一。
func Build(ast *File, opts Options) (*label.Document, error) {
	if ast == nil {
		return nil, fmt.Errorf("语法树为空")
	}
	var (
		pixels     *Size
		physical   *PhysicalSize
		resolution *float64
		fields     []label.Field
	)
	for _, st := range ast.Statements {
		switch {
		case st.Pixels != nil:
			if pixels != nil {
				return nil, fmt.Errorf("%s: pixels 重复声明", st.Pos)
			}
			pixels = st.Pixels
		case st.Centimeters != nil, st.Physical != nil, st.Resolution != nil:
			if physical != nil || resolution != nil {
				return nil, fmt.Errorf("%s: 物理尺寸重复声明（centimeters、physical 与 resolution 只能出现一个）", st.Pos)
			}
			physical, resolution = st.Centimeters, st.Resolution
			if st.Physical != nil {
				size, err := st.Physical.centimeters()
				if err != nil {
					return nil, fmt.Errorf("%s: physical: %w", st.Pos, err)
				}
				physical = size
			}
		default:
			f, err := buildField(st, opts)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", st.Pos, st.Kind(), err)
			}
			fields = append(fields, f)
		}
	}

	if pixels == nil {
		return nil, errors.New("缺少 pixels 声明")
	}
	var doc *label.Document
	switch {
	case physical != nil:
		doc = label.NewWithSize(pixels.Width, pixels.Height, physical.Width, physical.Height)
	case resolution != nil:
		if *resolution <= 0 {
			return nil, fmt.Errorf("resolution 必须为正数: %g", *resolution)
		}
		doc = label.New(pixels.Width, pixels.Height, *resolution)
	default:
		return nil, errors.New("缺少 centimeters、physical 或 resolution 声明")
	}

	if ast.ID != nil {
		id, err := uuid.Parse(string(*ast.ID))
		if err != nil {
			return nil, fmt.Errorf("%s: label id: %w", ast.Pos, err)
		}
		doc.ID = id
	}
	doc.Add(fields...)
	return doc, nil
}

func buildField(st *Statement, opts Options) (label.Field, error) {
	switch {
	case st.Attribute != nil:
		return label.NewAttribute(string(st.Attribute.Key), string(st.Attribute.Value)), nil
	case st.Text != nil:
		t := st.Text
		style, err := textOptions(t.Size, t.Align)
		if err != nil {
			return nil, err
		}
		return label.NewText(t.Box.rect(), string(t.Value), style...), nil
	case st.Image != nil:
		return buildImage(st.Image, opts)
	case st.Rect != nil:
		if st.Rect.Stroke == nil {
			return label.NewRect(st.Rect.Box.rect()), nil
		}
		return label.NewRectStroke(st.Rect.Box.rect(), *st.Rect.Stroke), nil
	case st.TextSlot != nil:
		s := st.TextSlot
		style, err := textOptions(s.Size, s.Align)
		if err != nil {
			return nil, err
		}
		return label.NewTextSlot(s.Box.rect(), string(s.Key), string(s.Preview), style...), nil
	case st.QRSlot != nil:
		q := st.QRSlot
		return label.NewQrCodeSlot(q.Box.rect(), string(q.Key), string(q.Preview)), nil
	}
	return nil, fmt.Errorf("未知语句")
}

func buildImage(st *ImageStmt, opts Options) (label.Field, error) {
	if st.Data != nil {
		data, err := label.DecodeImagePayload(string(*st.Data))
		if err != nil {
			return nil, fmt.Errorf("图片数据不是 URL 安全的 base64: %w", err)
		}
		return label.NewImage(st.Box.rect(), data), nil
	}
	path := string(*st.File)
	if opts.BaseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(opts.BaseDir, path)
	}
	return label.NewImageFromFile(st.Box.rect(), path)
}

func textOptions(size uint, align string) ([]label.TextOption, error) {
	opts := []label.TextOption{label.WithFontSize(size)}
	if align != "" {
		a, err := geom.ParseAlignment(align)
		if err != nil {
			return nil, err
		}
		opts = append(opts, label.WithAlign(a))
	}
	return opts, nil
}

func (b Box) rect() geom.Rect { return geom.R(b.X, b.Y, b.Width, b.Height) }

// centimeters 将带单位的物理尺寸换算为厘米。
func (p *PhysicalLengths) centimeters() (*PhysicalSize, error) {
	w, h := layout.Length(p.Width), layout.Length(p.Height)
	if w.IsZero() || h.IsZero() || w.Value < 0 || h.Value < 0 {
		return nil, fmt.Errorf("物理尺寸必须为正数: %s x %s", w, h)
	}
	return &PhysicalSize{Width: w.ToCM(), Height: h.ToCM()}, nil
}
