package label

import (
	"fmt"
	"os"

	"github.com/ByLCY/labelkit/geom"
)

// FieldKind identifies which variant a Field is.
type FieldKind int

const (
	KindAttribute FieldKind = iota
	KindText
	KindImage
	KindRect
	KindTextSlot
	KindQrCodeSlot
)

var kindNames = [...]string{
	KindAttribute:  "Attribute",
	KindText:       "Text",
	KindImage:      "Image",
	KindRect:       "Rect",
	KindTextSlot:   "TextSlot",
	KindQrCodeSlot: "QrCodeSlot",
}

func (k FieldKind) Valid() bool { return k >= KindAttribute && k <= KindQrCodeSlot }

func (k FieldKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseFieldKind maps a symbolic kind name back to its FieldKind.
func ParseFieldKind(s string) (FieldKind, error) {
	for i, name := range kindNames {
		if s == name {
			return FieldKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field kind %q", s)
}

func (k FieldKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unsupported field kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *FieldKind) UnmarshalText(b []byte) error {
	v, err := ParseFieldKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Entries used by the fixed (non-keyed) field kinds.
const (
	TextEntry  = "txt"
	ImageEntry = "img"
	RectEntry  = "rec"
)

// DefaultStrokeWidth is used by NewRect and for Rect fields persisted
// without a stroke width.
const DefaultStrokeWidth = 1

// Field is one visual element of a Document. The concrete types are
// Attribute, Text, Image, Box, TextSlot and QRSlot.
type Field interface {
	Kind() FieldKind
	// Entry is the semantic key of the field. Fixed kinds report a sentinel.
	Entry() string
	// Bounds is the layout rectangle; zero for attributes.
	Bounds() geom.Rect

	isField()
}

// Attribute carries document metadata and is never drawn.
type Attribute struct {
	Key   string
	Value string
}

// Text is a single line of literal text.
type Text struct {
	Rect     geom.Rect
	Value    string
	FontSize uint // 0 derives Rect.Height/2
	Align    geom.Alignment
}

// Image is a bitmap aspect-fitted into Rect. Data holds the encoded file
// bytes (PNG, JPEG, ...).
type Image struct {
	Rect geom.Rect
	Data []byte
}

// Box is a stroked, unfilled rectangle drawn above every other field.
type Box struct {
	Rect        geom.Rect
	StrokeWidth int
}

// TextSlot is a line of text whose content is supplied at render time by Key.
type TextSlot struct {
	Rect     geom.Rect
	Key      string
	Preview  string
	FontSize uint
	Align    geom.Alignment
}

// QRSlot is a QR symbol whose payload is supplied at render time by Key.
type QRSlot struct {
	Rect    geom.Rect
	Key     string
	Preview string
}

func (Attribute) Kind() FieldKind { return KindAttribute }
func (Text) Kind() FieldKind      { return KindText }
func (Image) Kind() FieldKind     { return KindImage }
func (Box) Kind() FieldKind       { return KindRect }
func (TextSlot) Kind() FieldKind  { return KindTextSlot }
func (QRSlot) Kind() FieldKind    { return KindQrCodeSlot }

func (f Attribute) Entry() string { return f.Key }
func (Text) Entry() string        { return TextEntry }
func (Image) Entry() string       { return ImageEntry }
func (Box) Entry() string         { return RectEntry }
func (f TextSlot) Entry() string  { return f.Key }
func (f QRSlot) Entry() string    { return f.Key }

func (Attribute) Bounds() geom.Rect  { return geom.Rect{} }
func (f Text) Bounds() geom.Rect     { return f.Rect }
func (f Image) Bounds() geom.Rect    { return f.Rect }
func (f Box) Bounds() geom.Rect      { return f.Rect }
func (f TextSlot) Bounds() geom.Rect { return f.Rect }
func (f QRSlot) Bounds() geom.Rect   { return f.Rect }

func (Attribute) isField() {}
func (Text) isField()      {}
func (Image) isField()     {}
func (Box) isField()       {}
func (TextSlot) isField()  {}
func (QRSlot) isField()    {}

// TextOption customizes the text-bearing constructors.
type TextOption func(*textStyle)

type textStyle struct {
	size  uint
	align geom.Alignment
}

// WithFontSize sets an explicit font size in logical pixels.
func WithFontSize(size uint) TextOption {
	return func(s *textStyle) { s.size = size }
}

// WithAlign sets the horizontal alignment.
func WithAlign(a geom.Alignment) TextOption {
	return func(s *textStyle) { s.align = a }
}

func applyTextOptions(opts []TextOption) textStyle {
	s := textStyle{align: geom.Left}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func NewAttribute(entry, value string) Attribute {
	return Attribute{Key: entry, Value: value}
}

func NewText(rect geom.Rect, value string, opts ...TextOption) Text {
	s := applyTextOptions(opts)
	return Text{Rect: rect, Value: value, FontSize: s.size, Align: s.align}
}

// NewImage wraps already loaded image bytes.
func NewImage(rect geom.Rect, data []byte) Image {
	return Image{Rect: rect, Data: data}
}

// NewImageFromFile reads the file at path. It is the only constructor that
// can fail.
func NewImageFromFile(rect geom.Rect, path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image %s: %w", path, err)
	}
	return NewImage(rect, data), nil
}

// NewRect returns an outline with DefaultStrokeWidth.
func NewRect(rect geom.Rect) Box {
	return NewRectStroke(rect, DefaultStrokeWidth)
}

func NewRectStroke(rect geom.Rect, width int) Box {
	return Box{Rect: rect, StrokeWidth: width}
}

func NewTextSlot(rect geom.Rect, entry, previewValue string, opts ...TextOption) TextSlot {
	s := applyTextOptions(opts)
	return TextSlot{Rect: rect, Key: entry, Preview: previewValue, FontSize: s.size, Align: s.align}
}

func NewQrCodeSlot(rect geom.Rect, entry, previewValue string) QRSlot {
	return QRSlot{Rect: rect, Key: entry, Preview: previewValue}
}
