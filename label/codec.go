package label

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/ByLCY/labelkit/geom"
)

// ErrDecode is wrapped by every error returned from Decode.
var ErrDecode = errors.New("failed to decode")

// wireDocument mirrors the persisted shape. Pointers distinguish an absent
// key from a zero value so that Decode can reject incomplete input.
type wireDocument struct {
	ID       *uuid.UUID   `json:"id"`
	WidthPx  *int         `json:"widthPx"`
	HeightPx *int         `json:"heightPx"`
	WidthCm  *float64     `json:"widthCm"`
	HeightCm *float64     `json:"heightCm"`
	Fields   *[]wireField `json:"fields"`
}

type wireField struct {
	Kind      *FieldKind      `json:"kind"`
	Entry     *string         `json:"entry"`
	Value     *string         `json:"value"`
	FontSize  uint            `json:"fontSize"`
	Rect      geom.Rect       `json:"rect"`
	Alignment *geom.Alignment `json:"alignment,omitempty"`
}

// Encode serializes the document to JSON.
func (d *Document) Encode() ([]byte, error) {
	fields := make([]wireField, 0, len(d.fields))
	for i, f := range d.fields {
		wf, err := toWire(f)
		if err != nil {
			return nil, fmt.Errorf("encode field %d: %w", i, err)
		}
		fields = append(fields, wf)
	}
	return json.Marshal(wireDocument{
		ID:       &d.ID,
		WidthPx:  &d.WidthPx,
		HeightPx: &d.HeightPx,
		WidthCm:  &d.WidthCm,
		HeightCm: &d.HeightCm,
		Fields:   &fields,
	})
}

// Save writes Encode output to path.
func (d *Document) Save(path string) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write label %s: %w", path, err)
	}
	return nil
}

// Decode parses a document produced by Encode. Missing required keys,
// unknown enum names and malformed payloads all fail with ErrDecode.
func Decode(data []byte) (*Document, error) {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	switch {
	case w.ID == nil:
		return nil, missing("id")
	case w.WidthPx == nil:
		return nil, missing("widthPx")
	case w.HeightPx == nil:
		return nil, missing("heightPx")
	case w.WidthCm == nil:
		return nil, missing("widthCm")
	case w.HeightCm == nil:
		return nil, missing("heightCm")
	case w.Fields == nil:
		return nil, missing("fields")
	}

	d := &Document{
		ID:       *w.ID,
		WidthPx:  *w.WidthPx,
		HeightPx: *w.HeightPx,
		WidthCm:  *w.WidthCm,
		HeightCm: *w.HeightCm,
	}
	for i, wf := range *w.Fields {
		f, err := fromWire(wf)
		if err != nil {
			return nil, fmt.Errorf("%w: fields[%d]: %w", ErrDecode, i, err)
		}
		d.fields = append(d.fields, f)
	}
	return d, nil
}

// Open reads and decodes the document stored at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label %s: %w", path, err)
	}
	return Decode(data)
}

func missing(key string) error {
	return fmt.Errorf("%w: missing %q", ErrDecode, key)
}

func toWire(f Field) (wireField, error) {
	kind := f.Kind()
	entry := f.Entry()
	wf := wireField{Kind: &kind, Entry: &entry, Rect: f.Bounds()}
	var value string
	switch v := f.(type) {
	case Attribute:
		value = v.Value
	case Text:
		value = v.Value
		wf.FontSize = v.FontSize
		wf.Alignment = &v.Align
	case Image:
		value = EncodeImagePayload(v.Data)
	case Box:
		value = strconv.Itoa(v.StrokeWidth)
	case TextSlot:
		value = v.Preview
		wf.FontSize = v.FontSize
		wf.Alignment = &v.Align
	case QRSlot:
		value = v.Preview
	default:
		return wireField{}, fmt.Errorf("unsupported field type %T", f)
	}
	wf.Value = &value
	return wf, nil
}

func fromWire(wf wireField) (Field, error) {
	switch {
	case wf.Kind == nil:
		return nil, errors.New(`missing "kind"`)
	case wf.Entry == nil:
		return nil, errors.New(`missing "entry"`)
	case wf.Value == nil:
		return nil, errors.New(`missing "value"`)
	}
	align := geom.Left
	if wf.Alignment != nil {
		align = *wf.Alignment
	}
	value := *wf.Value
	switch *wf.Kind {
	case KindAttribute:
		return Attribute{Key: *wf.Entry, Value: value}, nil
	case KindText:
		return Text{Rect: wf.Rect, Value: value, FontSize: wf.FontSize, Align: align}, nil
	case KindImage:
		data, err := DecodeImagePayload(value)
		if err != nil {
			return nil, fmt.Errorf("image payload: %w", err)
		}
		return Image{Rect: wf.Rect, Data: data}, nil
	case KindRect:
		width, err := parseStrokeWidth(value)
		if err != nil {
			return nil, err
		}
		return Box{Rect: wf.Rect, StrokeWidth: width}, nil
	case KindTextSlot:
		return TextSlot{Rect: wf.Rect, Key: *wf.Entry, Preview: value, FontSize: wf.FontSize, Align: align}, nil
	case KindQrCodeSlot:
		return QRSlot{Rect: wf.Rect, Key: *wf.Entry, Preview: value}, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %d", int(*wf.Kind))
	}
}

// EncodeImagePayload returns the wire form of image bytes: unpadded
// URL-safe base64.
func EncodeImagePayload(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeImagePayload accepts URL-safe base64 with or without padding. An
// empty payload decodes to nil, matching NewImage(rect, nil).
func DecodeImagePayload(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if data, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.URLEncoding.DecodeString(s)
}

// parseStrokeWidth treats an empty value as DefaultStrokeWidth; files written
// before stroke widths were configurable store "".
func parseStrokeWidth(s string) (int, error) {
	if s == "" {
		return DefaultStrokeWidth, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("stroke width: %w", err)
	}
	return n, nil
}
