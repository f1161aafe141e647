package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/labelkit/layout"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[=;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// File is the root AST node of a .label file.
type File struct {
	Pos        lexer.Position `parser:"" json:"-"`
	ID         *StringLiteral `parser:"Newline* 'label' @String?"`
	Statements []*Statement   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Statement is one line inside the label block.
type Statement struct {
	Pos         lexer.Position   `parser:"" json:"-"`
	Pixels      *Size            `parser:"  'pixels' @@"`
	Centimeters *PhysicalSize    `parser:"| 'centimeters' @@"`
	Physical    *PhysicalLengths `parser:"| 'physical' @@"`
	Resolution  *float64         `parser:"| 'resolution' @Number"`
	Attribute   *AttributeStmt   `parser:"| 'attribute' @@"`
	Text        *TextStmt        `parser:"| 'text' @@"`
	Image       *ImageStmt       `parser:"| 'image' @@"`
	Rect        *RectStmt        `parser:"| 'rect' @@"`
	TextSlot    *TextSlotStmt    `parser:"| 'textslot' @@"`
	QRSlot      *QRSlotStmt      `parser:"| 'qrslot' @@"`
}

// Kind returns the statement keyword.
func (s *Statement) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Pixels != nil:
		return "pixels"
	case s.Centimeters != nil:
		return "centimeters"
	case s.Physical != nil:
		return "physical"
	case s.Resolution != nil:
		return "resolution"
	case s.Attribute != nil:
		return "attribute"
	case s.Text != nil:
		return "text"
	case s.Image != nil:
		return "image"
	case s.Rect != nil:
		return "rect"
	case s.TextSlot != nil:
		return "textslot"
	case s.QRSlot != nil:
		return "qrslot"
	default:
		return "unknown"
	}
}

// Size is a pixel size.
type Size struct {
	Width  int `parser:"@Number"`
	Height int `parser:"@Number"`
}

// PhysicalSize is a size in centimeters.
type PhysicalSize struct {
	Width  float64 `parser:"@Number"`
	Height float64 `parser:"@Number"`
}

// PhysicalLengths is a physical size with explicit units, e.g. `62mm 29mm`.
type PhysicalLengths struct {
	Width  LengthLiteral `parser:"@(Number ('mm' | 'cm' | 'in' | 'pt')?)"`
	Height LengthLiteral `parser:"@(Number ('mm' | 'cm' | 'in' | 'pt')?)"`
}

// LengthLiteral is a number with an optional unit suffix; bare numbers are
// centimeters.
type LengthLiteral layout.Length

// Capture implements participle.Capture.
func (l *LengthLiteral) Capture(values []string) error {
	v, err := layout.ParseLength(strings.Join(values, ""), layout.UnitCM)
	if err != nil {
		return err
	}
	*l = LengthLiteral(v)
	return nil
}

// Box is the `at x y w h` clause shared by every drawable field.
type Box struct {
	X      int `parser:"'at' @Number"`
	Y      int `parser:"@Number"`
	Width  int `parser:"@Number"`
	Height int `parser:"@Number"`
}

type AttributeStmt struct {
	Key   StringLiteral `parser:"@String"`
	Value StringLiteral `parser:"'=' @String"`
}

type TextStmt struct {
	Box   Box           `parser:"@@"`
	Size  uint          `parser:"( 'size' @Number"`
	Align string        `parser:"| 'align' @Ident )*"`
	Value StringLiteral `parser:"@String"`
}

// ImageStmt references a file relative to Options.BaseDir or embeds the
// URL-safe base64 payload.
type ImageStmt struct {
	Box  Box            `parser:"@@"`
	File *StringLiteral `parser:"( 'file' @String"`
	Data *StringLiteral `parser:"| 'data' @String )"`
}

type RectStmt struct {
	Box    Box  `parser:"@@"`
	Stroke *int `parser:"( 'stroke' @Number )?"`
}

type TextSlotStmt struct {
	Key     StringLiteral `parser:"@String"`
	Box     Box           `parser:"@@"`
	Size    uint          `parser:"( 'size' @Number"`
	Align   string        `parser:"| 'align' @Ident )*"`
	Preview StringLiteral `parser:"@String"`
}

type QRSlotStmt struct {
	Key     StringLiteral `parser:"@String"`
	Box     Box           `parser:"@@"`
	Preview StringLiteral `parser:"@String"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// ParseAST parses DSL content into its syntax tree without building a document.
func ParseAST(filename string, r io.Reader) (*File, error) {
	return fileParser.Parse(filename, r)
}
