package layout

import (
	"math"
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for physical label sizes.

// Unit represents the unit a physical length was given in.
type Unit int

const (
	UnitNone Unit = iota
	UnitMM
	UnitCM
	UnitIN
	UnitPT
)

// Conversion constants.
const (
	CmPerInch = 2.54
	PtToMm    = 0.352777
	MmToPt    = 1.0 / PtToMm
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// String formats the length as it is written in label files, e.g. "62mm".
func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + UnitToString(l.Unit)
}

// ToMM converts the length to millimeters. Unit-less values are taken as mm.
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * CmPerInch * 10
	case UnitPT:
		return l.Value * PtToMm
	default:
		return l.Value
	}
}

func (l Length) ToCM() float64 { return l.ToMM() / 10 }
func (l Length) ToIN() float64 { return l.ToMM() / (CmPerInch * 10) }
func (l Length) ToPT() float64 { return l.ToMM() * MmToPt }

// ParseLength parses strings such as "20cm", "4in" or "62mm". A bare number
// uses fallback as its unit.
func ParseLength(value string, fallback Unit) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	unit := fallback
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, err
	}
	return Length{Value: f, Unit: unit}, nil
}

// DPI 返回在物理长度 cm 上铺满 px 个像素时的分辨率（每英寸点数）。
func DPI(px int, cm float64) float64 {
	if cm <= 0 {
		return 0
	}
	return float64(px) / Length{Value: cm, Unit: UnitCM}.ToIN()
}

// PixelsAt 返回物理长度 cm 在给定 dpi 下需要的像素数（四舍五入）。
func PixelsAt(cm, dpi float64) int {
	return int(math.Round(Length{Value: cm, Unit: UnitCM}.ToIN() * dpi))
}
