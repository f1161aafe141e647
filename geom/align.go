package geom

import (
	"fmt"
	"strings"
)

// Alignment controls horizontal text placement. Vertical placement is always
// centered.
type Alignment int

const (
	Left Alignment = iota
	Center
	Right
)

var alignmentNames = [...]string{Left: "Left", Center: "Center", Right: "Right"}

func (a Alignment) Valid() bool { return a >= Left && a <= Right }

func (a Alignment) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Alignment(%d)", int(a))
	}
	return alignmentNames[a]
}

// ParseAlignment accepts the symbolic names written by MarshalText, case
// insensitively for hand-edited files.
func ParseAlignment(s string) (Alignment, error) {
	for i, name := range alignmentNames {
		if strings.EqualFold(s, name) {
			return Alignment(i), nil
		}
	}
	return 0, fmt.Errorf("unknown alignment %q", s)
}

func (a Alignment) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("unsupported alignment %d", int(a))
	}
	return []byte(alignmentNames[a]), nil
}

func (a *Alignment) UnmarshalText(b []byte) error {
	v, err := ParseAlignment(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
