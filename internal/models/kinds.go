package models

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// WalkType selects the step kernel of a walk.
type WalkType int

const (
	// WalkSimple picks uniformly among all lattice neighbours.
	WalkSimple WalkType = iota

	// WalkNoImmediateReturn never steps straight back to the previous site.
	WalkNoImmediateReturn
)

// GridType selects the lattice a walk runs on.
type GridType int

const (
	GridSquare GridType = iota
	GridTriangular
	GridHexagonal
)

// SequenceKind selects how bucket sizes progress.
type SequenceKind int

const (
	SequenceArithmetic SequenceKind = iota
	SequenceGeometric
)

// WalkTypes lists every walk type in display order.
var WalkTypes = []WalkType{WalkSimple, WalkNoImmediateReturn}

// GridTypes lists every grid type in display order.
var GridTypes = []GridType{GridSquare, GridTriangular, GridHexagonal}

// SequenceKinds lists every sequence kind in display order.
var SequenceKinds = []SequenceKind{SequenceArithmetic, SequenceGeometric}

func (w WalkType) String() string {
	switch w {
	case WalkSimple:
		return "Simple"
	case WalkNoImmediateReturn:
		return "No Immediate Returns"
	}
	return fmt.Sprintf("WalkType(%d)", int(w))
}

func (g GridType) String() string {
	switch g {
	case GridSquare:
		return "Square"
	case GridTriangular:
		return "Triangular"
	case GridHexagonal:
		return "Hexagonal"
	}
	return fmt.Sprintf("GridType(%d)", int(g))
}

func (s SequenceKind) String() string {
	switch s {
	case SequenceArithmetic:
		return "Arithmetic"
	case SequenceGeometric:
		return "Geometric"
	}
	return fmt.Sprintf("SequenceKind(%d)", int(s))
}

// Valid reports whether w is a known walk type.
func (w WalkType) Valid() bool { return w == WalkSimple || w == WalkNoImmediateReturn }

// Valid reports whether g is a known grid type.
func (g GridType) Valid() bool { return g >= GridSquare && g <= GridHexagonal }

// Valid reports whether s is a known sequence kind.
func (s SequenceKind) Valid() bool { return s == SequenceArithmetic || s == SequenceGeometric }

// ParseWalkType accepts a walk type name (case-insensitive) or its numeric code.
func ParseWalkType(s string) (WalkType, error) {
	switch normalize(s) {
	case "0", "simple":
		return WalkSimple, nil
	case "1", "noreturns", "noimmediatereturn", "noimmediatereturns":
		return WalkNoImmediateReturn, nil
	}
	return 0, fmt.Errorf("unknown walk type %q", s)
}

// ParseGridType accepts a grid type name (case-insensitive) or its numeric code.
func ParseGridType(s string) (GridType, error) {
	switch normalize(s) {
	case "0", "square":
		return GridSquare, nil
	case "1", "triangular":
		return GridTriangular, nil
	case "2", "hexagonal", "honeycomb":
		return GridHexagonal, nil
	}
	return 0, fmt.Errorf("unknown grid type %q", s)
}

// ParseSequenceKind accepts a sequence kind name (case-insensitive) or its numeric code.
func ParseSequenceKind(s string) (SequenceKind, error) {
	switch normalize(s) {
	case "0", "arithmetic":
		return SequenceArithmetic, nil
	case "1", "geometric":
		return SequenceGeometric, nil
	}
	return 0, fmt.Errorf("unknown sequence kind %q", s)
}

// normalize folds case and drops spaces, dashes and underscores so that
// "No Immediate Returns", "no_immediate_return" and "NoReturns" compare equal.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

func (w WalkType) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *WalkType) UnmarshalText(b []byte) error {
	v, err := ParseWalkType(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

func (w *WalkType) UnmarshalYAML(n *yaml.Node) error { return w.UnmarshalText([]byte(n.Value)) }

func (g GridType) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *GridType) UnmarshalText(b []byte) error {
	v, err := ParseGridType(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

func (g *GridType) UnmarshalYAML(n *yaml.Node) error { return g.UnmarshalText([]byte(n.Value)) }

func (s SequenceKind) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SequenceKind) UnmarshalText(b []byte) error {
	v, err := ParseSequenceKind(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s *SequenceKind) UnmarshalYAML(n *yaml.Node) error { return s.UnmarshalText([]byte(n.Value)) }
