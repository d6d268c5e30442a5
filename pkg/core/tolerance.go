package core

import (
	"fmt"
	"math"
	"strings"
)

// Unit is the unit of a mass tolerance.
type Unit int

const (
	Dalton Unit = iota
	PPM
)

func (u Unit) String() string {
	if u == PPM {
		return "ppm"
	}
	return "Da"
}

// ParseUnit parses "ppm" or "Da" (case-insensitive).
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ppm":
		return PPM, nil
	case "da", "dalton", "th":
		return Dalton, nil
	default:
		return Dalton, fmt.Errorf("unknown tolerance unit '%s', must be ppm or Da", s)
	}
}

// Tolerance is a mass tolerance, absolute or relative to the reference mass.
type Tolerance struct {
	Value float64
	Unit  Unit
}

// IsPPM reports whether the tolerance is relative.
func (t Tolerance) IsPPM() bool {
	return t.Unit == PPM
}

// Window returns the absolute half-width around ref.
func (t Tolerance) Window(ref float64) float64 {
	if t.Unit == PPM {
		return ref * t.Value * 1e-6
	}
	return t.Value
}

// Within reports whether obs lies within the tolerance of ref.
func (t Tolerance) Within(ref, obs float64) bool {
	return math.Abs(ref-obs) <= t.Window(ref)
}

func (t Tolerance) String() string {
	return fmt.Sprintf("%g %s", t.Value, t.Unit)
}
