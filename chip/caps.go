// Package chip describes the per-revision hardware capabilities consulted by
// the command-image builder and the draw-time workaround validator.
//
// Each supported chip revision has exactly one [Caps] record. Code that needs
// to behave differently on different hardware reads a documented field of the
// resolved record instead of checking chip identity.
package chip

import (
	"fmt"
	"strings"
)

// Family is the graphics IP generation of a chip revision.
type Family uint8

const (
	// FamilyGfx9 covers Vega class hardware.
	FamilyGfx9 Family = iota + 9
	// FamilyGfx10 covers Navi class hardware.
	FamilyGfx10
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyGfx9:
		return "gfx9"
	case FamilyGfx10:
		return "gfx10"
	default:
		return fmt.Sprintf("Family(%d)", uint8(f))
	}
}

// Workarounds is a bit set of hardware workarounds a revision requires.
type Workarounds uint32

const (
	// WaLogicOpDisablesOverwriteCombiner disables the DCC overwrite combiner
	// on MSAA targets while blending or a non-copy logic op is active.
	WaLogicOpDisablesOverwriteCombiner Workarounds = 1 << iota

	// WaRotatedSwizzleDisablesOverwriteCombiner disables the DCC overwrite
	// combiner on targets using a rotated swizzle mode.
	WaRotatedSwizzleDisablesOverwriteCombiner

	// WaDrainPsOnOverlap drains overlapping pixel shader waves for
	// raster-ordered views on high sample count targets.
	WaDrainPsOnOverlap
)

var workaroundNames = [...]string{
	"LogicOpDisablesOverwriteCombiner",
	"RotatedSwizzleDisablesOverwriteCombiner",
	"DrainPsOnOverlap",
}

// Has reports whether every workaround in f is enabled.
func (w Workarounds) Has(f Workarounds) bool {
	return w&f == f
}

// String returns the enabled workaround names joined by '|'.
func (w Workarounds) String() string {
	if w == 0 {
		return "None"
	}
	var names []string
	for i, name := range workaroundNames {
		if w&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if rest := w &^ (1<<len(workaroundNames) - 1); rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(names, "|")
}

// Caps is the resolved, read-only capability record of one chip revision.
// A Caps value may be shared between goroutines once resolved.
type Caps struct {
	// Name is the revision name (e.g. "vega10").
	Name string

	// Family is the graphics IP generation.
	Family Family

	// DeviceIDs lists the PCI device ids of this revision.
	DeviceIDs []uint32

	// Shader topology.
	NumShaderEngines uint32
	NumShPerSe       uint32
	NumCuPerSh       uint32
	NumSimdPerCu     uint32
	NumWavesPerSimd  uint32

	// MaxWavesPerShField is the largest value the WAVES_PER_SH field of
	// COMPUTE_RESOURCE_LIMITS can hold.
	MaxWavesPerShField uint32

	// MaxThreadGroupsPerCuField is the largest value of the TG_PER_CU field.
	MaxThreadGroupsPerCuField uint32

	// MaxScissorExtent is the exclusive upper bound of scissor coordinates.
	MaxScissorExtent uint32

	// Workarounds enabled for this revision.
	Workarounds Workarounds
}

// WavesPerCu returns the number of wave slots in one compute unit.
func (c *Caps) WavesPerCu() uint32 {
	return c.NumSimdPerCu * c.NumWavesPerSimd
}

// WavesPerSh returns the number of wave slots in one shader array.
func (c *Caps) WavesPerSh() uint32 {
	return c.WavesPerCu() * c.NumCuPerSh
}

// Option adjusts a capability record, typically from driver settings.
type Option func(*Caps)

// WithWorkarounds enables additional workarounds.
func WithWorkarounds(w Workarounds) Option {
	return func(c *Caps) {
		c.Workarounds |= w
	}
}

// WithoutWorkarounds disables workarounds, e.g. when a setting turns one off.
func WithoutWorkarounds(w Workarounds) Option {
	return func(c *Caps) {
		c.Workarounds &^= w
	}
}

// With returns a copy of c with opts applied. c is not modified.
func (c Caps) With(opts ...Option) Caps {
	c.DeviceIDs = append([]uint32(nil), c.DeviceIDs...)
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
