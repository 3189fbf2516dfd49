package workaround

import "strings"

// DrawFlags describe the draw being validated.
type DrawFlags uint8

const (
	// Indirect marks a draw whose counts are read from GPU memory.
	Indirect DrawFlags = 1 << iota

	// StateDirty reports that render state changed since the last validated
	// draw. Without it only the fast-launch reset can fire.
	StateDirty

	// Pm4Optimized filters context register writes through the snapshot's
	// optimizer so that redundant writes are dropped.
	Pm4Optimized
)

var drawFlagNames = [...]string{"Indirect", "StateDirty", "Pm4Optimized"}

// Has reports whether all bits of f are set.
func (d DrawFlags) Has(f DrawFlags) bool {
	return d&f == f
}

// String returns the set flags joined by "|".
func (d DrawFlags) String() string {
	if d == 0 {
		return "None"
	}
	var parts []string
	for i, name := range drawFlagNames {
		if d&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// Dirty records which parts of the render state were rebound since the last
// validated draw.
type Dirty uint8

const (
	DirtyPipeline Dirty = 1 << iota
	DirtyColorTargetView
	DirtyColorBlend
	DirtyScissor
	DirtyViewport
)

// Any reports whether any bit of f is set.
func (d Dirty) Any(f Dirty) bool {
	return d&f != 0
}
