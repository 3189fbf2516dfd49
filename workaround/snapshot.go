package workaround

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpucmd/pm4"
)

// LogicOp is the raster operation of the color output merger.
type LogicOp uint8

const (
	LogicOpCopy LogicOp = iota
	LogicOpClear
	LogicOpAnd
	LogicOpAndReverse
	LogicOpAndInverted
	LogicOpNoop
	LogicOpXor
	LogicOpOr
	LogicOpNor
	LogicOpEquiv
	LogicOpInvert
	LogicOpOrReverse
	LogicOpCopyInverted
	LogicOpOrInverted
	LogicOpNand
	LogicOpSet
)

// SwizzleMode is the tiling layout of an image surface, numbered like the
// hardware SW_MODE field.
type SwizzleMode uint8

const (
	SwizzleLinear SwizzleMode = 0
	Swizzle256BS  SwizzleMode = 1
	Swizzle256BD  SwizzleMode = 2
	Swizzle256BR  SwizzleMode = 3
	Swizzle4KbZ   SwizzleMode = 4
	Swizzle4KbS   SwizzleMode = 5
	Swizzle4KbD   SwizzleMode = 6
	Swizzle4KbR   SwizzleMode = 7
	Swizzle64KbZ  SwizzleMode = 8
	Swizzle64KbS  SwizzleMode = 9
	Swizzle64KbD  SwizzleMode = 10
	Swizzle64KbR  SwizzleMode = 11
	Swizzle64KbRT SwizzleMode = 19
	Swizzle4KbRX  SwizzleMode = 23
	Swizzle64KbRX SwizzleMode = 27
)

// IsRotated reports whether m is one of the rotated (_R) layouts.
func (m SwizzleMode) IsRotated() bool {
	return m < 32 && m&3 == 3
}

// PipelineInfo is the part of a bound graphics pipeline the validator reads.
type PipelineInfo struct {
	LogicOp LogicOp

	// PsUsesRov is set when the pixel shader uses raster-order views.
	PsUsesRov bool

	// NggFastLaunch is set when the pipeline runs its primitive shader in
	// fast-launch mode.
	NggFastLaunch bool
}

// ColorTarget is a color target view backed by an image.
type ColorTarget struct {
	Format  gputypes.TextureFormat
	Samples uint32
	HasDcc  bool
	Swizzle SwizzleMode
}

// DepthTarget is a depth-stencil view backed by an image.
type DepthTarget struct {
	Format  gputypes.TextureFormat
	Samples uint32
}

// Rect is a scissor rectangle in pixels.
type Rect struct {
	X, Y          uint32
	Width, Height uint32
}

// Snapshot is a read-only view of the render state bound at a draw. It is
// only valid for the duration of one PreDraw call. Nil fields mean the
// corresponding state is not bound.
type Snapshot struct {
	Pipeline *PipelineInfo

	// Blend is the bound color blend state, one entry per color target slot.
	// A slot blends when its Blend field is non-nil.
	Blend []gputypes.ColorTargetState

	Multisample *gputypes.MultisampleState

	// ColorTargets holds one entry per slot. Nil entries are unbound slots
	// or buffer views.
	ColorTargets []*ColorTarget

	DepthTarget *DepthTarget

	Dirty Dirty

	// Scissors holds the scissor of each active viewport.
	Scissors []Rect

	// Optimizer shadows the command stream's context registers. It is
	// consulted only for Pm4Optimized draws and may be nil otherwise.
	Optimizer *pm4.Optimizer
}

func (s *Snapshot) blendEnabled(slot int) bool {
	return slot < len(s.Blend) && s.Blend[slot].Blend != nil
}
