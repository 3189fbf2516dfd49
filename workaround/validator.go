package workaround

import (
	"context"
	"log/slog"

	"github.com/gogpu/gpucmd"
	"github.com/gogpu/gpucmd/chip"
	"github.com/gogpu/gpucmd/pm4"
)

// Upper bounds of what each predicate may emit, in DWORDs.
const (
	overwriteCombinerDwords = pm4.MaxColorTargets * pm4.ContextRegRmwDwords
	drainPsDwords           = pm4.ContextRegRmwDwords
	fastLaunchDwords        = pm4.EventWriteDwords
	scissorDwords           = pm4.HeaderDwords + 2*pm4.MaxViewports
)

// Validator evaluates the draw-time workarounds of one device. It holds no
// per-draw state and may be shared by command buffers of the same device.
type Validator struct {
	caps   chip.Caps
	extent uint32
}

// New returns a validator for the revision described by caps.
func New(caps chip.Caps) *Validator {
	v := &Validator{caps: caps, extent: caps.MaxScissorExtent}
	if v.extent == 0 || v.extent > pm4.ScissorXMask {
		v.extent = pm4.ScissorXMask
	}
	gpucmd.Logger().Debug("workaround: validator created",
		"revision", caps.Name,
		"workarounds", caps.Workarounds.String())
	return v
}

// MaxCommandSize returns the largest number of DWORDs PreDraw can emit.
func (v *Validator) MaxCommandSize() int {
	return overwriteCombinerDwords + drainPsDwords + fastLaunchDwords + scissorDwords
}

// PreDraw writes the workaround packets the draw described by snap and
// flags needs and returns the advanced cursor. space must hold at least
// MaxCommandSize DWORDs.
func (v *Validator) PreDraw(space []uint32, snap *Snapshot, flags DrawFlags) []uint32 {
	start := len(space)

	var w writer
	if flags.Has(Pm4Optimized) {
		w.opt = snap.Optimizer
	}

	if flags.Has(StateDirty) {
		space = v.overwriteCombiner(space, snap, w)
		space = v.drainPsOnOverlap(space, snap, w)
	}
	space = v.fastLaunchReset(space, snap)

	// Must stay last: nothing may write context registers between the
	// scissors and the draw packet.
	if flags.Has(StateDirty) {
		space = v.scissors(space, snap, w)
	}

	if log := gpucmd.Logger(); log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("workaround: pre-draw",
			"revision", v.caps.Name,
			"flags", flags.String(),
			"indirect", flags.Has(Indirect),
			"dwords", start-len(space))
	}
	return space
}

// overwriteCombiner sets or clears CB_COLORn_DCC_CONTROL.OVERWRITE_COMBINER_DISABLE
// on every bound color target.
func (v *Validator) overwriteCombiner(space []uint32, snap *Snapshot, w writer) []uint32 {
	logicOpWa := v.caps.Workarounds.Has(chip.WaLogicOpDisablesOverwriteCombiner)
	rotatedWa := v.caps.Workarounds.Has(chip.WaRotatedSwizzleDisablesOverwriteCombiner)
	if !logicOpWa && !rotatedWa {
		return space
	}
	if !snap.Dirty.Any(DirtyPipeline | DirtyColorTargetView | DirtyColorBlend) {
		return space
	}

	rop3 := logicOpWa && snap.Pipeline != nil && snap.Pipeline.LogicOp != LogicOpCopy
	for slot, ct := range snap.ColorTargets[:min(len(snap.ColorTargets), pm4.MaxColorTargets)] {
		if ct == nil {
			continue
		}
		var data uint32
		if (rop3 || snap.blendEnabled(slot)) && ct.Samples > 1 && ct.HasDcc {
			data = pm4.DccOverwriteCombinerDisable
		} else if rotatedWa && ct.Swizzle.IsRotated() {
			data = pm4.DccOverwriteCombinerDisable
		}
		space = w.rmw(space, pm4.CbColorDccControl(slot), pm4.DccOverwriteCombinerDisable, data)
	}
	return space
}

// drainPsOnOverlap sets DB_DFSM_CONTROL.POPS_DRAIN_PS_ON_OVERLAP for
// raster-order-view shaders on targets with 8 or more samples.
func (v *Validator) drainPsOnOverlap(space []uint32, snap *Snapshot, w writer) []uint32 {
	if !v.caps.Workarounds.Has(chip.WaDrainPsOnOverlap) || snap.Pipeline == nil || !snap.Pipeline.PsUsesRov {
		return space
	}
	drain := snap.Multisample != nil && snap.Multisample.Count >= 8
	if snap.DepthTarget != nil && snap.DepthTarget.Samples >= 8 {
		drain = true
	}
	if !drain {
		return space
	}
	return w.rmw(space, pm4.DbDfsmControl, pm4.DfsmPopsDrainPsOnOverlap, pm4.DfsmPopsDrainPsOnOverlap)
}

// fastLaunchReset resets the VGT distribution before every fast-launch
// draw; the ping-pong distribution mode hangs on them.
func (v *Validator) fastLaunchReset(space []uint32, snap *Snapshot) []uint32 {
	if snap.Pipeline == nil || !snap.Pipeline.NggFastLaunch {
		return space
	}
	return pm4.EventWrite(space, pm4.EventResetToLowestVgt, pm4.ShaderGraphics)
}

// scissors rewrites the viewport scissors when the scissor or viewport
// state changed.
func (v *Validator) scissors(space []uint32, snap *Snapshot, w writer) []uint32 {
	if !snap.Dirty.Any(DirtyScissor|DirtyViewport) || len(snap.Scissors) == 0 {
		return space
	}
	var regs [2 * pm4.MaxViewports]uint32
	n := min(len(snap.Scissors), pm4.MaxViewports)
	for i, r := range snap.Scissors[:n] {
		regs[2*i], regs[2*i+1] = v.scissorRegs(r)
	}
	return w.setSeq(space, pm4.PaScVportScissor0TL, regs[:2*n])
}

// scissorRegs encodes r as PA_SC_VPORT_SCISSOR_n_TL/BR, clamped to the
// scissor extent of the device.
func (v *Validator) scissorRegs(r Rect) (tl, br uint32) {
	ext := uint64(v.extent)
	x0 := min(uint64(r.X), ext)
	y0 := min(uint64(r.Y), ext)
	x1 := min(uint64(r.X)+uint64(r.Width), ext)
	y1 := min(uint64(r.Y)+uint64(r.Height), ext)
	tl = uint32(x0) | uint32(y0)<<pm4.ScissorYShift | pm4.ScissorWindowOffsetDisable
	br = uint32(x1) | uint32(y1)<<pm4.ScissorYShift
	return tl, br
}

// writer emits context register writes, through the optimizer when one is
// set.
type writer struct {
	opt *pm4.Optimizer
}

func (w writer) rmw(space []uint32, reg, mask, data uint32) []uint32 {
	if w.opt != nil {
		return w.opt.ContextRegRmw(space, reg, mask, data)
	}
	return pm4.ContextRegRmw(space, reg, mask, data)
}

func (w writer) setSeq(space []uint32, first uint32, values []uint32) []uint32 {
	if w.opt != nil {
		return w.opt.SetSeqContextRegs(space, first, values)
	}
	return pm4.SetSeqRegs(space, first, values, pm4.ShaderGraphics)
}
