package pipeline

import (
	"github.com/gogpu/gpucmd"
	"github.com/gogpu/gpucmd/chip"
	"github.com/gogpu/gpucmd/pm4"
)

// DynamicInfo carries per-dispatch occupancy limits.
// Zero fields leave the pipeline's own limits in place.
type DynamicInfo struct {
	// MaxWavesPerCu limits the waves a dispatch may keep in flight per CU.
	MaxWavesPerCu uint32

	// MaxThreadGroupsPerCu limits concurrent thread groups per CU.
	MaxThreadGroupsPerCu uint32
}

// dynamicImage is the SET_SH_REG packet of COMPUTE_RESOURCE_LIMITS.
type dynamicImage [pm4.SetOneRegDwords]uint32

// dynamicPatchDword is the index of the patched register value.
const dynamicPatchDword = 2

// ComputePipeline holds the prebuilt command images of a compute pipeline.
type ComputePipeline struct {
	name    string
	caps    chip.Caps
	image   CommandImage
	dynamic dynamicImage
	threads [3]uint32
}

// New validates meta and builds the command images of a compute pipeline.
func New(caps chip.Caps, meta *Metadata) (*ComputePipeline, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	p := &ComputePipeline{
		name:  meta.Name,
		caps:  caps,
		image: Build(meta),
	}
	limits, _ := meta.Lookup(pm4.ComputeResourceLimits)
	pm4.SetOneReg(p.dynamic[:], pm4.ComputeResourceLimits, limits, pm4.ShaderCompute)

	for i, reg := range [3]uint32{pm4.ComputeNumThreadX, pm4.ComputeNumThreadY, pm4.ComputeNumThreadZ} {
		p.threads[i], _ = meta.Lookup(reg)
	}

	gpucmd.Logger().Debug("pipeline: built compute image",
		"pipeline", p.name,
		"revision", caps.Name,
		"packets", p.image.PacketCount(),
		"dwords", p.CommandSize())
	return p, nil
}

// Image returns the fixed command image.
func (p *ComputePipeline) Image() CommandImage {
	return p.image
}

// ThreadsPerGroup returns the thread group dimensions.
func (p *ComputePipeline) ThreadsPerGroup() (x, y, z uint32) {
	return p.threads[0], p.threads[1], p.threads[2]
}

// CommandSize returns the DWORDs WriteCommands emits.
func (p *ComputePipeline) CommandSize() int {
	return p.image.Size() + len(p.dynamic)
}

// DynamicPatchRange returns the DWORD offset and length, relative to the
// cursor passed to WriteCommands, of the only data that depends on
// DynamicInfo.
func (p *ComputePipeline) DynamicPatchRange() (offset, length int) {
	return p.image.Size() + dynamicPatchDword, 1
}

// WriteCommands copies the pipeline's command images to the cursor,
// patching the resource limits from info, and returns the advanced cursor.
func (p *ComputePipeline) WriteCommands(space []uint32, info DynamicInfo) []uint32 {
	dyn := p.dynamic
	limits := dyn[dynamicPatchDword]
	if info.MaxWavesPerCu > 0 {
		waves := CalcMaxWavesPerSh(&p.caps, info.MaxWavesPerCu)
		limits = limits&^pm4.WavesPerShMask | waves<<pm4.WavesPerShShift
	}
	if info.MaxThreadGroupsPerCu > 0 {
		tg := min(info.MaxThreadGroupsPerCu, p.caps.MaxThreadGroupsPerCuField)
		limits = limits&^pm4.TgPerCuMask | tg<<pm4.TgPerCuShift
	}
	dyn[dynamicPatchDword] = limits

	space = p.image.WriteTo(space)
	n := copy(space[:len(dyn)], dyn[:])
	return space[n:]
}

// CalcMaxWavesPerSh converts a waves-per-CU limit into the WAVES_PER_SH
// field value. Zero means no limit. Requests above what the hardware can
// hold saturate at the hardware maximum.
func CalcMaxWavesPerSh(caps *chip.Caps, maxWavesPerCu uint32) uint32 {
	if maxWavesPerCu == 0 {
		return 0
	}
	perCu := min(maxWavesPerCu, caps.WavesPerCu())
	limit := min(caps.WavesPerSh(), caps.MaxWavesPerShField)
	return min(perCu*caps.NumCuPerSh, limit)
}
