package pm4

import "fmt"

// Space is a register aperture addressed by one SET_*_REG packet type.
type Space uint8

const (
	// SpaceNone is any address no SET_*_REG packet can reach.
	SpaceNone Space = iota
	// SpaceSh holds persistent shader registers (SET_SH_REG).
	SpaceSh
	// SpaceContext holds per-context graphics registers (SET_CONTEXT_REG).
	SpaceContext
	// SpaceUConfig holds user-config registers (SET_UCONFIG_REG).
	SpaceUConfig
)

// Register apertures, as [start, end) DWORD addresses.
const (
	ShRegStart      = 0x2C00
	ShRegEnd        = 0x3000
	ContextRegStart = 0xA000
	ContextRegEnd   = 0xA400
	UConfigRegStart = 0xC000
	UConfigRegEnd   = 0x10000

	// ContextRegCount is the number of registers in the context aperture.
	ContextRegCount = ContextRegEnd - ContextRegStart
)

// SpaceOf returns the aperture reg belongs to.
func SpaceOf(reg uint32) Space {
	switch {
	case reg >= ShRegStart && reg < ShRegEnd:
		return SpaceSh
	case reg >= ContextRegStart && reg < ContextRegEnd:
		return SpaceContext
	case reg >= UConfigRegStart && reg < UConfigRegEnd:
		return SpaceUConfig
	default:
		return SpaceNone
	}
}

// Base returns the first address of the aperture.
func (s Space) Base() uint32 {
	switch s {
	case SpaceSh:
		return ShRegStart
	case SpaceContext:
		return ContextRegStart
	case SpaceUConfig:
		return UConfigRegStart
	default:
		return 0
	}
}

// SetOpcode returns the opcode that writes registers of this aperture.
func (s Space) SetOpcode() Opcode {
	switch s {
	case SpaceSh:
		return OpSetShReg
	case SpaceContext:
		return OpSetContextReg
	case SpaceUConfig:
		return OpSetUConfigReg
	default:
		return OpNop
	}
}

// String returns the aperture name.
func (s Space) String() string {
	switch s {
	case SpaceSh:
		return "sh"
	case SpaceContext:
		return "context"
	case SpaceUConfig:
		return "uconfig"
	default:
		return "none"
	}
}

// Compute shader registers.
const (
	ComputeNumThreadX     uint32 = 0x2E07
	ComputeNumThreadY     uint32 = 0x2E08
	ComputeNumThreadZ     uint32 = 0x2E09
	ComputePgmLo          uint32 = 0x2E0C
	ComputePgmHi          uint32 = 0x2E0D
	ComputePgmRsrc1       uint32 = 0x2E12
	ComputePgmRsrc2       uint32 = 0x2E13
	ComputeResourceLimits uint32 = 0x2E15
	ComputePgmRsrc3       uint32 = 0x2E2D
	ComputeUserData0      uint32 = 0x2E40

	// ComputeUserDataCount is the number of COMPUTE_USER_DATA_n registers.
	ComputeUserDataCount = 16
)

// COMPUTE_RESOURCE_LIMITS fields.
const (
	WavesPerShShift = 0
	WavesPerShMask  = 0x3FF << WavesPerShShift
	TgPerCuShift    = 12
	TgPerCuMask     = 0xF << TgPerCuShift
	LockThreshShift = 16
	LockThreshMask  = 0x3F << LockThreshShift
)

// Context registers touched by draw-time validation.
const (
	PaScVportScissor0TL uint32 = 0xA094
	PaScVportScissor0BR uint32 = 0xA095
	DbDfsmControl       uint32 = 0xA0E6
	CbColor0DccControl  uint32 = 0xA31E

	// ScissorRegStride is the distance between consecutive viewport scissors.
	ScissorRegStride = 2
	// CbColorRegStride is the distance between consecutive CB_COLORn blocks.
	CbColorRegStride = 0xF
	// MaxViewports is the number of hardware viewport scissors.
	MaxViewports = 16
	// MaxColorTargets is the number of CB_COLORn blocks.
	MaxColorTargets = 8
)

// Context register fields.
const (
	DccOverwriteCombinerDisable uint32 = 1 << 0 // CB_COLORn_DCC_CONTROL
	DfsmPopsDrainPsOnOverlap    uint32 = 1 << 2 // DB_DFSM_CONTROL

	ScissorXMask               uint32 = 0x7FFF
	ScissorYShift                     = 16
	ScissorWindowOffsetDisable uint32 = 1 << 31
)

// CbColorDccControl returns the DCC control register of color target slot.
func CbColorDccControl(slot int) uint32 {
	return CbColor0DccControl + uint32(slot)*CbColorRegStride
}

// ScissorTL returns the top-left scissor register of viewport vp.
func ScissorTL(vp int) uint32 {
	return PaScVportScissor0TL + uint32(vp)*ScissorRegStride
}

var regNames = map[uint32]string{
	ComputeNumThreadX:     "COMPUTE_NUM_THREAD_X",
	ComputeNumThreadY:     "COMPUTE_NUM_THREAD_Y",
	ComputeNumThreadZ:     "COMPUTE_NUM_THREAD_Z",
	ComputePgmLo:          "COMPUTE_PGM_LO",
	ComputePgmHi:          "COMPUTE_PGM_HI",
	ComputePgmRsrc1:       "COMPUTE_PGM_RSRC1",
	ComputePgmRsrc2:       "COMPUTE_PGM_RSRC2",
	ComputeResourceLimits: "COMPUTE_RESOURCE_LIMITS",
	ComputePgmRsrc3:       "COMPUTE_PGM_RSRC3",
	DbDfsmControl:         "DB_DFSM_CONTROL",
}

// RegName returns the register mnemonic of reg, or its hex address.
func RegName(reg uint32) string {
	if name, ok := regNames[reg]; ok {
		return name
	}
	switch {
	case reg >= ComputeUserData0 && reg < ComputeUserData0+ComputeUserDataCount:
		return fmt.Sprintf("COMPUTE_USER_DATA_%d", reg-ComputeUserData0)
	case reg >= PaScVportScissor0TL && reg < PaScVportScissor0TL+MaxViewports*ScissorRegStride:
		n := (reg - PaScVportScissor0TL) / ScissorRegStride
		if (reg-PaScVportScissor0TL)%ScissorRegStride == 0 {
			return fmt.Sprintf("PA_SC_VPORT_SCISSOR_%d_TL", n)
		}
		return fmt.Sprintf("PA_SC_VPORT_SCISSOR_%d_BR", n)
	case reg >= CbColor0DccControl && reg < CbColor0DccControl+MaxColorTargets*CbColorRegStride &&
		(reg-CbColor0DccControl)%CbColorRegStride == 0:
		return fmt.Sprintf("CB_COLOR%d_DCC_CONTROL", (reg-CbColor0DccControl)/CbColorRegStride)
	}
	return fmt.Sprintf("0x%04X", reg)
}

// EventType is the EVENT_TYPE field of an EVENT_WRITE packet.
type EventType uint8

// Event types.
const (
	EventCsPartialFlush   EventType = 0x07
	EventVsPartialFlush   EventType = 0x0F
	EventPsPartialFlush   EventType = 0x10
	EventVgtFlush         EventType = 0x24
	EventResetToLowestVgt EventType = 0x3D
)

// eventIndex returns the EVENT_INDEX the command processor expects for e.
func eventIndex(e EventType) uint32 {
	switch e {
	case EventCsPartialFlush, EventVsPartialFlush, EventPsPartialFlush:
		return 4
	default:
		return 0
	}
}

// String returns the event mnemonic.
func (e EventType) String() string {
	switch e {
	case EventCsPartialFlush:
		return "CS_PARTIAL_FLUSH"
	case EventVsPartialFlush:
		return "VS_PARTIAL_FLUSH"
	case EventPsPartialFlush:
		return "PS_PARTIAL_FLUSH"
	case EventVgtFlush:
		return "VGT_FLUSH"
	case EventResetToLowestVgt:
		return "RESET_TO_LOWEST_VGT"
	default:
		return fmt.Sprintf("EVENT_0x%02X", uint8(e))
	}
}
