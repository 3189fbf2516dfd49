package pm4

import "fmt"

// Opcode is the IT_OPCODE field of a type-3 packet header.
type Opcode uint8

// Type-3 opcodes used by this module.
const (
	OpNop           Opcode = 0x10
	OpEventWrite    Opcode = 0x46
	OpContextRegRmw Opcode = 0x51
	OpSetContextReg Opcode = 0x69
	OpSetShReg      Opcode = 0x76
	OpSetUConfigReg Opcode = 0x79
)

// String returns the packet mnemonic.
func (op Opcode) String() string {
	switch op {
	case OpNop:
		return "NOP"
	case OpEventWrite:
		return "EVENT_WRITE"
	case OpContextRegRmw:
		return "CONTEXT_REG_RMW"
	case OpSetContextReg:
		return "SET_CONTEXT_REG"
	case OpSetShReg:
		return "SET_SH_REG"
	case OpSetUConfigReg:
		return "SET_UCONFIG_REG"
	default:
		return fmt.Sprintf("IT_0x%02X", uint8(op))
	}
}

// ShaderType selects the pipe a packet is processed by.
type ShaderType uint8

const (
	// ShaderGraphics routes the packet to the graphics pipe.
	ShaderGraphics ShaderType = 0
	// ShaderCompute routes the packet to the compute pipe.
	ShaderCompute ShaderType = 1
)

// Header field layout of a type-3 packet.
const (
	headerTypeShift  = 30
	headerCountShift = 16
	headerCountMask  = 0x3FFF
	headerOpShift    = 8
	headerShaderBit  = 1 << 1
	headerPredBit    = 1 << 0
	packetType3      = 3

	// HeaderDwords is the size of a type-3 header plus the register offset
	// DWORD that every SET_*_REG packet carries.
	HeaderDwords = 2
)

// MaxPacketDwords is the largest packet the COUNT field can describe.
const MaxPacketDwords = headerCountMask + 2

// Type3Header encodes the header of a packet whose total size, header
// included, is dwords.
func Type3Header(op Opcode, dwords int, st ShaderType) uint32 {
	h := uint32(packetType3)<<headerTypeShift |
		(uint32(dwords-2)&headerCountMask)<<headerCountShift |
		uint32(op)<<headerOpShift
	if st == ShaderCompute {
		h |= headerShaderBit
	}
	return h
}

// Header is a decoded type-3 packet header.
type Header struct {
	Opcode     Opcode
	Count      uint32
	ShaderType ShaderType
	Predicate  bool
}

// ParseHeader decodes h. It reports false if h is not a type-3 header.
func ParseHeader(h uint32) (Header, bool) {
	if h>>headerTypeShift != packetType3 {
		return Header{}, false
	}
	hdr := Header{
		Opcode:    Opcode(h >> headerOpShift),
		Count:     (h >> headerCountShift) & headerCountMask,
		Predicate: h&headerPredBit != 0,
	}
	if h&headerShaderBit != 0 {
		hdr.ShaderType = ShaderCompute
	}
	return hdr, true
}

// Size returns the total packet size in DWORDs, header included.
func (h Header) Size() int {
	return int(h.Count) + 2
}
