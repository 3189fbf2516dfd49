package pm4

// Packet sizes in DWORDs.
const (
	SetOneRegDwords     = HeaderDwords + 1
	ContextRegRmwDwords = 4
	EventWriteDwords    = 2
)

// SetSeqRegsDwords returns the size of a packet writing n consecutive registers.
func SetSeqRegsDwords(n int) int {
	return HeaderDwords + n
}

// SetSeqRegs writes values to the consecutive registers starting at first
// with one SET_*_REG packet and returns the advanced cursor. All registers
// must lie in the aperture of first.
func SetSeqRegs(space []uint32, first uint32, values []uint32, st ShaderType) []uint32 {
	s := SpaceOf(first)
	n := SetSeqRegsDwords(len(values))
	space[0] = Type3Header(s.SetOpcode(), n, st)
	space[1] = first - s.Base()
	copy(space[HeaderDwords:n], values)
	return space[n:]
}

// SetOneReg writes a single register and returns the advanced cursor.
func SetOneReg(space []uint32, reg, value uint32, st ShaderType) []uint32 {
	s := SpaceOf(reg)
	space[0] = Type3Header(s.SetOpcode(), SetOneRegDwords, st)
	space[1] = reg - s.Base()
	space[2] = value
	return space[SetOneRegDwords:]
}

// ContextRegRmw writes a read-modify-write of a context register: the bits
// selected by mask are replaced by the matching bits of data.
func ContextRegRmw(space []uint32, reg, mask, data uint32) []uint32 {
	space[0] = Type3Header(OpContextRegRmw, ContextRegRmwDwords, ShaderGraphics)
	space[1] = reg - ContextRegStart
	space[2] = mask
	space[3] = data
	return space[ContextRegRmwDwords:]
}

// EventWrite writes a non-sample EVENT_WRITE and returns the advanced cursor.
func EventWrite(space []uint32, e EventType, st ShaderType) []uint32 {
	space[0] = Type3Header(OpEventWrite, EventWriteDwords, st)
	space[1] = uint32(e)&0x3F | eventIndex(e)<<8
	return space[EventWriteDwords:]
}

// Nop pads the stream with a NOP packet of n DWORDs (n >= 2).
func Nop(space []uint32, n int) []uint32 {
	space[0] = Type3Header(OpNop, n, ShaderGraphics)
	clear(space[1:n])
	return space[n:]
}
