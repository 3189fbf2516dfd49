package pm4

import (
	"fmt"
	"strings"
)

// Packet is one decoded type-3 packet.
type Packet struct {
	// Offset is the DWORD offset of the header within the decoded stream.
	Offset int
	Header Header
	// Body holds the DWORDs following the header.
	Body []uint32
}

// RegWrite is one register assignment carried by a SET_*_REG packet.
type RegWrite struct {
	Reg   uint32
	Value uint32
}

// Decode splits dwords into packets.
func Decode(dwords []uint32) ([]Packet, error) {
	var packets []Packet
	for off := 0; off < len(dwords); {
		hdr, ok := ParseHeader(dwords[off])
		if !ok {
			return packets, fmt.Errorf("%w: 0x%08X at dword %d", ErrNotType3, dwords[off], off)
		}
		end := off + hdr.Size()
		if end > len(dwords) {
			return packets, fmt.Errorf("%w: %s at dword %d needs %d dwords, %d left",
				ErrTruncated, hdr.Opcode, off, hdr.Size(), len(dwords)-off)
		}
		packets = append(packets, Packet{Offset: off, Header: hdr, Body: dwords[off+1 : end]})
		off = end
	}
	return packets, nil
}

// Size returns the packet size in DWORDs.
func (p Packet) Size() int {
	return p.Header.Size()
}

// Regs returns the register writes of a SET_*_REG packet, or nil.
func (p Packet) Regs() []RegWrite {
	var base uint32
	switch p.Header.Opcode {
	case OpSetShReg:
		base = ShRegStart
	case OpSetContextReg:
		base = ContextRegStart
	case OpSetUConfigReg:
		base = UConfigRegStart
	default:
		return nil
	}
	first := base + p.Body[0]
	writes := make([]RegWrite, 0, len(p.Body)-1)
	for i, v := range p.Body[1:] {
		writes = append(writes, RegWrite{Reg: first + uint32(i), Value: v})
	}
	return writes
}

// String formats the packet for dumps.
func (p Packet) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d %s", p.Offset, p.Header.Opcode)
	switch p.Header.Opcode {
	case OpSetShReg, OpSetContextReg, OpSetUConfigReg:
		for _, w := range p.Regs() {
			fmt.Fprintf(&b, " %s=0x%08X", RegName(w.Reg), w.Value)
		}
	case OpContextRegRmw:
		if len(p.Body) < 3 {
			break
		}
		fmt.Fprintf(&b, " %s mask=0x%08X data=0x%08X",
			RegName(ContextRegStart+p.Body[0]), p.Body[1], p.Body[2])
	case OpEventWrite:
		fmt.Fprintf(&b, " %s", EventType(p.Body[0]&0x3F))
	default:
		fmt.Fprintf(&b, " (%d dwords)", p.Size())
	}
	return b.String()
}
