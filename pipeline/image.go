package pipeline

import (
	"cmp"
	"slices"

	"github.com/gogpu/gpucmd/pm4"
)

// CommandImage is an immutable, prebuilt sequence of PM4 packets.
type CommandImage struct {
	dwords  []uint32
	packets int
}

// isDynamic reports whether reg is patched per bind instead of being part of
// the fixed image.
func isDynamic(reg uint32) bool {
	return reg == pm4.ComputeResourceLimits
}

// Build assembles the fixed command image of meta, which must have passed
// Validate. Registers are sorted by address and every maximal run of
// contiguous addresses within one aperture becomes a single SET_*_REG
// packet. Registers patched per bind are left out.
func Build(meta *Metadata) CommandImage {
	writes := slices.DeleteFunc(meta.writes(), func(w pm4.RegWrite) bool {
		return isDynamic(w.Reg)
	})
	slices.SortFunc(writes, func(a, b pm4.RegWrite) int {
		return cmp.Compare(a.Reg, b.Reg)
	})

	runs := splitRuns(writes)
	size := 0
	for _, r := range runs {
		size += pm4.SetSeqRegsDwords(len(r))
	}

	img := CommandImage{dwords: make([]uint32, size), packets: len(runs)}
	space := img.dwords
	values := make([]uint32, 0, len(writes))
	for _, r := range runs {
		values = values[:0]
		for _, w := range r {
			values = append(values, w.Value)
		}
		space = pm4.SetSeqRegs(space, r[0].Reg, values, pm4.ShaderCompute)
	}
	return img
}

// splitRuns cuts sorted writes into maximal runs of contiguous addresses
// that stay within one aperture.
func splitRuns(writes []pm4.RegWrite) [][]pm4.RegWrite {
	var runs [][]pm4.RegWrite
	start := 0
	for i := 1; i <= len(writes); i++ {
		if i < len(writes) &&
			writes[i].Reg == writes[i-1].Reg+1 &&
			pm4.SpaceOf(writes[i].Reg) == pm4.SpaceOf(writes[start].Reg) {
			continue
		}
		if i > start {
			runs = append(runs, writes[start:i])
		}
		start = i
	}
	return runs
}

// Size returns the image size in DWORDs.
func (img CommandImage) Size() int {
	return len(img.dwords)
}

// PacketCount returns the number of packets in the image.
func (img CommandImage) PacketCount() int {
	return img.packets
}

// Dwords returns the image contents. The slice must not be modified.
func (img CommandImage) Dwords() []uint32 {
	return img.dwords
}

// Packets decodes the image.
func (img CommandImage) Packets() []pm4.Packet {
	// Build only emits well-formed packets.
	packets, _ := pm4.Decode(img.dwords)
	return packets
}

// WriteTo copies the image to the cursor and returns the advanced cursor.
func (img CommandImage) WriteTo(space []uint32) []uint32 {
	n := copy(space[:len(img.dwords)], img.dwords)
	return space[n:]
}
