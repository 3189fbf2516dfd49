// Package pm4 encodes PM4 type-3 packets, the command format consumed by the
// GPU command processor.
//
// Writers in this package append one packet at a write cursor: the cursor is
// a []uint32 window obtained from a [Sink], and every writer returns the
// window advanced past the packet it wrote. Writing past the end of the
// window panics, so a component can never exceed the space it reserved.
//
//	space := sink.ReserveCommands()
//	space = pm4.SetOneReg(space, pm4.ComputeNumThreadX, 64, pm4.ShaderCompute)
//	space = pm4.EventWrite(space, pm4.EventCsPartialFlush, pm4.ShaderCompute)
//	sink.CommitCommands(space)
//
// Register addresses are DWORD addresses as listed in the GFX9/GFX10
// register headers.
package pm4
