// Package workaround emits the corrective register writes some GPU
// revisions need immediately before a draw.
//
// A Validator is created once per command buffer from the capability record
// of the device. Before every draw the command buffer hands it a Snapshot of
// the bound render state and a cursor into its command stream:
//
//	v := workaround.New(caps)
//
//	space := stream.ReserveCommands()
//	space = v.PreDraw(space, &snap, workaround.StateDirty|workaround.Pm4Optimized)
//	space = writeDraw(space)
//	stream.CommitCommands(space)
//
// PreDraw evaluates, in order:
//
//  1. the DCC overwrite-combiner hazard of each bound color target,
//  2. the raster-order-view drain on MSAA targets with 8 or more samples,
//  3. the VGT reset required by NGG fast-launch pipelines,
//  4. scissor revalidation.
//
// Scissor revalidation is always emitted last so that no other context
// register write lands between it and the draw packet. The output depends
// only on the snapshot, the flags and the capability record.
package workaround
