// Package pipeline builds the PM4 command image that binds a compute
// pipeline.
//
// The image is assembled once, when the pipeline is created, and copied
// verbatim into the command stream on every bind. Only the resource-limit
// register lives in a separate dynamic image, patched on a stack copy for
// each bind, so binding never allocates and never rebuilds packets.
//
//	meta, _ := pipeline.MetadataFromWGSL(src, "main")
//	p, err := pipeline.New(caps, meta)
//	...
//	space := stream.ReserveCommands()
//	space = p.WriteCommands(space, pipeline.DynamicInfo{MaxWavesPerCu: 4})
//	stream.CommitCommands(space)
package pipeline
