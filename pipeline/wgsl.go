package pipeline

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/gpucmd/pm4"
)

// MetadataFromWGSL derives the thread group registers of a compute pipeline
// from WGSL source. entry selects the entry point by name; an empty entry
// selects the first compute entry point.
//
// Only the @workgroup_size of the entry point is consulted: the returned
// metadata carries COMPUTE_NUM_THREAD_X/Y/Z and the caller adds the program
// registers produced by its shader compiler.
func MetadataFromWGSL(src, entry string) (*Metadata, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, fmt.Errorf("pipeline: lower: %w", err)
	}

	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		if ep.Stage != ir.StageCompute || (entry != "" && ep.Name != entry) {
			continue
		}
		meta := &Metadata{Name: ep.Name}
		for axis, reg := range [3]uint32{pm4.ComputeNumThreadX, pm4.ComputeNumThreadY, pm4.ComputeNumThreadZ} {
			meta.Set(reg, max(ep.Workgroup[axis], 1))
		}
		return meta, nil
	}
	if entry != "" {
		return nil, fmt.Errorf("%w: %q", ErrNoComputeEntryPoint, entry)
	}
	return nil, ErrNoComputeEntryPoint
}
