// Package gpucmd is the command-submission and synchronization core of a
// GPU hardware-abstraction layer for AMD GFX9/GFX10 class hardware.
//
// # Overview
//
// gpucmd turns pipeline and draw state into PM4 register-write packets and
// orders work across independently scheduled hardware queues. Callers are
// graphics and compute API implementations that need hardware-exact command
// streams without re-deriving register layouts themselves.
//
// # Architecture
//
// The module is organized into:
//   - chip: one capability record per chip revision (topology, workarounds)
//   - pm4: packet headers, register spaces, packet writers, command streams
//   - pipeline: compute pipeline command images, built once and copied per bind,
//     plus a bounded per-device image cache
//   - workaround: draw-time validator emitting corrective register writes
//   - semaphore: binary and timeline queue semaphores over a kernel backend
//   - semaphore/halfence, semaphore/futex: backend adapters
//   - cmd/pm4dump: builds a compute image from WGSL and prints its packets
//
// # Data Flow
//
//	pipeline creation -> pipeline.New (image built once)
//	bind              -> ComputePipeline.WriteCommands (copy + dynamic patch)
//	draw              -> workaround.Validator.PreDraw (conditional patches)
//	submit            -> semaphores order dependent submissions across queues
//
// # Logging
//
// gpucmd produces no log output by default. Call [SetLogger] to enable it.
package gpucmd

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
