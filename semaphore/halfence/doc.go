// Package halfence implements semaphore.Backend on github.com/gogpu/wgpu/hal
// devices.
//
// Objects are binary only and cannot be created signaled, so semaphores
// created with an initial count rely on skip-next-wait emulation. A GPU-side
// signal submits an empty batch to the signaling queue and records its
// submission index. A GPU-side wait gates the waiting Queue: its next Submit
// returns hal.ErrNotReady until the oldest unconsumed signal has retired.
// Signals queued behind such a wait are submitted, in order, by the Submit
// or Flush that gets past it.
//
// Shared handles are keys into a process-wide table; they are valid until
// imported once. A snapshot handle nobody imports is released when the
// exporting semaphore is destroyed.
package halfence
