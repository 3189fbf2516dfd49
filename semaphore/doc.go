// Package semaphore provides queue semaphores: kernel-backed objects that
// order GPU work across queues, devices and processes.
//
// A Semaphore is either Binary, counting signals that waits consume, or
// Timeline, carrying a 64-bit value that only increases. Both share one
// type and one Backend interface; the kernel API lives in the adapters:
//
//   - halfence: binary semaphores over github.com/gogpu/wgpu/hal devices.
//   - futex: binary and timeline semaphores over shared memfd pages (Linux).
//
// Signal and Wait are GPU-side: they enqueue work on a queue and return
// immediately. QueryValue, WaitValue and SignalValue act from the host and
// are only valid on timeline semaphores.
//
// Backends that cannot create a signaled binary object get one emulated:
// the first Wait after creation is skipped instead of issuing a kernel wait.
package semaphore
