// Package futex implements semaphore.Backend on Linux with shared memory
// and futexes.
//
// Every object is a memfd page holding a 64-bit counter and a 32-bit
// sequence word that waiters sleep on. Timeline objects store their value
// in the counter; binary objects store the number of unconsumed signals.
// Exporting by reference duplicates the memfd, so any process mapping it
// observes the live state; exporting by value creates a new memfd holding
// a copy. A copy nobody imports is closed when the exporting semaphore is
// destroyed.
//
// GPU-side operations run on a Queue, an in-order worker that stalls on
// waits the way a hardware queue does.
package futex
