// Package sync provides synchronization primitives for cooperatively
// scheduled tasks: Mutex, RwLock, Condvar, Barrier, Once, OnceLock and
// LazyLock.
//
// Unlike the standard library, blocking operations suspend the calling
// task instead of the calling OS thread. A suspended task is recorded on
// the primitive's wait list and woken by the releasing task; the wakeup
// transfers ownership of the awaited resource, so a woken task never has
// to re-attempt acquisition. Wait lists are FIFO, except for the RwLock
// writer-priority policy.
//
// All blocking operations accept a context.Context. Cancelling the
// context abandons the wait: the task's wait-list entry is removed, or,
// when a wakeup already committed the resource to the task, the resource
// is released again before the operation returns the context error.
//
// Suspension integrates with a scheduler through the Parker carried in
// the context (see WithParker). Without one, the calling goroutine
// simply blocks and the Go runtime schedules around it.
package sync
