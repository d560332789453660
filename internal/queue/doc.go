// Package queue implements the durable, capacity-bounded request queue.
//
// Two drivers share one contract (see Store):
//   - sqlite: embedded transactional store (default)
//   - file:   JSON entry list, atomically rewritten on every mutation
//
// Invariants:
//   - at most MaxSize entries are pending at any time
//   - ids increase monotonically and are never reused
//   - entries are never reordered
package queue
