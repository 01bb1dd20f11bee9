// Package store implements the reactive state core of airdate: a key-path
// store with declared-dependency computed values, synchronous observer
// fan-out, snapshot-based undo/redo and best-effort persistence.
//
// # Paths
//
// A path is an opaque string. It is either raw (written with Set, Batch and
// Delete) or computed (declared once with RegisterComputed), never both.
//
// # Mutation flow
//
//	Set/Batch/Delete
//	  → raw map updated (values deep-copied in)
//	  → computed dependents marked dirty, their observers notified
//	  → raw path observers notified, then wildcard observers
//	  → one history entry recorded
//	  → snapshot saved through Persistence
//
// Writing a value equal to the stored one does nothing at all.
//
// # Computed values
//
// Dependencies are declared explicitly. A getter that reads a path it did
// not declare will not be invalidated when that path changes. Computed paths
// may depend on other computed paths; invalidation follows those edges.
// Results are cached until a dependency changes and recomputed on the next
// Get. A getter error or panic is logged and Get returns nil.
//
// # History
//
// The store records an "init" entry on construction, so N undos after N
// mutations return to the starting state. Each entry is a full deep copy of
// the raw entries. Recording after an undo discards the redo tail. When the
// history exceeds its bound the oldest entry is evicted.
//
// Undo and Redo replace the raw map wholesale and notify every path present
// in the restored snapshot, then every path the snapshot removed (with a
// nil new value). While a snapshot is applied, writes from observers do not
// record history or save. The restored state is saved once afterwards.
//
// # Failure containment
//
// Observer panics, getter failures and persistence errors are logged through
// the injected Logger and never propagate to the caller of the mutation.
//
// # Concurrency
//
// A Store is single-threaded and synchronous. Observers may write to the
// store from inside a callback outside of a restore; such writes nest their
// own notifications and history entries.
package store
