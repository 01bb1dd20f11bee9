package store

import (
	"context"
	"maps"
	"slices"
)

// Snapshot is a deep copy of every raw entry, keyed by path. On the wire it
// is a flat JSON object.
type Snapshot map[string]any

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = deepClone(v)
	}
	return out
}

// Paths returns the snapshot's paths in sorted order.
func (s Snapshot) Paths() []string {
	return slices.Sorted(maps.Keys(s))
}

// Persistence stores and retrieves whole snapshots. The store calls Save
// after every committed mutation and treats every failure as non-fatal.
// Implementations must not retain or modify the snapshot passed to Save.
type Persistence interface {
	Save(ctx context.Context, snap Snapshot) error
	// Load returns nil, nil when nothing has been stored.
	Load(ctx context.Context) (Snapshot, error)
	Clear(ctx context.Context) error
}
