package store

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxHistorySize bounds the undo stack when no option is given.
const DefaultMaxHistorySize = 50

// HistoryEntry is one recorded state of the raw entries.
type HistoryEntry struct {
	ID        uuid.UUID
	Snapshot  Snapshot
	Timestamp time.Time
	Label     string
}

// HistoryInfo summarizes the undo stack.
type HistoryInfo struct {
	CanUndo      bool `json:"can_undo"`
	CanRedo      bool `json:"can_redo"`
	CurrentIndex int  `json:"current_index"`
	Size         int  `json:"size"`
}

// EntryInfo describes a history entry without its snapshot.
type EntryInfo struct {
	ID        uuid.UUID
	Label     string
	Timestamp time.Time
	Current   bool
}

// history is a bounded list of snapshots with a cursor. Entries after the
// cursor form the redo tail and are discarded by the next record.
type history struct {
	entries []HistoryEntry
	index   int
	max     int
}

func newHistory(max int) *history {
	if max < 1 {
		max = DefaultMaxHistorySize
	}
	return &history{index: -1, max: max}
}

func (h *history) canUndo() bool { return h.index > 0 }

func (h *history) canRedo() bool { return h.index < len(h.entries)-1 }

// record appends snap as the new current entry. snap must not be aliased.
func (h *history) record(snap Snapshot, label string, ts time.Time) {
	if h.canRedo() {
		h.entries = slices.Delete(h.entries, h.index+1, len(h.entries))
	}

	h.entries = append(h.entries, HistoryEntry{
		ID:        uuid.New(),
		Snapshot:  snap,
		Timestamp: ts,
		Label:     label,
	})

	if len(h.entries) > h.max {
		h.entries = slices.Delete(h.entries, 0, 1)
		h.index = len(h.entries) - 1
		return
	}
	h.index++
}

// undo moves the cursor back and returns the snapshot to restore.
func (h *history) undo() (Snapshot, bool) {
	if !h.canUndo() {
		return nil, false
	}
	h.index--
	return h.entries[h.index].Snapshot, true
}

// redo moves the cursor forward and returns the snapshot to restore.
func (h *history) redo() (Snapshot, bool) {
	if !h.canRedo() {
		return nil, false
	}
	h.index++
	return h.entries[h.index].Snapshot, true
}

// reset discards every entry and starts over from snap.
func (h *history) reset(snap Snapshot, label string, ts time.Time) {
	h.entries = nil
	h.index = -1
	h.record(snap, label, ts)
}

func (h *history) info() HistoryInfo {
	return HistoryInfo{
		CanUndo:      h.canUndo(),
		CanRedo:      h.canRedo(),
		CurrentIndex: h.index,
		Size:         len(h.entries),
	}
}

func (h *history) list() []EntryInfo {
	out := make([]EntryInfo, len(h.entries))
	for i, e := range h.entries {
		out[i] = EntryInfo{
			ID:        e.ID,
			Label:     e.Label,
			Timestamp: e.Timestamp,
			Current:   i == h.index,
		}
	}
	return out
}
