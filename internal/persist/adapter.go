// Package persist saves store snapshots as a single JSON blob in a pluggable
// BlobStore: a file, a SQLite table or memory.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/airdate/internal/log"
	"github.com/zjrosen/airdate/internal/store"
	"github.com/zjrosen/airdate/internal/tracing"
)

// DefaultKey is the blob key used when none is configured.
const DefaultKey = "airdate-state"

// ErrNotFound is returned by a BlobStore when the key holds nothing.
var ErrNotFound = errors.New("persist: blob not found")

// BlobStore is a key-value store of opaque byte blobs.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	// UpdatedAt reports when key was last written, or ErrNotFound.
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
	// Name identifies the backend in logs and spans.
	Name() string
}

// Adapter implements store.Persistence on top of a BlobStore.
type Adapter struct {
	blobs  BlobStore
	key    string
	tracer trace.Tracer
}

var _ store.Persistence = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithTracer records a span around every call.
func WithTracer(t trace.Tracer) Option {
	return func(a *Adapter) { a.tracer = t }
}

// NewAdapter returns an Adapter storing snapshots in blobs.
func NewAdapter(blobs BlobStore, opts ...Option) *Adapter {
	a := &Adapter{blobs: blobs, key: DefaultKey}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the blob key snapshots are stored under.
func (a *Adapter) Key() string { return a.key }

// Backend names the underlying BlobStore.
func (a *Adapter) Backend() string { return a.blobs.Name() }

// LastSaved reports when the snapshot was last written. ok is false when
// nothing is stored.
func (a *Adapter) LastSaved(ctx context.Context) (ts time.Time, ok bool, err error) {
	ts, err = a.blobs.UpdatedAt(ctx, a.key)
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading %s timestamp for %q: %w", a.blobs.Name(), a.key, err)
	}
	return ts, true, nil
}

// Save encodes snap as a flat JSON object and writes it.
func (a *Adapter) Save(ctx context.Context, snap store.Snapshot) (err error) {
	ctx, span := a.start(ctx, tracing.SpanPersistSave, attribute.Int(tracing.AttrSnapshotPaths, len(snap)))
	defer func() { tracing.End(span, err) }()

	if snap == nil {
		snap = store.Snapshot{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	span.SetAttributes(attribute.Int(tracing.AttrSnapshotBytes, len(data)))

	if err := a.blobs.Set(ctx, a.key, data); err != nil {
		return fmt.Errorf("writing %s blob %q: %w", a.blobs.Name(), a.key, err)
	}
	log.Debug(log.CatPersist, "Saved snapshot", "backend", a.blobs.Name(), "paths", len(snap), "bytes", len(data))
	return nil
}

// Load reads and decodes the stored snapshot. It returns nil, nil when
// nothing is stored.
func (a *Adapter) Load(ctx context.Context) (snap store.Snapshot, err error) {
	ctx, span := a.start(ctx, tracing.SpanPersistLoad)
	defer func() { tracing.End(span, err) }()

	data, err := a.blobs.Get(ctx, a.key)
	if errors.Is(err, ErrNotFound) {
		log.Debug(log.CatPersist, "No stored snapshot", "backend", a.blobs.Name(), "key", a.key)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s blob %q: %w", a.blobs.Name(), a.key, err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap == nil {
		// A stored "null" counts as empty state, not absent state.
		snap = store.Snapshot{}
	}
	span.SetAttributes(
		attribute.Int(tracing.AttrSnapshotPaths, len(snap)),
		attribute.Int(tracing.AttrSnapshotBytes, len(data)),
	)
	log.Debug(log.CatPersist, "Loaded snapshot", "backend", a.blobs.Name(), "paths", len(snap))
	return snap, nil
}

// Clear removes the stored snapshot. Clearing an empty backend succeeds.
func (a *Adapter) Clear(ctx context.Context) (err error) {
	ctx, span := a.start(ctx, tracing.SpanPersistClear)
	defer func() { tracing.End(span, err) }()

	if err := a.blobs.Remove(ctx, a.key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("removing %s blob %q: %w", a.blobs.Name(), a.key, err)
	}
	log.Info(log.CatPersist, "Cleared snapshot", "backend", a.blobs.Name(), "key", a.key)
	return nil
}

func (a *Adapter) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String(tracing.AttrStorageBackend, a.blobs.Name()),
		attribute.String(tracing.AttrStorageKey, a.key),
	)
	return tracing.Start(ctx, a.tracer, name, attrs...)
}
