package store

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/zjrosen/airdate/internal/pubsub"
)

// Wildcard is the path whose observers receive every notification.
const Wildcard = pubsub.Wildcard

// Default history labels used when the caller passes an empty label.
const (
	LabelInit  = "init"
	LabelLoad  = "load"
	LabelBatch = "batch"
)

// Logger is the logging sink the store reports contained failures to.
// log.Sink satisfies it.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Observer receives a change notification. For deletions newValue is nil;
// for computed paths newValue is nil and the value must be re-read with Get.
type Observer = pubsub.Callback

// Update is one write in a Batch.
type Update struct {
	Path  string
	Value any
}

// Change is the payload of the asynchronous change feed.
// Values are shared with observers and must be treated as read-only.
type Change struct {
	Path     string
	NewValue any
	OldValue any
}

// Option configures a Store.
type Option func(*Store)

// WithPersistence sets the backend snapshots are saved to and loaded from.
func WithPersistence(p Persistence) Option {
	return func(s *Store) { s.persistence = p }
}

// WithLogger sets the logging sink. The default discards everything.
func WithLogger(l Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxHistorySize bounds the number of history entries kept.
func WithMaxHistorySize(n int) Option {
	return func(s *Store) { s.maxHistory = n }
}

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is a key-path store with computed values, synchronous observers,
// snapshot undo/redo and best-effort persistence.
//
// A Store is not safe for concurrent use. Use Changes to observe it from
// another goroutine.
type Store struct {
	raw         map[string]any
	computed    *computedRegistry
	bus         *pubsub.Bus
	history     *history
	persistence Persistence
	logger      Logger
	maxHistory  int
	now         func() time.Time
	restoring   bool
	feed        *pubsub.Broker[Change]
}

// New creates an empty store and records its initial history entry.
func New(opts ...Option) *Store {
	s := &Store{
		raw:        make(map[string]any),
		logger:     nopLogger{},
		maxHistory: DefaultMaxHistorySize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.bus = pubsub.NewBus(func(path string, recovered any) {
		oerr := &ObserverError{Path: path, Recovered: recovered}
		s.logger.Error("observer failed", "path", path, "error", oerr.Error())
	})
	s.computed = newComputedRegistry(s.bus.Notify, s.logger)
	s.history = newHistory(s.maxHistory)
	s.history.record(s.snapshot(), LabelInit, s.now())
	return s
}

// Set stores value at path. Writing a value equal to the current one is a
// no-op. The value is deep-copied in, so later changes by the caller do not
// reach the store.
func (s *Store) Set(path string, value any, label string) error {
	if err := s.checkWritable(path); err != nil {
		return fmt.Errorf("set: %w", err)
	}

	old, existed := s.raw[path]
	if existed && equalValues(old, value) {
		s.adopt(path, old, value)
		return nil
	}

	s.raw[path] = deepClone(value)
	s.logger.Debug("set", "path", path, "label", label)

	s.computed.invalidate(path)
	s.bus.Notify(path, value, old)

	if label == "" {
		label = "set " + path
	}
	s.commit(label)
	return nil
}

// Get returns the value at path: the computed result for a computed path,
// otherwise a copy of the raw value, or nil when absent. Computed results
// are shared with the cache and must not be modified.
func (s *Store) Get(path string) any {
	if s.computed.has(path) {
		return s.computed.resolve(path, s)
	}
	return deepClone(s.raw[path])
}

// GetAs returns the value at path asserted to T.
func GetAs[T any](r Reader, path string) (T, bool) {
	v, ok := r.Get(path).(T)
	return v, ok
}

// Has reports whether path holds a raw value or is registered as computed.
func (s *Store) Has(path string) bool {
	if s.computed.has(path) {
		return true
	}
	_, ok := s.raw[path]
	return ok
}

// Delete removes a raw entry. It returns false when the path is absent or
// computed.
func (s *Store) Delete(path string, label string) bool {
	if s.computed.has(path) {
		return false
	}
	old, ok := s.raw[path]
	if !ok {
		return false
	}

	delete(s.raw, path)
	s.logger.Debug("delete", "path", path, "label", label)

	s.computed.invalidate(path)
	s.bus.Notify(path, nil, old)

	if label == "" {
		label = "delete " + path
	}
	s.commit(label)
	return true
}

// Batch applies every update, then invalidates and notifies once per changed
// path in input order, then records one history entry and saves once.
// If any path is invalid nothing is applied. Updates equal to the current
// value are skipped; a batch that changes nothing records nothing.
func (s *Store) Batch(updates []Update, label string) error {
	for _, u := range updates {
		if err := s.checkWritable(u.Path); err != nil {
			return fmt.Errorf("batch: %w", err)
		}
	}

	type applied struct {
		path     string
		newValue any
		oldValue any
		existed  bool
	}
	var changed []applied
	position := make(map[string]int)

	for _, u := range updates {
		if i, seen := position[u.Path]; seen {
			// Repeated path: last write wins, notified at its first position.
			s.raw[u.Path] = deepClone(u.Value)
			changed[i].newValue = u.Value
			continue
		}

		old, existed := s.raw[u.Path]
		if existed && equalValues(old, u.Value) {
			s.adopt(u.Path, old, u.Value)
			continue
		}
		s.raw[u.Path] = deepClone(u.Value)
		position[u.Path] = len(changed)
		changed = append(changed, applied{path: u.Path, newValue: u.Value, oldValue: old, existed: existed})
	}

	// A path written and then written back ends where it started.
	changed = slices.DeleteFunc(changed, func(c applied) bool {
		if c.existed && equalValues(c.oldValue, c.newValue) {
			s.adopt(c.path, c.oldValue, c.newValue)
			return true
		}
		return false
	})
	if len(changed) == 0 {
		return nil
	}

	paths := make([]string, len(changed))
	for i, c := range changed {
		paths[i] = c.path
	}
	s.logger.Debug("batch", "paths", paths, "label", label)

	s.computed.invalidate(paths...)
	for _, c := range changed {
		s.bus.Notify(c.path, c.newValue, c.oldValue)
	}

	if label == "" {
		label = LabelBatch
	}
	s.commit(label)
	return nil
}

// Subscribe registers observer for path, or for every path with Wildcard.
// Path observers run before wildcard observers. The returned function
// unsubscribes.
func (s *Store) Subscribe(path string, observer Observer) func() {
	return s.bus.Subscribe(path, observer)
}

// RegisterComputed declares a derived value at path recomputed from getter
// whenever one of deps changes. Recomputation is lazy; observers of path are
// notified as soon as a dependency changes.
func (s *Store) RegisterComputed(path string, getter Getter, deps []string) error {
	if path == "" {
		return fmt.Errorf("register computed: %w", ErrEmptyPath)
	}
	if getter == nil {
		return fmt.Errorf("register computed %q: %w", path, ErrNilGetter)
	}
	if _, ok := s.raw[path]; ok {
		return fmt.Errorf("register computed %q: %w", path, ErrPathExists)
	}
	return s.computed.register(path, getter, deps)
}

// Undo restores the previous history entry. It returns false when there is
// nothing to undo.
func (s *Store) Undo() bool {
	snap, ok := s.history.undo()
	if !ok {
		return false
	}
	s.logger.Info("undo", "index", s.history.index)
	s.restore(snap)
	s.persist()
	return true
}

// Redo re-applies the next history entry. It returns false when there is
// nothing to redo.
func (s *Store) Redo() bool {
	snap, ok := s.history.redo()
	if !ok {
		return false
	}
	s.logger.Info("redo", "index", s.history.index)
	s.restore(snap)
	s.persist()
	return true
}

// CanUndo reports whether Undo would succeed.
func (s *Store) CanUndo() bool { return s.history.canUndo() }

// CanRedo reports whether Redo would succeed.
func (s *Store) CanRedo() bool { return s.history.canRedo() }

// HistoryInfo summarizes the undo stack.
func (s *Store) HistoryInfo() HistoryInfo { return s.history.info() }

// History lists the recorded entries, oldest first.
func (s *Store) History() []EntryInfo { return s.history.list() }

// Load replaces the raw entries with the persisted snapshot and restarts
// history from it. It returns false when there is no backend, nothing is
// stored, or loading failed.
func (s *Store) Load(ctx context.Context) bool {
	if s.persistence == nil {
		return false
	}

	var snap Snapshot
	err := s.guard("load", func() error {
		var err error
		snap, err = s.persistence.Load(ctx)
		return err
	})
	if err != nil || snap == nil {
		return false
	}

	for _, path := range snap.Paths() {
		if s.computed.has(path) || path == "" {
			s.logger.Warn("dropping persisted entry for non-raw path", "path", path)
			delete(snap, path)
		}
	}

	s.restore(snap)
	s.history.reset(s.snapshot(), LabelLoad, s.now())
	s.logger.Info("loaded snapshot", "entries", len(snap))
	return true
}

// ClearPersisted removes the stored snapshot. In-memory state is untouched.
func (s *Store) ClearPersisted(ctx context.Context) {
	if s.persistence == nil {
		return
	}
	_ = s.guard("clear", func() error { return s.persistence.Clear(ctx) })
}

// GetAll returns a deep copy of every raw entry.
func (s *Store) GetAll() map[string]any {
	return s.snapshot()
}

// Changes returns a channel receiving every notification the store emits,
// for consumers on other goroutines. The channel closes when ctx is done or
// the store is closed. Slow consumers miss events rather than blocking the
// store.
func (s *Store) Changes(ctx context.Context) <-chan pubsub.Event[Change] {
	if s.feed == nil {
		s.feed = pubsub.NewBroker[Change]()
		s.bus.Subscribe(Wildcard, func(newValue, oldValue any, path string) {
			eventType := pubsub.UpdatedEvent
			switch {
			case s.restoring:
				eventType = pubsub.RestoredEvent
			case newValue == nil && !s.Has(path):
				eventType = pubsub.DeletedEvent
			}
			s.feed.Publish(eventType, Change{Path: path, NewValue: newValue, OldValue: oldValue})
		})
	}
	return s.feed.Subscribe(ctx)
}

// ComputedInfo counts the computed paths and the state of their cache.
type ComputedInfo struct {
	Registered int
	Cached     int
	Dirty      int
}

// ComputedInfo reports how many computed paths are registered, how many have
// a cached value and how many will recompute on their next read.
func (s *Store) ComputedInfo() ComputedInfo {
	return s.computed.info()
}

// Close releases the change feed and the computed cache.
func (s *Store) Close() {
	if s.feed != nil {
		s.feed.Close()
	}
	s.computed.cache.Flush()
}

// adopt keeps an equal write without recording it. When the representation
// differs (an int over a loaded float64) the caller's form is stored and
// dependents are recomputed on their next read, with no notification.
func (s *Store) adopt(path string, old, value any) {
	if reflect.DeepEqual(old, value) {
		return
	}
	s.raw[path] = deepClone(value)
	s.computed.markDirty(path)
}

func (s *Store) checkWritable(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if s.computed.has(path) {
		return fmt.Errorf("%q: %w", path, ErrComputedPath)
	}
	return nil
}

// snapshot deep-copies the raw entries.
func (s *Store) snapshot() Snapshot {
	return Snapshot(s.raw).Clone()
}

// commit records history and persists unless a restore is being applied.
func (s *Store) commit(label string) {
	if s.restoring {
		return
	}
	s.history.record(s.snapshot(), label, s.now())
	s.persist()
}

func (s *Store) persist() {
	if s.persistence == nil || s.restoring {
		return
	}
	snap := s.snapshot()
	_ = s.guard("save", func() error {
		return s.persistence.Save(context.Background(), snap)
	})
}

// restore replaces the raw map with a copy of target and notifies every
// path present in target, then every path that target removed. History and
// persistence are suppressed for the duration.
func (s *Store) restore(target Snapshot) {
	s.restoring = true
	defer func() { s.restoring = false }()

	prev := s.raw
	s.raw = target.Clone()
	s.computed.markAllDirty()

	present := target.Paths()
	var removed []string
	for _, path := range Snapshot(prev).Paths() {
		if _, ok := s.raw[path]; !ok {
			removed = append(removed, path)
		}
	}

	s.computed.invalidate(slices.Concat(present, removed)...)
	for _, path := range present {
		s.bus.Notify(path, deepClone(s.raw[path]), prev[path])
	}
	for _, path := range removed {
		s.bus.Notify(path, nil, prev[path])
	}
}

// guard runs a persistence call, converting errors and panics into a
// logged PersistenceError.
func (s *Store) guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
		if err != nil {
			perr := &PersistenceError{Op: op, Err: err}
			s.logger.Error("persistence failed", "op", op, "error", perr.Error())
			err = perr
		}
	}()
	return fn()
}
