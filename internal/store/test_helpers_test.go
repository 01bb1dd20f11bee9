package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"
)

// recordingLogger captures log lines for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) add(level, msg string, fields ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf("%s %s %v", level, msg, fields))
}

func (l *recordingLogger) Debug(msg string, fields ...any) { l.add("DEBUG", msg, fields...) }
func (l *recordingLogger) Info(msg string, fields ...any)  { l.add("INFO", msg, fields...) }
func (l *recordingLogger) Warn(msg string, fields ...any)  { l.add("WARN", msg, fields...) }
func (l *recordingLogger) Error(msg string, fields ...any) { l.add("ERROR", msg, fields...) }

func (l *recordingLogger) errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if len(e) >= 5 && e[:5] == "ERROR" {
			out = append(out, e)
		}
	}
	return out
}

// notification is one observed callback invocation.
type notification struct {
	Path     string
	NewValue any
	OldValue any
}

// recorder subscribes to a store and records every notification.
type recorder struct {
	got []notification
}

func record(s *Store, path string) *recorder {
	r := &recorder{}
	s.Subscribe(path, func(newValue, oldValue any, p string) {
		r.got = append(r.got, notification{Path: p, NewValue: newValue, OldValue: oldValue})
	})
	return r
}

func (r *recorder) paths() []string {
	out := make([]string, len(r.got))
	for i, n := range r.got {
		out[i] = n.Path
	}
	return out
}

// memoryPersistence keeps the last saved snapshot in memory.
type memoryPersistence struct {
	saved   Snapshot
	saves   int
	loadErr error
	saveErr error
}

func (m *memoryPersistence) Save(_ context.Context, snap Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.saved = snap.Clone()
	return nil
}

func (m *memoryPersistence) Load(context.Context) (Snapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.saved.Clone(), nil
}

func (m *memoryPersistence) Clear(context.Context) error {
	m.saved = nil
	return nil
}

// mockPersistence is a testify mock of Persistence.
type mockPersistence struct {
	mock.Mock
}

func (m *mockPersistence) Save(ctx context.Context, snap Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *mockPersistence) Load(ctx context.Context) (Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(Snapshot)
	return snap, args.Error(1)
}

func (m *mockPersistence) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
