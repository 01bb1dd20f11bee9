package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/airdate/internal/pubsub"
)

func TestSet_StoresAndNotifies(t *testing.T) {
	s := New()
	rec := record(s, "a")

	require.NoError(t, s.Set("a", 1, "first"))

	require.Equal(t, 1, s.Get("a"))
	require.True(t, s.Has("a"))
	require.Equal(t, []notification{{Path: "a", NewValue: 1, OldValue: nil}}, rec.got)
}

func TestSet_SameValueIsNoop(t *testing.T) {
	p := &memoryPersistence{}
	s := New(WithPersistence(p))
	rec := record(s, Wildcard)

	require.NoError(t, s.Set("a", "x", ""))
	require.NoError(t, s.Set("a", "x", ""))

	require.Len(t, rec.got, 1, "second identical write notifies nobody")
	require.Equal(t, 2, s.HistoryInfo().Size, "init + one write")
	require.Equal(t, 1, p.saves)
}

func TestSet_EqualCompositeValueIsNoop(t *testing.T) {
	s := New()
	rec := record(s, "items")

	require.NoError(t, s.Set("items", []int{1, 2}, ""))
	require.NoError(t, s.Set("items", []int{1, 2}, ""))
	require.NoError(t, s.Set("items", []int{1, 3}, ""))

	require.Len(t, rec.got, 2)
}

func TestSet_CopiesValueIn(t *testing.T) {
	s := New()
	items := []map[string]any{{"qty": 1}}

	require.NoError(t, s.Set("items", items, ""))
	items[0]["qty"] = 99

	got := s.Get("items").([]map[string]any)
	require.Equal(t, 1, got[0]["qty"], "caller mutation must not reach the store")

	// Mutating and re-setting the caller's value is a real change.
	rec := record(s, "items")
	require.NoError(t, s.Set("items", items, ""))
	require.Len(t, rec.got, 1)
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("m", map[string]any{"k": "v"}, ""))

	got := s.Get("m").(map[string]any)
	got["k"] = "changed"

	require.Equal(t, map[string]any{"k": "v"}, s.Get("m"))
}

func TestGet_Missing(t *testing.T) {
	s := New()
	require.Nil(t, s.Get("missing"))
	require.False(t, s.Has("missing"))
}

func TestGetAs(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("n", 42, ""))

	n, ok := GetAs[int](s, "n")
	require.True(t, ok)
	require.Equal(t, 42, n)

	_, ok = GetAs[string](s, "n")
	require.False(t, ok)
}

func TestSet_RejectsInvalidPaths(t *testing.T) {
	s := New()
	require.NoError(t, s.RegisterComputed("c", func(Reader) (any, error) { return 1, nil }, nil))

	err := s.Set("", 1, "")
	require.ErrorIs(t, err, ErrEmptyPath)

	err = s.Set("c", 1, "")
	require.ErrorIs(t, err, ErrComputedPath)
	require.Equal(t, 1, s.Get("c"))
	require.Equal(t, 1, s.HistoryInfo().Size)
}

func TestDelete(t *testing.T) {
	p := &memoryPersistence{}
	s := New(WithPersistence(p))
	require.NoError(t, s.Set("a", 1, ""))
	rec := record(s, "a")

	require.False(t, s.Delete("missing", ""))
	require.True(t, s.Delete("a", "remove a"))
	require.False(t, s.Delete("a", ""), "already gone")

	require.False(t, s.Has("a"))
	require.Equal(t, []notification{{Path: "a", NewValue: nil, OldValue: 1}}, rec.got)
	require.Equal(t, 3, s.HistoryInfo().Size)
	require.Equal(t, 2, p.saves)
	require.NotContains(t, p.saved, "a")
}

func TestDelete_ComputedPath(t *testing.T) {
	s := New()
	require.NoError(t, s.RegisterComputed("c", func(Reader) (any, error) { return 1, nil }, nil))

	require.False(t, s.Delete("c", ""))
	require.True(t, s.Has("c"))
}

func TestBatch_OneHistoryEntryOneNotificationEach(t *testing.T) {
	p := &memoryPersistence{}
	s := New(WithPersistence(p))
	rec := record(s, Wildcard)

	require.NoError(t, s.Batch([]Update{{Path: "a", Value: 1}, {Path: "b", Value: 2}}, "label"))

	require.Equal(t, []string{"a", "b"}, rec.paths())
	info := s.HistoryInfo()
	require.Equal(t, 2, info.Size, "init + exactly one batch entry")
	require.Equal(t, "label", s.History()[1].Label)
	require.Equal(t, 1, p.saves)
}

func TestBatch_NotifiesInInputOrderAfterAllWrites(t *testing.T) {
	s := New()

	var seen []map[string]any
	s.Subscribe(Wildcard, func(_, _ any, _ string) {
		seen = append(seen, s.GetAll())
	})

	require.NoError(t, s.Batch([]Update{
		{Path: "z", Value: 1},
		{Path: "a", Value: 2},
		{Path: "m", Value: 3},
	}, ""))

	want := map[string]any{"z": 1, "a": 2, "m": 3}
	require.Len(t, seen, 3)
	for _, state := range seen {
		require.Equal(t, want, state, "every write is committed before the first notification")
	}
}

func TestBatch_SkipsUnchangedAndEmpty(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("a", 1, ""))
	rec := record(s, Wildcard)

	require.NoError(t, s.Batch([]Update{{Path: "a", Value: 1}}, ""))
	require.Empty(t, rec.got)
	require.Equal(t, 2, s.HistoryInfo().Size)

	require.NoError(t, s.Batch(nil, ""))
	require.Equal(t, 2, s.HistoryInfo().Size)

	require.NoError(t, s.Batch([]Update{{Path: "a", Value: 1}, {Path: "b", Value: 2}}, ""))
	require.Equal(t, []string{"b"}, rec.paths())
}

func TestBatch_WriteThenRevertIsNoOp(t *testing.T) {
	p := &memoryPersistence{}
	s := New(WithPersistence(p))
	require.NoError(t, s.Set("a", 1, ""))
	rec := record(s, Wildcard)
	saves := p.saves

	require.NoError(t, s.Batch([]Update{{Path: "a", Value: 2}, {Path: "a", Value: 1}}, ""))

	require.Empty(t, rec.got)
	require.Equal(t, 2, s.HistoryInfo().Size)
	require.Equal(t, saves, p.saves)
	require.Equal(t, 1, s.Get("a"))

	require.NoError(t, s.Batch([]Update{
		{Path: "a", Value: 2},
		{Path: "b", Value: 5},
		{Path: "a", Value: 1},
	}, ""))
	require.Equal(t, []string{"b"}, rec.paths(), "only the path that really changed")
	require.Equal(t, 3, s.HistoryInfo().Size)
}

func TestBatch_DuplicatePathLastWriteWins(t *testing.T) {
	s := New()
	rec := record(s, Wildcard)

	require.NoError(t, s.Batch([]Update{
		{Path: "a", Value: 1},
		{Path: "b", Value: 2},
		{Path: "a", Value: 3},
	}, ""))

	require.Equal(t, 3, s.Get("a"))
	require.Equal(t, []notification{
		{Path: "a", NewValue: 3, OldValue: nil},
		{Path: "b", NewValue: 2, OldValue: nil},
	}, rec.got)
}

func TestBatch_InvalidPathAppliesNothing(t *testing.T) {
	s := New()
	require.NoError(t, s.RegisterComputed("c", func(Reader) (any, error) { return nil, nil }, nil))

	err := s.Batch([]Update{{Path: "a", Value: 1}, {Path: "c", Value: 2}}, "")
	require.ErrorIs(t, err, ErrComputedPath)
	require.False(t, s.Has("a"))
}

func TestNotificationOrdering_PathBeforeWildcard(t *testing.T) {
	s := New()

	var order []string
	s.Subscribe(Wildcard, func(_, _ any, _ string) { order = append(order, "wildcard") })
	s.Subscribe("x", func(_, _ any, _ string) { order = append(order, "x") })

	require.NoError(t, s.Set("x", 1, ""))
	require.Equal(t, []string{"x", "wildcard"}, order)
}

func TestObserverPanic_IsContainedAndLogged(t *testing.T) {
	logger := &recordingLogger{}
	s := New(WithLogger(logger))

	calls := 0
	s.Subscribe("a", func(_, _ any, _ string) { panic("render failed") })
	s.Subscribe("a", func(_, _ any, _ string) { calls++ })
	s.Subscribe(Wildcard, func(_, _ any, _ string) { calls++ })

	require.NotPanics(t, func() { require.NoError(t, s.Set("a", 1, "")) })
	require.Equal(t, 2, calls)
	require.Equal(t, 1, s.Get("a"), "mutation stands")
	require.Len(t, logger.errors(), 1)
	require.Contains(t, logger.errors()[0], "observer failed")
}

func TestUnsubscribe(t *testing.T) {
	s := New()
	calls := 0
	unsub := s.Subscribe("a", func(_, _ any, _ string) { calls++ })

	require.NoError(t, s.Set("a", 1, ""))
	unsub()
	require.NoError(t, s.Set("a", 2, ""))

	require.Equal(t, 1, calls)
}

func TestReentrantWriteFromObserver_NestsHistory(t *testing.T) {
	s := New()
	s.Subscribe("a", func(newValue, _ any, _ string) {
		if newValue == 1 {
			require.NoError(t, s.Set("b", "derived", "from observer"))
		}
	})

	require.NoError(t, s.Set("a", 1, "outer"))

	labels := []string{}
	for _, e := range s.History() {
		labels = append(labels, e.Label)
	}
	require.Equal(t, []string{LabelInit, "from observer", "outer"}, labels)
	require.Equal(t, "derived", s.Get("b"))
}

func TestGetAll_DeepCopyRawOnly(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("a", map[string]any{"c": 2}, ""))
	require.NoError(t, s.RegisterComputed("total", func(Reader) (any, error) { return 1, nil }, []string{"a"}))

	all := s.GetAll()
	require.Equal(t, map[string]any{"a": map[string]any{"c": 2}}, all)

	all["a"].(map[string]any)["c"] = 100
	require.Equal(t, map[string]any{"c": 2}, s.Get("a"))
}

func TestChanges_Feed(t *testing.T) {
	s := New()
	t.Cleanup(s.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Changes(ctx)
	require.NoError(t, s.Set("a", 1, ""))
	require.True(t, s.Delete("a", ""))
	require.True(t, s.Undo())

	expect := []struct {
		typ  pubsub.EventType
		path string
	}{
		{pubsub.UpdatedEvent, "a"},
		{pubsub.DeletedEvent, "a"},
		{pubsub.RestoredEvent, "a"},
	}
	for _, want := range expect {
		select {
		case event := <-ch:
			require.Equal(t, want.typ, event.Type)
			require.Equal(t, want.path, event.Payload.Path)
		case <-time.After(time.Second):
			require.Fail(t, "timeout waiting for change event")
		}
	}
}

func TestChanges_ClosedWithStore(t *testing.T) {
	s := New()
	ch := s.Changes(context.Background())
	s.Close()

	_, ok := <-ch
	require.False(t, ok)
}

func TestWithMaxHistorySize_InvalidFallsBack(t *testing.T) {
	s := New(WithMaxHistorySize(0))
	for i := 0; i < DefaultMaxHistorySize+10; i++ {
		require.NoError(t, s.Set("n", i, ""))
	}
	require.Equal(t, DefaultMaxHistorySize, s.HistoryInfo().Size)
}

func TestErrorsWrap(t *testing.T) {
	cause := errors.New("disk full")

	perr := &PersistenceError{Op: "save", Err: cause}
	require.ErrorIs(t, perr, cause)
	require.Equal(t, "persistence save: disk full", perr.Error())

	cerr := &ComputationError{Path: "total", Err: cause}
	require.ErrorIs(t, cerr, cause)
	require.Contains(t, cerr.Error(), `"total"`)

	oerr := &ObserverError{Path: "a", Recovered: "boom"}
	require.Equal(t, `observer for "a" panicked: boom`, oerr.Error())
}

func TestEqualValues(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"same int", 1, 1, true},
		{"int over float", 1.0, 1, true},
		{"int64 over uint", uint(3), int64(3), true},
		{"negative over uint", uint(1), -1, false},
		{"fraction", 1.5, 1, false},
		{"nested generic", map[string]any{"a": []any{1.0, "x"}}, map[string]any{"a": []any{1, "x"}}, true},
		{"nested differs", map[string]any{"a": []any{1.0}}, map[string]any{"a": []any{2}}, false},
		{"missing key", map[string]any{"a": 1}, map[string]any{"b": 1}, false},
		{"string vs number", "1", 1, false},
		{"nil vs value", nil, 0, false},
		{"nil slice vs empty", []any(nil), []any{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, equalValues(tt.a, tt.b))
		})
	}
}

func TestSet_NumberOverLoadedFloatIsNoOp(t *testing.T) {
	p := &memoryPersistence{saved: Snapshot{"n": 2.0}}
	s := New(WithPersistence(p))
	require.NoError(t, s.RegisterComputed("double", func(r Reader) (any, error) {
		n, _ := GetAs[int](r, "n")
		return n * 2, nil
	}, []string{"n"}))
	require.True(t, s.Load(context.Background()))
	require.Equal(t, 0, s.Get("double"), "the loaded float64 is not an int")

	rec := record(s, Wildcard)
	saves := p.saves
	require.NoError(t, s.Set("n", 2, ""))

	require.Empty(t, rec.got)
	require.Equal(t, 1, s.HistoryInfo().Size)
	require.Equal(t, saves, p.saves)

	n, ok := GetAs[int](s, "n")
	require.True(t, ok, "the caller's representation is kept")
	require.Equal(t, 2, n)
	require.Equal(t, 4, s.Get("double"))
}
