package schedule

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/airdate/internal/persist"
	"github.com/zjrosen/airdate/internal/store"
)

var fixedNow = time.Date(2026, 3, 4, 19, 30, 0, 0, time.UTC) // a Wednesday

func newTestTracker(t *testing.T, opts ...store.Option) *Tracker {
	t.Helper()
	s := store.New(opts...)
	require.NoError(t, Register(s))

	n := 0
	return NewTracker(s,
		WithNow(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("show-%04d", n)
		}),
	)
}

func TestRegister_Twice(t *testing.T) {
	s := store.New()
	require.NoError(t, Register(s))
	require.ErrorIs(t, Register(s), store.ErrPathExists)
}

func TestTracker_AddAndViews(t *testing.T) {
	tr := newTestTracker(t)

	added, err := tr.Add(Show{Title: "Severance", Day: "Friday", AirTime: "21:00", TotalEpisodes: 10})
	require.NoError(t, err)
	require.Equal(t, "show-0001", added.ID)
	require.Equal(t, fixedNow, added.UpdatedAt)
	require.Equal(t, StatusPlanned, added.Status)

	_, err = tr.Add(Show{Title: "Andor"})
	require.NoError(t, err)

	require.Equal(t, []string{"Andor", "Severance"}, titles(tr.Filtered()))
	groups := tr.ByDay()
	require.Len(t, groups, 2)
	require.Equal(t, "fri", groups[0].Day)
	require.Equal(t, 2, tr.Stats().Total)

	_, err = tr.Add(Show{ID: "show-0001", Title: "Dup"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "id", verr.Field)

	_, err = tr.Add(Show{})
	require.ErrorAs(t, err, &verr)
}

func TestTracker_EachActionIsOneUndoStep(t *testing.T) {
	tr := newTestTracker(t)
	s := tr.Store()

	_, err := tr.Add(Show{Title: "Severance", TotalEpisodes: 2})
	require.NoError(t, err)
	_, err = tr.MarkWatched("Severance")
	require.NoError(t, err)
	require.NoError(t, tr.SetFilter("sev", StatusWatching))

	require.Equal(t, 4, s.HistoryInfo().Size, "init + add + watch + filter")

	require.True(t, s.Undo())
	q, status := tr.Filter()
	require.Empty(t, q)
	require.Empty(t, status)

	require.True(t, s.Undo())
	show, err := tr.Find("Severance")
	require.NoError(t, err)
	require.Equal(t, 0, show.Episode)

	require.True(t, s.Redo())
	require.Equal(t, 1, tr.Stats().EpisodesWatched)
}

func TestTracker_MarkWatched(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Add(Show{Title: "Shogun", TotalEpisodes: 2})
	require.NoError(t, err)

	show, err := tr.MarkWatched("shogun")
	require.NoError(t, err)
	require.Equal(t, 1, show.Episode)
	require.Equal(t, StatusWatching, show.Status, "planned becomes watching")

	show, err = tr.MarkWatched("show-0001")
	require.NoError(t, err)
	require.Equal(t, 2, show.Episode)
	require.Equal(t, StatusCompleted, show.Status)

	_, err = tr.MarkWatched("show-0001")
	require.ErrorIs(t, err, ErrAlreadyCompleted)

	_, err = tr.MarkWatched("nope")
	require.ErrorIs(t, err, ErrShowNotFound)
}

func TestTracker_UpdateAndRemove(t *testing.T) {
	tr := newTestTracker(t)
	show, err := tr.Add(Show{Title: "The Bear"})
	require.NoError(t, err)

	show.Network = "FX"
	show.Status = StatusWatching
	_, err = tr.Update(show)
	require.NoError(t, err)
	require.Equal(t, []string{"The Bear"}, titles(tr.Filtered()))
	require.Equal(t, 1, tr.Stats().ByStatus[StatusWatching])

	_, err = tr.Update(Show{ID: "missing", Title: "x"})
	require.ErrorIs(t, err, ErrShowNotFound)

	removed, err := tr.Remove("the bear")
	require.NoError(t, err)
	require.Equal(t, "FX", removed.Network)
	require.Empty(t, tr.Filtered())
	require.Zero(t, tr.Stats().Total)
}

func TestTracker_FindReferences(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Add(Show{Title: "One"})
	require.NoError(t, err)
	_, err = tr.Add(Show{Title: "Two"})
	require.NoError(t, err)

	show, err := tr.Find("show-0002")
	require.NoError(t, err)
	require.Equal(t, "Two", show.Title)

	_, err = tr.Find("show")
	require.ErrorIs(t, err, ErrAmbiguousShow)

	_, err = tr.Find("sho")
	require.ErrorIs(t, err, ErrShowNotFound, "prefixes shorter than four characters are not matched")

	_, err = tr.Find("")
	require.ErrorIs(t, err, ErrShowNotFound)
}

func TestTracker_SetFilter(t *testing.T) {
	tr := newTestTracker(t)
	for _, title := range []string{"The Bear", "Bear Grylls", "Andor"} {
		_, err := tr.Add(Show{Title: title})
		require.NoError(t, err)
	}

	var notified []string
	tr.Store().Subscribe(PathByDay, func(_, _ any, path string) { notified = append(notified, path) })

	require.NoError(t, tr.SetFilter("bear", ""))
	require.Equal(t, []string{"Bear Grylls", "The Bear"}, titles(tr.Filtered()))
	require.Equal(t, []string{PathByDay}, notified, "chained view notified once per batch")

	var verr *ValidationError
	require.ErrorAs(t, tr.SetFilter("", "binged"), &verr)
}

func TestTracker_Import(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Add(Show{Title: "Severance", Episode: 1})
	require.NoError(t, err)

	res, err := tr.Import([]Show{
		{Title: "severance", Episode: 5},
		{Title: "Andor", Day: "tue"},
	}, false)
	require.NoError(t, err)
	require.Equal(t, ImportResult{Added: 1, Updated: 1, Total: 2}, res)

	sev, err := tr.Find("Severance")
	require.NoError(t, err)
	require.Equal(t, "show-0001", sev.ID, "matched by title keeps the ID")
	require.Equal(t, 5, sev.Episode)
	require.Equal(t, 3, tr.Store().HistoryInfo().Size, "init + add + one import")

	res, err = tr.Import([]Show{{Title: "Only"}}, true)
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	require.Equal(t, []string{"Only"}, titles(tr.Filtered()))

	_, err = tr.Import([]Show{{Title: ""}}, false)
	require.Error(t, err)
	require.Equal(t, 4, tr.Store().HistoryInfo().Size, "failed import writes nothing")
}

func TestTracker_ImportParsedFileMergesByTitle(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Add(Show{Title: "Severance", TotalEpisodes: 10})
	require.NoError(t, err)
	_, err = tr.Add(Show{Title: "Andor"})
	require.NoError(t, err)

	incoming, err := ParseImport([]byte(`[
		{"title": "severance", "episode": 3, "total_episodes": 10},
		{"id": "from-elsewhere", "title": "ANDOR", "status": "watching"},
		{"title": "Arcane"}
	]`))
	require.NoError(t, err)

	res, err := tr.Import(incoming, false)
	require.NoError(t, err)
	require.Equal(t, ImportResult{Added: 1, Updated: 2, Total: 3}, res)

	sev, err := tr.Find("Severance")
	require.NoError(t, err)
	require.Equal(t, "show-0001", sev.ID)
	require.Equal(t, 3, sev.Episode)

	andor, err := tr.Find("Andor")
	require.NoError(t, err)
	require.Equal(t, "show-0002", andor.ID, "an unknown ID falls back to the title")
	require.Equal(t, StatusWatching, andor.Status)

	arcane, err := tr.Find("Arcane")
	require.NoError(t, err)
	require.Equal(t, "show-0003", arcane.ID, "added rows get a generated ID")
}

func TestTracker_PlanImportDoesNotWrite(t *testing.T) {
	tr := newTestTracker(t)
	next, res, err := tr.PlanImport([]Show{{Title: "Andor"}}, false)
	require.NoError(t, err)
	require.Len(t, next, 1)
	require.Equal(t, 1, res.Added)

	shows, err := tr.Shows()
	require.NoError(t, err)
	require.Empty(t, shows)
}

func TestTracker_ViewsAfterLoadFromJSON(t *testing.T) {
	blobs := persist.NewMemoryBlobStore()
	first := newTestTracker(t, store.WithPersistence(persist.NewAdapter(blobs)))
	_, err := first.Add(Show{Title: "Severance", Day: "fri", Season: 2, Episode: 3, TotalEpisodes: 10, Status: StatusWatching})
	require.NoError(t, err)
	require.NoError(t, first.SetFilter("sev", ""))

	second := newTestTracker(t, store.WithPersistence(persist.NewAdapter(blobs)))
	require.True(t, second.Store().Load(context.Background()))

	_, isGeneric := second.Store().Get(PathShows).([]any)
	require.True(t, isGeneric, "loaded value is generic JSON")

	filtered := second.Filtered()
	require.Len(t, filtered, 1)
	require.Equal(t, "Severance", filtered[0].Title)
	require.Equal(t, 3, filtered[0].Episode)
	require.True(t, fixedNow.Equal(filtered[0].UpdatedAt))
	require.Equal(t, 7, second.Stats().EpisodesRemaining)

	show, err := second.MarkWatched("Severance")
	require.NoError(t, err)
	require.Equal(t, 4, show.Episode)
}
