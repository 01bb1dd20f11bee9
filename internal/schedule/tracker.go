package schedule

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/airdate/internal/store"
)

// Tracker is the show-list API over a store on which Register has been
// called. Every change is a single store write, so each action is one undo
// step.
type Tracker struct {
	store *store.Store
	now   func() time.Time
	newID func() string
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithNow overrides the clock used for UpdatedAt.
func WithNow(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator overrides how new show IDs are made.
func WithIDGenerator(gen func() string) TrackerOption {
	return func(t *Tracker) { t.newID = gen }
}

// NewTracker wraps s.
func NewTracker(s *store.Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store: s,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Store returns the underlying store.
func (t *Tracker) Store() *store.Store { return t.store }

// Shows returns every show in stored order.
func (t *Tracker) Shows() ([]Show, error) {
	return decodeShows(t.store.Get(PathShows))
}

// Filtered returns the shows matching the current filter.
func (t *Tracker) Filtered() []Show {
	shows, _ := store.GetAs[[]Show](t.store, PathFiltered)
	return shows
}

// ByDay returns the filtered shows grouped by weekday.
func (t *Tracker) ByDay() []DayGroup {
	groups, _ := store.GetAs[[]DayGroup](t.store, PathByDay)
	return groups
}

// Stats returns totals over every show.
func (t *Tracker) Stats() Stats {
	st, _ := store.GetAs[Stats](t.store, PathStats)
	return st
}

// Filter returns the current query and status filter.
func (t *Tracker) Filter() (string, Status) {
	query, _ := store.GetAs[string](t.store, PathFilterQuery)
	status, _ := store.GetAs[string](t.store, PathFilterStatus)
	return query, Status(status)
}

// Find resolves ref to a show: an exact ID, a unique ID prefix of at least
// four characters, or a case-insensitive title.
func (t *Tracker) Find(ref string) (Show, error) {
	shows, err := t.Shows()
	if err != nil {
		return Show{}, err
	}
	i, err := findIndex(shows, ref)
	if err != nil {
		return Show{}, err
	}
	return shows[i], nil
}

// Add normalizes show, assigns it an ID when it has none and appends it.
func (t *Tracker) Add(show Show) (Show, error) {
	show, err := Normalize(show)
	if err != nil {
		return Show{}, err
	}
	shows, err := t.Shows()
	if err != nil {
		return Show{}, err
	}

	if show.ID == "" {
		show.ID = t.newID()
	} else if slices.ContainsFunc(shows, func(s Show) bool { return s.ID == show.ID }) {
		return Show{}, &ValidationError{Field: "id", Reason: fmt.Sprintf("%q already exists", show.ID)}
	}
	show.UpdatedAt = t.now()

	next := append(slices.Clone(shows), show)
	if err := t.store.Set(PathShows, next, "add "+show.Title); err != nil {
		return Show{}, err
	}
	return show, nil
}

// Update replaces the show with the same ID.
func (t *Tracker) Update(show Show) (Show, error) {
	show, err := Normalize(show)
	if err != nil {
		return Show{}, err
	}
	shows, err := t.Shows()
	if err != nil {
		return Show{}, err
	}
	i := slices.IndexFunc(shows, func(s Show) bool { return s.ID == show.ID })
	if i < 0 {
		return Show{}, fmt.Errorf("%q: %w", show.ID, ErrShowNotFound)
	}

	show.UpdatedAt = t.now()
	next := slices.Clone(shows)
	next[i] = show
	if err := t.store.Set(PathShows, next, "update "+show.Title); err != nil {
		return Show{}, err
	}
	return show, nil
}

// Remove deletes the show ref resolves to.
func (t *Tracker) Remove(ref string) (Show, error) {
	shows, err := t.Shows()
	if err != nil {
		return Show{}, err
	}
	i, err := findIndex(shows, ref)
	if err != nil {
		return Show{}, err
	}

	removed := shows[i]
	next := slices.Delete(slices.Clone(shows), i, i+1)
	if err := t.store.Set(PathShows, next, "remove "+removed.Title); err != nil {
		return Show{}, err
	}
	return removed, nil
}

// MarkWatched advances the show's episode. A planned show becomes watching;
// reaching the episode total marks it completed.
func (t *Tracker) MarkWatched(ref string) (Show, error) {
	shows, err := t.Shows()
	if err != nil {
		return Show{}, err
	}
	i, err := findIndex(shows, ref)
	if err != nil {
		return Show{}, err
	}

	show := shows[i]
	if show.Status == StatusCompleted {
		return show, fmt.Errorf("%s: %w", show.Title, ErrAlreadyCompleted)
	}

	show.Episode++
	switch {
	case show.TotalEpisodes > 0 && show.Episode >= show.TotalEpisodes:
		show.Episode = show.TotalEpisodes
		show.Status = StatusCompleted
	case show.Status == StatusPlanned || show.Status == StatusDropped:
		show.Status = StatusWatching
	}
	show.UpdatedAt = t.now()

	next := slices.Clone(shows)
	next[i] = show
	if err := t.store.Set(PathShows, next, fmt.Sprintf("watch %s %s", show.Title, show.Progress())); err != nil {
		return Show{}, err
	}
	return show, nil
}

// SetFilter replaces the query and status filter in one step.
func (t *Tracker) SetFilter(query string, status Status) error {
	if status != "" && !status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}
	return t.store.Batch([]store.Update{
		{Path: PathFilterQuery, Value: query},
		{Path: PathFilterStatus, Value: string(status)},
	}, "filter")
}

// ImportResult counts what an import changed.
type ImportResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// Import merges shows into the list, matching existing shows by ID then by
// title; with replace the list is swapped wholesale. It is one undo step.
func (t *Tracker) Import(incoming []Show, replace bool) (ImportResult, error) {
	next, res, err := t.PlanImport(incoming, replace)
	if err != nil {
		return ImportResult{}, err
	}
	label := fmt.Sprintf("import %d shows", len(incoming))
	if err := t.store.Batch([]store.Update{{Path: PathShows, Value: next}}, label); err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// PlanImport computes the list Import would store without writing it.
func (t *Tracker) PlanImport(incoming []Show, replace bool) ([]Show, ImportResult, error) {
	var current []Show
	if !replace {
		var err error
		if current, err = t.Shows(); err != nil {
			return nil, ImportResult{}, err
		}
	}

	next := slices.Clone(current)
	var res ImportResult
	for _, in := range incoming {
		show, err := Normalize(in)
		if err != nil {
			return nil, ImportResult{}, fmt.Errorf("importing %q: %w", in.Title, err)
		}
		if show.UpdatedAt.IsZero() {
			show.UpdatedAt = t.now()
		}

		i := -1
		if show.ID != "" {
			i = slices.IndexFunc(next, func(s Show) bool { return s.ID == show.ID })
		}
		if i < 0 {
			i = slices.IndexFunc(next, func(s Show) bool { return strings.EqualFold(s.Title, show.Title) })
		}
		if i >= 0 {
			show.ID = next[i].ID
			next[i] = show
			res.Updated++
			continue
		}
		if show.ID == "" {
			show.ID = t.newID()
		}
		next = append(next, show)
		res.Added++
	}
	res.Total = len(next)
	return next, res, nil
}

func findIndex(shows []Show, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, fmt.Errorf("empty reference: %w", ErrShowNotFound)
	}

	if i := slices.IndexFunc(shows, func(s Show) bool { return s.ID == ref }); i >= 0 {
		return i, nil
	}

	var matches []int
	for i, s := range shows {
		if strings.EqualFold(s.Title, ref) || (len(ref) >= 4 && strings.HasPrefix(s.ID, ref)) {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 0:
		return -1, fmt.Errorf("%q: %w", ref, ErrShowNotFound)
	case 1:
		return matches[0], nil
	default:
		return -1, fmt.Errorf("%q matches %d shows: %w", ref, len(matches), ErrAmbiguousShow)
	}
}
