package schedule

import (
	"fmt"

	"github.com/zjrosen/airdate/internal/store"
)

// Raw store paths.
const (
	PathShows        = "shows"
	PathFilterQuery  = "filter.query"
	PathFilterStatus = "filter.status"
)

// Computed store paths.
const (
	PathFiltered = "shows.filtered"
	PathByDay    = "shows.byDay"
	PathStats    = "stats"
)

// Register declares the computed views on s. Call it once per store, before
// Load.
func Register(s *store.Store) error {
	defs := []struct {
		path   string
		getter store.Getter
		deps   []string
	}{
		{PathFiltered, filteredGetter, []string{PathShows, PathFilterQuery, PathFilterStatus}},
		{PathByDay, byDayGetter, []string{PathFiltered}},
		{PathStats, statsGetter, []string{PathShows}},
	}
	for _, d := range defs {
		if err := s.RegisterComputed(d.path, d.getter, d.deps); err != nil {
			return fmt.Errorf("registering schedule views: %w", err)
		}
	}
	return nil
}

func filteredGetter(r store.Reader) (any, error) {
	shows, err := decodeShows(r.Get(PathShows))
	if err != nil {
		return nil, err
	}
	query, _ := store.GetAs[string](r, PathFilterQuery)
	status, _ := store.GetAs[string](r, PathFilterStatus)
	return Filter(shows, query, Status(status)), nil
}

func byDayGetter(r store.Reader) (any, error) {
	filtered, _ := store.GetAs[[]Show](r, PathFiltered)
	return GroupByDay(filtered), nil
}

func statsGetter(r store.Reader) (any, error) {
	shows, err := decodeShows(r.Get(PathShows))
	if err != nil {
		return nil, err
	}
	return ComputeStats(shows), nil
}
