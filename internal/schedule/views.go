package schedule

import (
	"cmp"
	"slices"
	"strings"
)

// DayGroup is the shows airing on one weekday, or the unscheduled ones.
type DayGroup struct {
	Day   string `json:"day"`
	Label string `json:"label"`
	Shows []Show `json:"shows"`
}

// Stats summarizes the whole show list.
type Stats struct {
	Total             int            `json:"total"`
	ByStatus          map[Status]int `json:"by_status"`
	EpisodesWatched   int            `json:"episodes_watched"`
	EpisodesRemaining int            `json:"episodes_remaining"`
}

// Filter keeps shows with the given status (all when empty) matching query,
// ordered by relevance then title. An empty query keeps everything in title
// order.
func Filter(shows []Show, query string, status Status) []Show {
	query = strings.ToLower(strings.TrimSpace(query))

	type scored struct {
		show  Show
		score int
	}
	var matches []scored
	for _, s := range shows {
		if status != "" && s.Status != status {
			continue
		}
		score := Relevance(s, query)
		if query != "" && score == 0 {
			continue
		}
		matches = append(matches, scored{show: s, score: score})
	}

	slices.SortStableFunc(matches, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return compareTitles(a.show, b.show)
	})

	out := make([]Show, len(matches))
	for i, m := range matches {
		out[i] = m.show
	}
	return out
}

// Relevance scores show against a lower-cased query: 3 for a title prefix, 2
// for a prefix of a later title word, 1 for any other title substring, plus 1
// when the network contains the query. Zero means no match.
func Relevance(show Show, query string) int {
	if query == "" {
		return 0
	}
	title := strings.ToLower(show.Title)

	score := 0
	switch {
	case strings.HasPrefix(title, query):
		score = 3
	case wordPrefix(title, query):
		score = 2
	case strings.Contains(title, query):
		score = 1
	}
	if strings.Contains(strings.ToLower(show.Network), query) {
		score++
	}
	return score
}

func wordPrefix(title, query string) bool {
	for _, word := range strings.FieldsFunc(title, isSeparator) {
		if strings.HasPrefix(word, query) {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '-' || r == ':' || r == '.' || r == ','
}

// GroupByDay buckets shows Monday through Sunday, then unscheduled. Each
// bucket is ordered by air time then title; empty buckets are omitted.
func GroupByDay(shows []Show) []DayGroup {
	buckets := make([][]Show, len(Weekdays)+1)
	for _, s := range shows {
		i := dayIndex(s.Day)
		buckets[i] = append(buckets[i], s)
	}

	var groups []DayGroup
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		slices.SortStableFunc(bucket, func(a, b Show) int {
			if c := compareAirTimes(a.AirTime, b.AirTime); c != 0 {
				return c
			}
			return compareTitles(a, b)
		})
		day := ""
		if i < len(Weekdays) {
			day = Weekdays[i]
		}
		groups = append(groups, DayGroup{Day: day, Label: DayLabel(day), Shows: bucket})
	}
	return groups
}

// ComputeStats tallies shows by status and counts episodes.
func ComputeStats(shows []Show) Stats {
	st := Stats{ByStatus: make(map[Status]int, len(Statuses))}
	for _, s := range Statuses {
		st.ByStatus[s] = 0
	}
	for _, s := range shows {
		st.Total++
		st.ByStatus[s.Status]++
		st.EpisodesWatched += s.Episode
		if s.Status != StatusDropped {
			st.EpisodesRemaining += s.Remaining()
		}
	}
	return st
}

// compareAirTimes orders "HH:MM" strings, with unknown times last.
func compareAirTimes(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return strings.Compare(a, b)
}

func compareTitles(a, b Show) int {
	if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
