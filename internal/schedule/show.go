// Package schedule is the episodic show tracker built on the reactive store:
// the show records, the store paths they live under, the computed views over
// them and the actions that change them.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is where a show stands in the user's watching.
type Status string

const (
	StatusWatching  Status = "watching"
	StatusCompleted Status = "completed"
	StatusPlanned   Status = "planned"
	StatusDropped   Status = "dropped"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusWatching, StatusPlanned, StatusCompleted, StatusDropped}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusWatching, StatusCompleted, StatusPlanned, StatusDropped:
		return true
	}
	return false
}

// Weekdays in schedule order. A show with an empty Day is unscheduled.
var Weekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// Show is one tracked series.
type Show struct {
	ID            string    `json:"id" mapstructure:"id" yaml:"id"`
	Title         string    `json:"title" mapstructure:"title" yaml:"title"`
	Network       string    `json:"network,omitempty" mapstructure:"network" yaml:"network,omitempty"`
	Day           string    `json:"day,omitempty" mapstructure:"day" yaml:"day,omitempty"`
	AirTime       string    `json:"air_time,omitempty" mapstructure:"air_time" yaml:"air_time,omitempty"`
	Season        int       `json:"season" mapstructure:"season" yaml:"season"`
	Episode       int       `json:"episode" mapstructure:"episode" yaml:"episode"`
	TotalEpisodes int       `json:"total_episodes,omitempty" mapstructure:"total_episodes" yaml:"total_episodes,omitempty"`
	Status        Status    `json:"status" mapstructure:"status" yaml:"status"`
	UpdatedAt     time.Time `json:"updated_at" mapstructure:"updated_at" yaml:"updated_at"`
}

// Remaining returns the episodes left in the season, or 0 when unknown.
func (s Show) Remaining() int {
	if s.TotalEpisodes <= 0 || s.Episode >= s.TotalEpisodes {
		return 0
	}
	return s.TotalEpisodes - s.Episode
}

// Progress renders "S2E4/10", omitting the total when unknown.
func (s Show) Progress() string {
	season := s.Season
	if season < 1 {
		season = 1
	}
	if s.TotalEpisodes > 0 {
		return fmt.Sprintf("S%dE%d/%d", season, s.Episode, s.TotalEpisodes)
	}
	return fmt.Sprintf("S%dE%d", season, s.Episode)
}

var (
	// ErrShowNotFound is returned when a reference matches no show.
	ErrShowNotFound = errors.New("show not found")

	// ErrAmbiguousShow is returned when a reference matches several shows.
	ErrAmbiguousShow = errors.New("show reference is ambiguous")

	// ErrAlreadyCompleted is returned when marking a finished show watched.
	ErrAlreadyCompleted = errors.New("show is already completed")
)

// ValidationError reports an invalid show field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Normalize trims text fields, canonicalizes the day and fills in defaults.
// It returns a ValidationError for values it cannot repair.
func Normalize(s Show) (Show, error) {
	s.Title = strings.TrimSpace(s.Title)
	s.Network = strings.TrimSpace(s.Network)
	s.AirTime = strings.TrimSpace(s.AirTime)

	if s.Title == "" {
		return s, &ValidationError{Field: "title", Reason: "required"}
	}

	day, ok := NormalizeDay(s.Day)
	if !ok {
		return s, &ValidationError{Field: "day", Reason: fmt.Sprintf("unknown weekday %q", s.Day)}
	}
	s.Day = day

	if s.AirTime != "" {
		t, ok := parseAirTime(s.AirTime)
		if !ok {
			return s, &ValidationError{Field: "air_time", Reason: fmt.Sprintf("%q is not HH:MM", s.AirTime)}
		}
		s.AirTime = t.Format("15:04")
	}

	if s.Status == "" {
		s.Status = StatusPlanned
	}
	s.Status = Status(strings.ToLower(string(s.Status)))
	if !s.Status.Valid() {
		return s, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s.Status)}
	}

	if s.Season < 0 || s.Episode < 0 || s.TotalEpisodes < 0 {
		return s, &ValidationError{Field: "episode", Reason: "counts must not be negative"}
	}
	if s.Season == 0 {
		s.Season = 1
	}
	if s.TotalEpisodes > 0 && s.Episode > s.TotalEpisodes {
		s.Episode = s.TotalEpisodes
	}
	return s, nil
}

// airTimeLayouts are the accepted air time spellings, tried in order
// against the lowercased input.
var airTimeLayouts = []string{"15:04", "3:04pm", "3:04 pm", "3pm", "3 pm"}

func parseAirTime(value string) (time.Time, bool) {
	value = strings.ToLower(value)
	for _, layout := range airTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDay maps weekday spellings ("Monday", "mon", "TUES") to the
// three-letter form. Blank maps to "" (unscheduled).
func NormalizeDay(day string) (string, bool) {
	d := strings.ToLower(strings.TrimSpace(day))
	if d == "" {
		return "", true
	}
	if len(d) < 2 {
		return "", false
	}
	for i, name := range fullDayNames {
		if strings.HasPrefix(name, d) {
			return Weekdays[i], true
		}
	}
	return "", false
}

var fullDayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DayLabel returns the display name of a three-letter day.
func DayLabel(day string) string {
	for i, d := range Weekdays {
		if d == day {
			name := fullDayNames[i]
			return strings.ToUpper(name[:1]) + name[1:]
		}
	}
	return "Unscheduled"
}

// dayIndex orders days Monday first; unscheduled sorts last.
func dayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return len(Weekdays)
}
