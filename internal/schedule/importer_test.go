package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseImport_Array(t *testing.T) {
	shows, err := ParseImport([]byte(`[
		{"title": "Severance", "day": "Friday", "air_time": "21:00", "season": 2, "episode": "4", "total_episodes": 10, "status": "watching"},
		{"id": "keep-me", "title": "Andor", "updated_at": "2025-01-02T03:04:05Z"}
	]`))
	require.NoError(t, err)
	require.Len(t, shows, 2)

	sev := shows[0]
	require.Equal(t, "fri", sev.Day)
	require.Equal(t, 2, sev.Season)
	require.Equal(t, 4, sev.Episode, "numeric strings are accepted")
	require.Equal(t, StatusWatching, sev.Status)
	require.Empty(t, sev.ID, "IDs are assigned on import, not while parsing")

	andor := shows[1]
	require.Equal(t, "keep-me", andor.ID)
	require.Equal(t, StatusPlanned, andor.Status)
	require.True(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC).Equal(andor.UpdatedAt))
}

func TestParseImport_WrappedObject(t *testing.T) {
	shows, err := ParseImport([]byte(`{"shows": [{"title": "Shogun", "updated_at": ""}]}`))
	require.NoError(t, err)
	require.Len(t, shows, 1)
	require.True(t, shows[0].UpdatedAt.IsZero())
}

func TestParseImport_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", "  ", "empty input"},
		{"not json", "{", "parsing import"},
		{"scalar", `"x"`, "expected an array or an object"},
		{"no shows field", `{"series": []}`, `no "shows" field`},
		{"invalid entry", `[{"title": "ok"}, {"title": ""}]`, "entry 1"},
		{"bad day", `[{"title": "x", "day": "someday"}]`, "unknown weekday"},
		{"wrong shape", `{"shows": "nope"}`, "decoding shows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseImport([]byte(tt.input))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDecodeShows_TypedPassThrough(t *testing.T) {
	in := []Show{{ID: "1", Title: "x"}}
	out, err := decodeShows(in)
	require.NoError(t, err)
	require.Equal(t, in, out)

	out, err = decodeShows(nil)
	require.NoError(t, err)
	require.Nil(t, out)
}
