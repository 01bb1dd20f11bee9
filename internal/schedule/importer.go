package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseImport reads a show list from JSON: either a bare array of shows or an
// object with a "shows" array. Entries are normalized; missing IDs stay empty
// so PlanImport can match them to existing shows by title.
func ParseImport(data []byte) ([]Show, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("parsing import: empty input")
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing import: %w", err)
	}

	var list any
	switch v := raw.(type) {
	case []any:
		list = v
	case map[string]any:
		shows, ok := v["shows"]
		if !ok {
			return nil, fmt.Errorf("parsing import: object has no \"shows\" field")
		}
		list = shows
	default:
		return nil, fmt.Errorf("parsing import: expected an array or an object, got %T", raw)
	}

	shows, err := decodeShows(list)
	if err != nil {
		return nil, fmt.Errorf("parsing import: %w", err)
	}

	out := make([]Show, 0, len(shows))
	for i, s := range shows {
		n, err := Normalize(s)
		if err != nil {
			return nil, fmt.Errorf("parsing import: entry %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}
