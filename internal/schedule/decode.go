package schedule

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// decodeShows converts whatever the store holds at PathShows into []Show.
// Values written by this package are []Show already; values loaded from a
// JSON snapshot are []any of map[string]any and are decoded by json tag.
func decodeShows(raw any) ([]Show, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []Show:
		return v, nil
	}

	var shows []Show
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &shows,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToTimeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("creating show decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding shows: %w", err)
	}
	return shows, nil
}

// stringToTimeHook maps an empty string to the zero time so records without
// a timestamp still decode.
func stringToTimeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to == reflect.TypeOf(time.Time{}) && reflect.ValueOf(data).String() == "" {
		return time.Time{}, nil
	}
	return data, nil
}
