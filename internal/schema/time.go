package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"time"
)

// Time accepts the timestamp encodings the backend emits: ISO-8601 strings
// with or without a zone (zone-less values are UTC) and numeric epoch
// milliseconds.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Time) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return typeError("nothing")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return typeError("string")
		}
		parsed, ok := parseTimestamp(s)
		if !ok {
			return typeError("string " + strconv.Quote(s))
		}
		t.Time = parsed
		return nil
	}

	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsInf(ms, 0) || math.IsNaN(ms) {
		return typeError(describeJSON(data))
	}
	t.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func typeError(value string) error {
	return &json.UnmarshalTypeError{Value: value, Type: reflect.TypeOf(Time{})}
}

func timeOrZero(t *Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Time
}

func timePtr(t *Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}
