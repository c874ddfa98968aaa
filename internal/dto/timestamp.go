package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimestamp indicates a payload value that cannot be read as an instant.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Timestamp accepts the instant encodings clients send and always holds a UTC
// time.Time. Supported inputs: RFC3339 strings, epoch milliseconds, and storage
// wrappers shaped as {"seconds","nanoseconds"} or {"_seconds","_nanoseconds"}.
type Timestamp struct {
	time.Time
}

type timestampWrapper struct {
	Seconds          *int64 `json:"seconds"`
	Nanoseconds      int64  `json:"nanoseconds"`
	LegacySeconds    *int64 `json:"_seconds"`
	LegacyNanosecond int64  `json:"_nanoseconds"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	switch data[0] {
	case '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		t.Time = parsed.UTC()
		return nil
	case '{':
		var wrapper timestampWrapper
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		switch {
		case wrapper.Seconds != nil:
			t.Time = time.Unix(*wrapper.Seconds, wrapper.Nanoseconds).UTC()
		case wrapper.LegacySeconds != nil:
			t.Time = time.Unix(*wrapper.LegacySeconds, wrapper.LegacyNanosecond).UTC()
		default:
			return fmt.Errorf("%w: missing seconds", ErrInvalidTimestamp)
		}
		return nil
	default:
		var millis int64
		if err := json.Unmarshal(data, &millis); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		t.Time = time.UnixMilli(millis).UTC()
		return nil
	}
}

// MarshalJSON renders the instant as RFC3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}
