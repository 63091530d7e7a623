package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp is a transaction date that decodes from either an ISO-8601 string
// or an epoch-milliseconds number.
type Timestamp struct {
	time.Time
}

func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// zoneless layouts are interpreted in the local zone, like a browser would.
var (
	zonedLayouts    = []string{time.RFC3339Nano, time.RFC3339}
	zonelessLayouts = []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02T15:04"}
)

// ParseTimestamp accepts date-only (UTC midnight), RFC3339 and zoneless datetimes.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Timestamp{Time: t}, nil
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unable to parse date: %s", s)
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		*ts = parsed
		return nil
	}
	var ms json.Number
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("unable to parse date: %s", data)
	}
	v, err := ms.Int64()
	if err != nil {
		f, ferr := ms.Float64()
		if ferr != nil {
			return fmt.Errorf("unable to parse date: %s", data)
		}
		v = int64(f)
	}
	ts.Time = time.UnixMilli(v)
	return nil
}

// MarshalJSON implements json.Marshaler for Timestamp
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339Nano))
}
