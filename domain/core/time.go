package core

import (
	"time"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// ISO8601 renders the timestamp in UTC with millisecond precision,
// e.g. 2024-05-01T09:30:00.000Z
func (t Timestamp) ISO8601() string {
	return time.Time(t).UTC().Format("2006-01-02T15:04:05.000Z")
}

// MarshalJSON encodes the timestamp as an ISO-8601 string
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.ISO8601() + `"`), nil
}

// UnmarshalJSON accepts any RFC 3339 string
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	parsed, err := time.Parse(`"`+time.RFC3339Nano+`"`, string(data))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}
