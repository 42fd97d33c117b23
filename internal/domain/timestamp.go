package domain

import (
	"time"

	"github.com/agentstation/utc"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision, the shape
// JavaScript's toISOString produces.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a UTC instant persisted with millisecond precision.
// utc.Time drops fractional seconds when encoding, so Timestamp carries its
// own JSON methods and reuses utc's lenient parsing on the way in.
type Timestamp utc.Time

// NewTimestamp converts t to UTC and truncates it to what survives a
// write and read of the document.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(utc.New(t.Truncate(time.Millisecond)))
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Time.UTC().Format(TimestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var u utc.Time
	if err := u.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(u)
	return nil
}

func (t Timestamp) String() string {
	return t.Time.UTC().Format(TimestampLayout)
}
