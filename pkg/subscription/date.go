package subscription

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const dateOnly = "2006-01-02"

// Date is a timestamp that decodes from RFC 3339 or a bare YYYY-MM-DD.
// A bare date is read as midnight UTC.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date { return Date{Time: t} }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParseDate accepts RFC 3339 (with or without fractional seconds) or YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", dateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
