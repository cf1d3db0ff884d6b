package timex

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidTimestamp is returned by ParseISO for input it cannot read.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseISO accepts RFC 3339 timestamps (with "Z" or an offset), timestamps
// without a zone and bare dates. Zone-less values are taken as UTC.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}
