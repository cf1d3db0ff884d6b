package timex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISO(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-01", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-03-01T09:30", time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)},
		{"2025-03-01T09:30:15", time.Date(2025, 3, 1, 9, 30, 15, 0, time.UTC)},
		{"2025-03-01 09:30:15", time.Date(2025, 3, 1, 9, 30, 15, 0, time.UTC)},
		{"2025-03-01T09:30:15Z", time.Date(2025, 3, 1, 9, 30, 15, 0, time.UTC)},
		{"2025-03-01T11:30:15+02:00", time.Date(2025, 3, 1, 9, 30, 15, 0, time.UTC)},
		{"2025-03-01T09:30:15.250Z", time.Date(2025, 3, 1, 9, 30, 15, 250000000, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseISO(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestParseISO_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "yesterday", "2025-13-01", "01/03/2025"} {
		_, err := ParseISO(in)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, in)
	}
}
