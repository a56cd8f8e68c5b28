package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimestamp(t *testing.T) {
	testCases := []struct {
		name     string
		value    any
		expected string
	}{
		{
			name:     "Nil",
			value:    nil,
			expected: "",
		},
		{
			name:     "Empty string",
			value:    "",
			expected: "",
		},
		{
			name:     "String passthrough",
			value:    "2024-05-01T10:30:00+02:00",
			expected: "2024-05-01T10:30:00+02:00",
		},
		{
			name:     "Epoch seconds",
			value:    float64(1700000000),
			expected: "2023-11-14T22:13:20Z",
		},
		{
			name:     "Epoch milliseconds",
			value:    float64(1700000000000),
			expected: "2023-11-14T22:13:20Z",
		},
		{
			name:     "Epoch seconds as int",
			value:    1700000000,
			expected: "2023-11-14T22:13:20Z",
		},
		{
			name:     "Zero epoch",
			value:    float64(0),
			expected: "",
		},
		{
			name:     "Absurdly large value",
			value:    1e22,
			expected: "",
		},
		{
			name:     "Unsupported type",
			value:    true,
			expected: "",
		},
		{
			name:     "Time value rendered in UTC",
			value:    time.Date(2024, 3, 10, 12, 0, 0, 0, time.FixedZone("CET", 3600)),
			expected: "2024-03-10T11:00:00Z",
		},
		{
			name:     "Zero time",
			value:    time.Time{},
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Timestamp(tc.value))
		})
	}
}

func TestTimestampMillisAndSecondsAgree(t *testing.T) {
	// The same instant expressed in seconds and milliseconds must normalize
	// identically instead of drifting 50000+ years into the future.
	assert.Equal(t, Timestamp(float64(1700000000)), Timestamp(float64(1700000000000)))
}
