package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func TestExtractInfo(t *testing.T) {
	testCases := []struct {
		name     string
		rec      Record
		expected Info
	}{
		{
			name:     "Empty record gets defaults",
			rec:      Record{},
			expected: Info{Make: "JCB"},
		},
		{
			name: "Direct keys",
			rec: Record{
				"make":         "JCB",
				"model":        "3CX",
				"serialNumber": "SN-001",
				"name":         "Backhoe 1",
			},
			expected: Info{Make: "JCB", Model: "3CX", Serial: "SN-001", Name: "Backhoe 1"},
		},
		{
			name: "Alias fallbacks",
			rec: Record{
				"manufacturer": "Komatsu",
				"modelName":    "PC210",
				"serial":       "K-42",
				"displayName":  "Digger",
			},
			expected: Info{Make: "Komatsu", Model: "PC210", Serial: "K-42", Name: "Digger"},
		},
		{
			name: "First alias wins over later ones",
			rec: Record{
				"make":          "JCB",
				"oem":           "SomeoneElse",
				"name":          "Primary",
				"equipmentName": "Secondary",
			},
			expected: Info{Make: "JCB", Name: "Primary"},
		},
		{
			name: "Null alias falls through to the next",
			rec: Record{
				"name":          nil,
				"equipmentName": "Fallback",
			},
			expected: Info{Make: "JCB", Name: "Fallback"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtractInfo(tc.rec))
		})
	}
}

func TestExtractLocation(t *testing.T) {
	t.Run("Direct keys", func(t *testing.T) {
		doc := ExtractLocation(Record{
			"latitude":          -27.5,
			"longitude":         153.02,
			"locationTimestamp": "2024-05-01T00:00:00Z",
			"address":           "Brisbane QLD",
		})
		assert.Equal(t, -27.5, doc["lat"])
		assert.Equal(t, 153.02, doc["lon"])
		assert.Equal(t, "2024-05-01T00:00:00Z", doc["timestamp"])
		assert.Equal(t, "Brisbane QLD", doc["address"])
	})

	t.Run("Nested gps object", func(t *testing.T) {
		doc := ExtractLocation(Record{
			"gps": map[string]any{"lat": 1.5, "lng": 2.5},
		})
		assert.Equal(t, 1.5, doc["lat"])
		assert.Equal(t, 2.5, doc["lon"])
	})

	t.Run("Direct key preferred over nested", func(t *testing.T) {
		doc := ExtractLocation(Record{
			"lat":      10.0,
			"location": map[string]any{"lat": 99.0, "lon": 20.0},
		})
		assert.Equal(t, 10.0, doc["lat"])
		assert.Equal(t, 20.0, doc["lon"])
	})

	t.Run("Latitude alone is not a location", func(t *testing.T) {
		assert.Empty(t, ExtractLocation(Record{"latitude": 12.0}))
	})

	t.Run("Non-numeric coordinates are not a location", func(t *testing.T) {
		assert.Empty(t, ExtractLocation(Record{"latitude": "north", "longitude": 12.0}))
	})

	t.Run("Quoted numbers parse", func(t *testing.T) {
		doc := ExtractLocation(Record{"latitude": "-27.5", "longitude": "153.02"})
		assert.Equal(t, -27.5, doc["lat"])
	})

	t.Run("Epoch location timestamp normalizes", func(t *testing.T) {
		doc := ExtractLocation(Record{
			"latitude":          1.0,
			"longitude":         2.0,
			"locationTimestamp": float64(1700000000),
		})
		assert.Equal(t, "2023-11-14T22:13:20Z", doc["timestamp"])
	})
}

func TestExtractHours(t *testing.T) {
	t.Run("No hour fields yields empty document", func(t *testing.T) {
		assert.Empty(t, ExtractHours(Record{"name": "x"}, testNow))
	})

	t.Run("Total and idle", func(t *testing.T) {
		doc := ExtractHours(Record{
			"cumulativeOperatingHours": 1234.5,
			"idleHours":                100,
		}, testNow)
		assert.Equal(t, 1234.5, doc["total_hours"])
		assert.Equal(t, 100.0, doc["idle_hours"])
		assert.Equal(t, Timestamp(testNow), doc["last_updated"])
	})

	t.Run("Coercion failure drops only that field", func(t *testing.T) {
		doc := ExtractHours(Record{
			"totalHours": "not-a-number",
			"idleHours":  "42.5",
		}, testNow)
		assert.NotContains(t, doc, "total_hours")
		assert.Equal(t, 42.5, doc["idle_hours"])
	})
}

func TestExtractFuel(t *testing.T) {
	doc := ExtractFuel(Record{
		"fuelUsed":       900.0,
		"fuelLevel":      62,
		"fuelUsedLast24": "14.2",
	}, testNow)
	assert.Equal(t, 900.0, doc["total_consumed"])
	assert.Equal(t, 62.0, doc["remaining_pct"])
	assert.Equal(t, 14.2, doc["last_24h"])
	assert.Equal(t, Timestamp(testNow), doc["last_updated"])

	assert.Empty(t, ExtractFuel(Record{}, testNow))
}

func TestExtractUtilisation(t *testing.T) {
	doc := ExtractUtilisation(Record{
		"utilisationPercent": 71.5,
		"idlePercent":        12.0,
	}, testNow)
	assert.Equal(t, 71.5, doc["utilisation_pct"])
	assert.Equal(t, 12.0, doc["idle_pct"])

	// First alias wins.
	doc = ExtractUtilisation(Record{
		"utilisation":        50.0,
		"utilisationPercent": 99.0,
	}, testNow)
	assert.Equal(t, 50.0, doc["utilisation_pct"])
}

func TestExtractAlerts(t *testing.T) {
	testCases := []struct {
		name     string
		rec      Record
		expected []any
	}{
		{
			name:     "Absent yields empty list",
			rec:      Record{},
			expected: []any{},
		},
		{
			name:     "List passthrough",
			rec:      Record{"alerts": []any{map[string]any{"code": "E1"}}},
			expected: []any{map[string]any{"code": "E1"}},
		},
		{
			name:     "Mapping with nested items list",
			rec:      Record{"alarms": map[string]any{"items": []any{map[string]any{"code": "E1"}}}},
			expected: []any{map[string]any{"code": "E1"}},
		},
		{
			// Known quirk carried from the vendor payloads: a mapping with
			// no recognized nested list is treated as a single alert.
			name:     "Mapping without nested list wraps as singleton",
			rec:      Record{"faults": map[string]any{"code": "E9", "severity": "high"}},
			expected: []any{map[string]any{"code": "E9", "severity": "high"}},
		},
		{
			name:     "Non-list non-mapping yields empty list",
			rec:      Record{"faults": "bad"},
			expected: []any{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtractAlerts(tc.rec))
		})
	}
}

func TestNormalize(t *testing.T) {
	rec := Record{
		"name":       "Loader",
		"latitude":   1.0,
		"longitude":  2.0,
		"totalHours": 10,
	}
	m := Normalize(rec, testNow)
	require.Equal(t, "Loader", m.Info.Name)
	assert.Equal(t, 1.0, m.Location["lat"])
	assert.Equal(t, 10.0, m.Hours["total_hours"])
	assert.Empty(t, m.Fuel)
	assert.Empty(t, m.Utilisation)
	assert.Empty(t, m.Alerts)
}

func TestSanitizeID(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
	}{
		{"ABC-123!!", "abc_123"},
		{"", "unknown"},
		{"___", "unknown"},
		{"JCB 3CX #42", "jcb_3cx_42"},
		{"already_safe", "already_safe"},
		{"--M1--", "m1"},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeID(tc.raw))
		})
	}
}
