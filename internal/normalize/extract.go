package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Record is a raw vendor-shaped machine document. Key naming varies across
// vendors and endpoints, so every lookup goes through an ordered alias list.
type Record = map[string]any

// Info identifies a machine. Fields default to the empty string when no
// alias matches, except Make which defaults to "JCB".
type Info struct {
	Make   string `json:"make"`
	Model  string `json:"model"`
	Serial string `json:"serial"`
	Name   string `json:"name"`
}

// Machine is the canonical normalized document for one machine. Category
// documents are empty (not nil-checked by consumers, just len == 0) when the
// source record carries no usable data for them.
type Machine struct {
	Info        Info           `json:"info"`
	Location    map[string]any `json:"location"`
	Hours       map[string]any `json:"hours"`
	Fuel        map[string]any `json:"fuel"`
	Alerts      []any          `json:"alerts"`
	Utilisation map[string]any `json:"utilisation"`
}

// Normalize applies every extractor to a raw record. now is stamped into the
// last_updated fields of the hours, fuel and utilisation documents.
func Normalize(rec Record, now time.Time) Machine {
	return Machine{
		Info:        ExtractInfo(rec),
		Location:    ExtractLocation(rec),
		Hours:       ExtractHours(rec, now),
		Fuel:        ExtractFuel(rec, now),
		Alerts:      ExtractAlerts(rec),
		Utilisation: ExtractUtilisation(rec, now),
	}
}

// firstValue returns the first non-nil value among the given keys, in
// priority order.
func firstValue(m Record, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringValue(m Record, def string, keys ...string) string {
	v := firstValue(m, keys...)
	if v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// toFloat coerces JSON-decoded values to float64. Strings are parsed so
// vendors that quote their numbers still normalize.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// setFloat resolves the aliases and stores the coerced value under name.
// Coercion failure drops just that field.
func setFloat(doc map[string]any, src Record, name string, aliases ...string) {
	v := firstValue(src, aliases...)
	if v == nil {
		return
	}
	if f, ok := toFloat(v); ok {
		doc[name] = f
	}
}

// ExtractInfo extracts machine identity info.
func ExtractInfo(rec Record) Info {
	return Info{
		Make:   stringValue(rec, "JCB", "make", "oem", "manufacturer"),
		Model:  stringValue(rec, "", "model", "modelName"),
		Serial: stringValue(rec, "", "serialNumber", "serial", "equipmentSerialNumber"),
		Name:   stringValue(rec, "", "name", "equipmentName", "displayName"),
	}
}

// ExtractLocation extracts GPS location data. Both latitude and longitude
// must resolve to numbers, either from direct keys or from a nested
// location-like object; otherwise the category is absent and an empty
// document is returned.
func ExtractLocation(rec Record) map[string]any {
	lat := firstValue(rec, "latitude", "lat")
	lon := firstValue(rec, "longitude", "lon", "lng")

	if nested, ok := firstValue(rec, "location", "position", "gps").(map[string]any); ok {
		if lat == nil {
			lat = firstValue(nested, "latitude", "lat")
		}
		if lon == nil {
			lon = firstValue(nested, "longitude", "lon", "lng")
		}
	}

	latF, latOK := toFloat(lat)
	lonF, lonOK := toFloat(lon)
	if !latOK || !lonOK {
		return map[string]any{}
	}

	return map[string]any{
		"lat":       latF,
		"lon":       lonF,
		"timestamp": Timestamp(firstValue(rec, "locationTimestamp", "locationDateTime", "timestamp")),
		"address":   stringValue(rec, "", "address", "location_address"),
	}
}

// ExtractHours extracts operating hours data.
func ExtractHours(rec Record, now time.Time) map[string]any {
	doc := map[string]any{}
	setFloat(doc, rec, "total_hours", "cumulativeOperatingHours", "totalHours", "engineHours", "hours")
	setFloat(doc, rec, "idle_hours", "cumulativeIdleHours", "idleHours", "idle_hours")
	return stamped(doc, now)
}

// ExtractFuel extracts fuel consumption data.
func ExtractFuel(rec Record, now time.Time) map[string]any {
	doc := map[string]any{}
	setFloat(doc, rec, "total_consumed", "fuelUsed", "totalFuelConsumed", "fuelConsumed")
	setFloat(doc, rec, "remaining_pct", "fuelRemaining", "fuelRemainingPercent", "fuelLevel")
	setFloat(doc, rec, "last_24h", "fuelUsedLast24", "fuelConsumedLast24h")
	return stamped(doc, now)
}

// ExtractUtilisation extracts utilisation metrics.
func ExtractUtilisation(rec Record, now time.Time) map[string]any {
	doc := map[string]any{}
	setFloat(doc, rec, "utilisation_pct", "utilisation", "utilisationPercent", "utilizationPercent")
	setFloat(doc, rec, "idle_pct", "idlePercent", "idlePercentage")
	return stamped(doc, now)
}

// stamped adds a last_updated timestamp to non-empty documents. Documents
// with no extracted fields stay empty so the category is treated as absent.
func stamped(doc map[string]any, now time.Time) map[string]any {
	if len(doc) > 0 {
		doc["last_updated"] = Timestamp(now)
	}
	return doc
}

// alertListKeys are the nested-list keys recognized inside a mapping-shaped
// alerts field.
var alertListKeys = []string{"items", "data", "alerts"}

// ExtractAlerts extracts active alerts as an opaque passthrough list. A
// mapping with no recognized nested list is wrapped as a one-element list,
// matching the vendor payloads that put a single alert at the top level.
func ExtractAlerts(rec Record) []any {
	switch alerts := firstValue(rec, "alerts", "alarms", "faults").(type) {
	case []any:
		return alerts
	case map[string]any:
		for _, key := range alertListKeys {
			if list, ok := alerts[key].([]any); ok {
				return list
			}
		}
		return []any{alerts}
	default:
		return []any{}
	}
}
