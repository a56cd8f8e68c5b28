package normalize

import (
	"encoding/json"
	"math"
	"time"
)

// epochMillisCutoff is the epoch-seconds value for the year 2100. Numeric
// timestamps above it are interpreted as epoch milliseconds.
const epochMillisCutoff = 4_102_444_800

// minEpochSeconds is the epoch value of time.Time's zero instant; anything
// below it cannot be represented.
const minEpochSeconds = -62_135_596_800

// Timestamp converts a heterogeneous timestamp value to a UTC ISO 8601
// string. It handles time.Time values, epoch seconds, epoch milliseconds
// and strings (passed through unmodified). Zero values and anything that
// cannot be converted yield "".
func Timestamp(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(time.RFC3339Nano)
	case string:
		return v
	case float64:
		return epochString(v)
	case float32:
		return epochString(float64(v))
	case int:
		return epochString(float64(v))
	case int64:
		return epochString(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return ""
		}
		return epochString(f)
	default:
		return ""
	}
}

func epochString(epoch float64) string {
	if epoch == 0 || math.IsNaN(epoch) || math.IsInf(epoch, 0) {
		return ""
	}
	if epoch > epochMillisCutoff {
		epoch = epoch / 1000
	}
	// Still out of range after the millis adjustment means the value is
	// garbage, not a timestamp.
	if epoch > epochMillisCutoff || epoch < minEpochSeconds {
		return ""
	}
	sec, frac := math.Modf(epoch)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC().Format(time.RFC3339Nano)
}
