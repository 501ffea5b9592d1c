package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SafeFloat converts an upstream payload value to a float64, degrading to
// 0.0 on anything malformed. The quote API mixes numbers with formatted
// strings ("1,23,456.70", "-", "NA"), so every numeric field goes through
// this before entering a record.
func SafeFloat(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0.0
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		clean := strings.TrimSpace(strings.ReplaceAll(val, ",", ""))
		switch clean {
		case "", "-", "NA", "nan":
			return 0.0
		}
		d, err := decimal.NewFromString(clean)
		if err != nil {
			return 0.0
		}
		return d.InexactFloat64()
	default:
		return 0.0
	}
}

// SafeInt64 converts an upstream payload value to an int64 via SafeFloat,
// truncating any fractional part.
func SafeInt64(v any) int64 {
	return int64(SafeFloat(v))
}
