package commitments

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a coerced numeric value. Valid is false when coercion failed.
type Number struct {
	Value decimal.Decimal
	Valid bool
}

// Known wraps a decimal as a valid Number.
func Known(value decimal.Decimal) Number {
	return Number{Value: value, Valid: true}
}

// Unknown is the result of a failed coercion.
var Unknown = Number{}

// ToNumber coerces spreadsheet and JSON values. Anything that is not a finite
// number becomes Unknown, never zero.
func ToNumber(value any) Number {
	switch v := value.(type) {
	case nil:
		return Unknown
	case decimal.Decimal:
		return Known(v)
	case Number:
		return v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Unknown
		}
		return Known(decimal.NewFromFloat(v))
	case float32:
		return ToNumber(float64(v))
	case int:
		return Known(decimal.NewFromInt(int64(v)))
	case int64:
		return Known(decimal.NewFromInt(v))
	case json.Number:
		return parseNumber(v.String())
	case string:
		return parseNumber(v)
	default:
		return Unknown
	}
}

func parseNumber(raw string) Number {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Unknown
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return Unknown
	}
	return Known(parsed)
}

// Sub returns n - other, unknown if either side is unknown.
func (n Number) Sub(other Number) Number {
	if !n.Valid || !other.Valid {
		return Unknown
	}
	return Known(n.Value.Sub(other.Value))
}
