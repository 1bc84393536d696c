package expression

import (
	"strconv"

	"go-desk/internal/common/models"
)

// Context is the read-only data an expression is evaluated against.
// Parent is only set for fields of nested table rows.
type Context struct {
	Doc    models.Document
	Parent models.Document
}

// Truthy implements the documented truthiness rules: nil, false, zero,
// the empty string and the empty array are false; everything else is
// true. Maps (nested objects) are always true.
func Truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case float32:
		return x != 0
	case float64:
		return x != 0
	case []interface{}:
		return len(x) > 0
	case []string:
		return len(x) > 0
	default:
		return true
	}
}

// toFloat coerces numeric types and numeric strings.
func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// toString renders a value the way loose string comparison expects.
func toString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
}
