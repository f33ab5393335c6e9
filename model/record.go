package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is a loosely typed back-office row. Admin screens show whatever
// columns the backend returns, so these rows are not bound to structs.
type Record map[string]any

// Field renders a single value for display.
func (r Record) Field(key string) string {
	return formatValue(r[key])
}

func (r Record) ID(key string) ID {
	return ID(formatValue(r[key]))
}

func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for key := range r {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Statistics is the dashboard summary; its keys vary by backend version.
type Statistics map[string]any

func (s Statistics) Keys() []string {
	return Record(s).Keys()
}

func (s Statistics) Field(key string) string {
	return formatValue(s[key])
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case json.Number:
		return value.String()
	case map[string]any:
		for _, key := range []string{"ten", "ho_ten", "ten_phim", "ten_rap", "ten_phong", "name"} {
			if name, ok := value[key].(string); ok {
				return name
			}
		}
		return "{…}"
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(value)
	}
}
