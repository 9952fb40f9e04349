package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ErrMissingSetting marks a required configuration key that is absent.
var ErrMissingSetting = errors.New("missing required setting")

// MissingSettingError names the section and key that were looked up.
type MissingSettingError struct {
	Section string
	Key     string
}

func (e *MissingSettingError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("missing required setting %q", e.Key)
	}
	return fmt.Sprintf("missing required setting %q in %s", e.Key, e.Section)
}

func (e *MissingSettingError) Unwrap() error { return ErrMissingSetting }

// Meta is a nested, read-only configuration record as decoded from YAML.
type Meta map[string]interface{}

// Has reports whether key is present, whatever its value.
func (m Meta) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Require returns the value under key or a *MissingSettingError.
func (m Meta) Require(section, key string) (interface{}, error) {
	v, ok := m[key]
	if !ok {
		return nil, &MissingSettingError{Section: section, Key: key}
	}
	return v, nil
}

// Section walks nested mappings along path.
func (m Meta) Section(path ...string) (Meta, error) {
	cur := m
	for i, key := range path {
		v, ok := cur[key]
		if !ok {
			return nil, &MissingSettingError{Section: strings.Join(path[:i], "."), Key: key}
		}
		next, ok := asMeta(v)
		if !ok {
			return nil, fmt.Errorf("setting %q is a %T, not a mapping", strings.Join(path[:i+1], "."), v)
		}
		cur = next
	}
	return cur, nil
}

func asMeta(v interface{}) (Meta, bool) {
	switch t := v.(type) {
	case Meta:
		return t, true
	case map[string]interface{}:
		return Meta(t), true
	case map[interface{}]interface{}:
		m := make(Meta, len(t))
		for k, val := range t {
			m[fmt.Sprintf("%v", k)] = val
		}
		return m, true
	case nil:
		return Meta{}, true
	}
	return nil, false
}

// Merge deep-merges override on top of base and returns a new Meta.
// Nested mappings are merged key by key; any other non-null value in
// override wins.
func Merge(base, override Meta) Meta {
	out := make(Meta, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if bv, ok := out[k]; ok {
			// an empty YAML key ("postprocessing:") leaves the default in place
			if v == nil {
				continue
			}
			bm, bIsMap := asMeta(bv)
			om, oIsMap := asMeta(v)
			if bIsMap && oIsMap && bv != nil && v != nil {
				out[k] = Merge(bm, om)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// FormatScalar renders a scalar setting the way it appears on a command line.
// Floats keep a decimal point, so 16.0 stays "16.0".
func FormatScalar(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "True"
		}
		return "False"
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	case []interface{}, map[string]interface{}, map[interface{}]interface{}, Meta:
		if data, err := json.Marshal(value); err == nil {
			return string(data)
		}
	}
	if s, err := cast.ToStringE(value); err == nil {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func formatFloat(f float64, bitSize int) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		return strconv.FormatFloat(f, 'f', 1, bitSize)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}

// ToFloat converts numeric settings, including numeric strings.
func ToFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case bool, nil:
		return 0, fmt.Errorf("%v (%T) is not a number", value, value)
	case string:
		value = strings.TrimSpace(v)
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, fmt.Errorf("%v (%T) is not a number: %w", value, value, err)
	}
	return f, nil
}

// Contains mirrors membership tests on settings: substring match for strings,
// element equality for lists.
func Contains(value interface{}, needle string) bool {
	switch v := value.(type) {
	case string:
		return strings.Contains(v, needle)
	case []interface{}:
		for _, item := range v {
			if FormatScalar(item) == needle {
				return true
			}
		}
	case []string:
		for _, item := range v {
			if item == needle {
				return true
			}
		}
	}
	return false
}

// StringList flattens a list setting into its string elements. A scalar is
// treated as a single-element list.
func StringList(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, FormatScalar(item))
		}
		return out
	}
	return []string{FormatScalar(value)}
}
