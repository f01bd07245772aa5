package operations

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/jo-hoe/imageproc/internal/common"
)

// GetStringParam extracts a string parameter, falling back to defaultValue when the
// key is missing or not a string
func GetStringParam(params map[string]any, key string, defaultValue string) string {
	if val, ok := params[key]; ok {
		if strVal, ok := val.(string); ok {
			return strVal
		}
	}
	return defaultValue
}

// GetDimensionParam reads a required pixel size within [1, MaxDimension].
// YAML decodes whole numbers as int and others as float64; fractional sizes are rejected.
func GetDimensionParam(params map[string]any, key string) (int, error) {
	val, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing required parameter: %s", ErrInvalidParameter, key)
	}
	f, ok := toFloat(val)
	if !ok {
		return 0, fmt.Errorf("%w: parameter %s must be a number, got %T", ErrInvalidParameter, key, val)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: parameter %s must be a whole number of pixels, got %v", ErrInvalidParameter, key, f)
	}
	if f < 1 || f > MaxDimension {
		return 0, fmt.Errorf("%w: parameter %s must be within [1, %d], got %v", ErrInvalidParameter, key, MaxDimension, f)
	}
	return int(f), nil
}

// GetFloatParam reads a finite number, falling back to defaultValue when the key is
// missing. A value of another type is an error rather than silently ignored.
func GetFloatParam(params map[string]any, key string, defaultValue float64) (float64, error) {
	val, ok := params[key]
	if !ok {
		return defaultValue, nil
	}
	f, ok := toFloat(val)
	if !ok {
		return 0, fmt.Errorf("%w: parameter %s must be a number, got %T", ErrInvalidParameter, key, val)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: parameter %s must be finite, got %v", ErrInvalidParameter, key, f)
	}
	return f, nil
}

// GetRangeParam is GetFloatParam restricted to [min, max].
func GetRangeParam(params map[string]any, key string, defaultValue, min, max float64) (float64, error) {
	f, err := GetFloatParam(params, key, defaultValue)
	if err != nil {
		return 0, err
	}
	if f < min || f > max {
		return 0, fmt.Errorf("%w: parameter %s must be within [%g, %g], got %g", ErrInvalidParameter, key, min, max, f)
	}
	return f, nil
}

// GetBoolParam extracts a bool parameter.
// Accepts booleans and the strings "true"/"false" (case-insensitive).
func GetBoolParam(params map[string]any, key string, defaultValue bool) bool {
	if val, ok := params[key]; ok {
		switch v := val.(type) {
		case bool:
			return v
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true":
				return true
			case "false":
				return false
			}
		}
	}
	return defaultValue
}

// GetColorParam extracts a hex color parameter such as "#ffffff"
func GetColorParam(params map[string]any, key string, defaultValue color.Color) (color.Color, error) {
	raw := GetStringParam(params, key, "")
	if raw == "" {
		return defaultValue, nil
	}
	c, err := common.ParseColor(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parameter %s: %v", ErrInvalidParameter, key, err)
	}
	return c, nil
}

// ValidateRequiredParams checks that all required parameters are present
func ValidateRequiredParams(params map[string]any, required []string) error {
	for _, key := range required {
		if _, ok := params[key]; !ok {
			return fmt.Errorf("%w: missing required parameter: %s", ErrInvalidParameter, key)
		}
	}
	return nil
}

func toFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
