package remoteconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Values is a flat or nested set of configuration parameters
type Values map[string]any

// Parse decodes YAML (JSON is accepted too, being a subset)
func Parse(data []byte) (Values, error) {
	var v Values
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if v == nil {
		v = Values{}
	}
	return v, nil
}

// Load reads and parses the file at path
func Load(path string) (Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty config file")
	}
	return Parse(data)
}

// String returns key as a string or def
func (v Values) String(key, def string) string {
	raw, ok := v[key]
	if !ok || raw == nil {
		return def
	}
	switch x := raw.(type) {
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Bool returns key as a bool or def
func (v Values) Bool(key string, def bool) bool {
	switch x := v[key].(type) {
	case bool:
		return x
	case string:
		if b, err := strconv.ParseBool(x); err == nil {
			return b
		}
	}
	return def
}

// Int returns key as an int or def
func (v Values) Int(key string, def int) int {
	switch x := v[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case string:
		if i, err := strconv.Atoi(x); err == nil {
			return i
		}
	}
	return def
}

// Float returns key as a float64 or def
func (v Values) Float(key string, def float64) float64 {
	switch x := v[key].(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
	}
	return def
}

// Section returns a nested mapping or an empty Values
func (v Values) Section(key string) Values {
	// yaml decodes nested mappings into the type of the outer map
	switch m := v[key].(type) {
	case Values:
		return m
	case map[string]any:
		return Values(m)
	}
	return Values{}
}
