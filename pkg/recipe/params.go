package recipe

// Params is the per-recipe parameter bag supplied from configuration.
// Recipes must construct successfully from a nil or empty bag: no recipe
// has required parameters, only overridable defaults.
type Params map[string]any

// Float returns the float stored under key, or def when absent or of the
// wrong type. YAML integers are accepted.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// Bool returns the bool stored under key, or def when absent.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Int returns the int stored under key, or def when absent.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// String returns the string stored under key, or def when absent.
func (p Params) String(key string, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}
