package dispatch

// Args is the validated input bag for a single tool call, shaped like the
// map mark3labs/mcp-go's CallToolRequest.GetArguments() returns.
type Args map[string]any

func (a Args) requireString(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", ValidationError{Param: key}
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", ValidationError{Param: key}
	}
	return s, nil
}

func (a Args) optionalString(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func (a Args) requireInt(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, ValidationError{Param: key}
	}
	n, err := toInt(v)
	if err != nil {
		return 0, ValidationError{Param: key}
	}
	return n, nil
}

func (a Args) optionalInt(key string, fallback int) int {
	v, ok := a[key]
	if !ok {
		return fallback
	}
	n, err := toInt(v)
	if err != nil {
		return fallback
	}
	return n
}

// toInt accepts the numeric shapes JSON unmarshaling into map[string]any
// produces (float64) as well as plain ints, since tool args may arrive
// either freshly decoded from JSON or constructed directly in tests.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, ValidationError{}
	}
}
