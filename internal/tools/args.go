package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// Argument maps arrive as decoded JSON, so numbers are float64 and arrays
// are []any. These helpers coerce to the types the tools need.

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgType, key)
	}
	return strings.TrimSpace(s), nil
}

func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArgType, key)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArgType, key)
	}
}

func stringSliceArg(args map[string]any, key string) ([]string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, el := range list {
			s, ok := el.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be an array of strings", ErrInvalidArgType, key)
			}
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	case string:
		// Some backends pass a single modifier as a bare string.
		if s := strings.TrimSpace(list); s != "" {
			return []string{s}, nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s must be an array of strings", ErrInvalidArgType, key)
	}
}
