package trace

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// Parser converts a non-null node into T. Failures should be *InvalidValueError
// values without a location; the accessor fills it in.
type Parser[T any] func(*Node) (T, error)

// String accepts strings, numbers and booleans and returns their literal text.
func String(n *Node) (string, error) {
	if n.Kind() != KindScalar {
		return "", invalid("a string", n)
	}

	return n.text, nil
}

// Int accepts integral numbers that fit into an int.
func Int(n *Node) (int, error) {
	v, err := Int64(n)
	if err != nil {
		return 0, invalid("an integer", n)
	}

	if v > math.MaxInt || v < math.MinInt {
		return 0, invalid("an integer", n)
	}

	return int(v), nil
}

// Int64 accepts integral numbers.
func Int64(n *Node) (int64, error) {
	if n.Kind() == KindScalar {
		switch v := n.value.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case uint64:
			if v <= math.MaxInt64 {
				return int64(v), nil
			}
		case float64:
			if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
				return int64(v), nil
			}
		}
	}

	return 0, invalid("an integer", n)
}

// Float64 accepts any number.
func Float64(n *Node) (float64, error) {
	if n.Kind() == KindScalar {
		switch v := n.value.(type) {
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case uint64:
			return float64(v), nil
		case float64:
			return v, nil
		}
	}

	return 0, invalid("a number", n)
}

// Bool accepts booleans and the strings "true" and "false" in any case.
func Bool(n *Node) (bool, error) {
	if n.Kind() == KindScalar {
		switch v := n.value.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(v) {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
		}
	}

	return false, invalid("a boolean", n)
}

// Any returns the decoded value as plain Go data.
func Any(n *Node) (any, error) {
	return n.Interface(), nil
}

// Raw returns the node itself.
func Raw(n *Node) (*Node, error) {
	return n, nil
}

// JSONString passes strings through and serializes objects and lists as JSON.
func JSONString(n *Node) (string, error) {
	switch n.Kind() {
	case KindScalar:
		if s, ok := n.value.(string); ok {
			return s, nil
		}

		return "", invalid("a JSON object or string", n)
	case KindMap, KindList:
		return n.JSON(), nil
	default:
		return "", invalid("a JSON object or string", n)
	}
}

// Enum returns a parser accepting one of values, compared case-insensitively.
// The canonical spelling from values is returned.
func Enum[E ~string](values ...E) Parser[E] {
	folder := cases.Fold()

	folded := make(map[string]E, len(values))
	names := make([]string, 0, len(values))

	for _, v := range values {
		folded[folder.String(string(v))] = v
		names = append(names, string(v))
	}

	expected := "one of: " + strings.Join(names, ", ")

	return func(n *Node) (E, error) {
		if n.Kind() == KindScalar {
			if v, ok := folded[folder.String(n.text)]; ok {
				return v, nil
			}
		}

		var zero E

		return zero, invalid(expected, n)
	}
}

func invalid(expected string, n *Node) *InvalidValueError {
	actual := ""

	switch n.Kind() {
	case KindScalar:
		actual = n.text
	case KindList, KindMap:
		actual = n.JSON()
	}

	return &InvalidValueError{Expected: expected, Actual: actual}
}
