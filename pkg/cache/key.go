package cache

import (
	"fmt"
	"strings"
)

// Operation names used in repository cache keys.
const (
	OpByID   = "by_id"
	OpAll    = "all"
	OpSearch = "search"
)

// Key identifies the cached result of one repository operation.
type Key struct {
	// Resource is the SWAPI collection ("people", "films", ...)
	Resource string

	// Operation is the repository operation (by_id, all, search)
	Operation string

	// Args are the operation arguments in call order
	Args []any
}

// NewKey builds a key for resource and operation with args.
func NewKey(resource, operation string, args ...any) Key {
	return Key{Resource: resource, Operation: operation, Args: args}
}

// String generates a deterministic cache key string.
// Format: resource:operation:arg1_arg2_...
//
// Example:
//
//	people:all:1_10_none_name_asc
//
// Absent arguments (nil or empty string) render as "none".
func (k Key) String() string {
	parts := make([]string, len(k.Args))
	for i, arg := range k.Args {
		parts[i] = formatArg(arg)
	}
	return k.Resource + ":" + k.Operation + ":" + strings.Join(parts, "_")
}

func formatArg(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "none"
	case string:
		if v == "" {
			return "none"
		}
		return v
	case fmt.Stringer:
		s := v.String()
		if s == "" {
			return "none"
		}
		return s
	default:
		return fmt.Sprint(v)
	}
}
