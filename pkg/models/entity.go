// Package models defines the SWAPI entity records and the field tables the
// repository uses to filter and sort them by name.
package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gusttavosants/StarWars/pkg/validation"
)

// Entity is a record deserialized from a SWAPI resource payload.
type Entity interface {
	// GetID returns the trailing path segment of the canonical URL.
	GetID() (string, bool)

	// Field returns the value of the named field.
	Field(name string) (any, bool)
}

// IDFromURL extracts the identifier from a SWAPI resource URL
// (".../people/1/" -> "1"). It reports false when nothing remains after
// trimming trailing slashes.
func IDFromURL(url string) (string, bool) {
	trimmed := strings.TrimRight(url, "/")
	if trimmed == "" {
		return "", false
	}
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

// FieldTable maps field names to accessors for one entity type.
type FieldTable[T any] map[string]func(T) any

// Lookup returns the named field of e.
func (ft FieldTable[T]) Lookup(e T, name string) (any, bool) {
	get, ok := ft[name]
	if !ok {
		return nil, false
	}
	return get(e), true
}

// Has reports whether the table declares name.
func (ft FieldTable[T]) Has(name string) bool {
	_, ok := ft[name]
	return ok
}

// Names returns the declared field names in sorted order.
func (ft FieldTable[T]) Names() []string {
	names := make([]string, 0, len(ft))
	for name := range ft {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the required fields of a freshly decoded entity.
func Validate(e Entity) error {
	if err := validation.Struct(e); err != nil {
		return fmt.Errorf("invalid entity: %w", err)
	}
	return nil
}
