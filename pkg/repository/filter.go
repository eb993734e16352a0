package repository

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/gusttavosants/StarWars/pkg/apperr"
	"github.com/gusttavosants/StarWars/pkg/models"
)

// filterEntities narrows entities by every criterion in turn. Field
// presence is checked once per field against the first remaining entity.
func filterEntities[T models.Entity](entities []T, filters Filters) ([]T, error) {
	result := entities
	for _, field := range filters.Fields() {
		criterion := filters[field]

		if len(result) > 0 {
			if _, ok := result[0].Field(field); !ok {
				return nil, apperr.InvalidFilter(field, "field does not exist")
			}
		}

		kept := make([]T, 0, len(result))
		for _, e := range result {
			value, _ := e.Field(field)
			if matchFilter(value, criterion) {
				kept = append(kept, e)
			}
		}
		result = kept
	}
	return result, nil
}

// matchFilter applies one criterion to a field value. Operators without
// a matching rule (gt, gte, lt, lte, unknown) never match.
func matchFilter(fieldValue any, c Criterion) bool {
	switch c.Operator {
	case OpEq:
		return valuesEqual(fieldValue, c.Value)
	case OpNe:
		return !valuesEqual(fieldValue, c.Value)
	case OpContains:
		return strings.Contains(
			strings.ToLower(stringify(fieldValue)),
			strings.ToLower(stringify(c.Value)),
		)
	case OpIn:
		list := reflect.ValueOf(c.Value)
		if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
			return false
		}
		for i := 0; i < list.Len(); i++ {
			if valuesEqual(fieldValue, list.Index(i).Interface()) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// sortEntities returns a stably sorted copy. Empty input is returned as is
// without checking the field.
func sortEntities[T models.Entity](entities []T, field string, order SortOrder) ([]T, error) {
	if len(entities) == 0 {
		return entities, nil
	}
	if _, ok := entities[0].Field(field); !ok {
		return nil, apperr.InvalidSort(field, "field does not exist")
	}

	sorted := slices.Clone(entities)
	slices.SortStableFunc(sorted, func(a, b T) int {
		av, _ := a.Field(field)
		bv, _ := b.Field(field)
		c := compareValues(av, bv)
		if order == SortDesc {
			return -c
		}
		return c
	})
	return sorted, nil
}

// compareValues orders nil first, numbers numerically, strings
// lexicographically and slices element-wise. Mixed kinds compare by
// their string form.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return cmp.Compare(af, bf)
		}
	}

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return cmp.Compare(as, bs)
		}
	}

	if al, ok := a.([]string); ok {
		if bl, ok := b.([]string); ok {
			return slices.Compare(al, bl)
		}
	}

	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func valuesEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}
