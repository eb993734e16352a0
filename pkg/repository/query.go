package repository

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Operator is a filter comparison.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpContains Operator = "contains"
	OpIn       Operator = "in"
)

// Operators lists the accepted operator names.
var Operators = []Operator{OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpContains, OpIn}

// ParseOperator resolves an operator name (case-insensitive).
func ParseOperator(s string) (Operator, bool) {
	op := Operator(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Operators {
		if op == known {
			return op, true
		}
	}
	return "", false
}

// Criterion is one filter condition applied to a field.
type Criterion struct {
	Operator Operator
	Value    any
}

// Eq builds an equality criterion, the meaning of a bare value.
func Eq(v any) Criterion { return Criterion{Operator: OpEq, Value: v} }

// Contains builds a case-insensitive substring criterion.
func Contains(v any) Criterion { return Criterion{Operator: OpContains, Value: v} }

// In builds a membership criterion.
func In(values ...any) Criterion { return Criterion{Operator: OpIn, Value: values} }

// Filters maps field names to criteria. All criteria must match.
type Filters map[string]Criterion

// Fields returns the filtered field names in sorted order.
func (f Filters) Fields() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String renders the filters deterministically for cache keys:
//
//	"director"="contains":"lucas","episode_id"="in":[i4,i6]
//
// Field names and string values are quoted and other values carry a type
// tag, so distinct filter sets never render alike. Empty filters render "".
func (f Filters) String() string {
	if len(f) == 0 {
		return ""
	}
	var b strings.Builder
	for i, name := range f.Fields() {
		if i > 0 {
			b.WriteByte(',')
		}
		c := f[name]
		b.WriteString(strconv.Quote(name))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(string(c.Operator)))
		b.WriteByte(':')
		writeValue(&b, c.Value)
	}
	return b.String()
}

func writeValue(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteString(strconv.Quote(x))
	case int:
		b.WriteByte('i')
		b.WriteString(strconv.Itoa(x))
	case float64:
		b.WriteByte('f')
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case bool:
		b.WriteByte('b')
		b.WriteString(strconv.FormatBool(x))
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			b.WriteByte('[')
			for i := 0; i < rv.Len(); i++ {
				if i > 0 {
					b.WriteByte(',')
				}
				writeValue(b, rv.Index(i).Interface())
			}
			b.WriteByte(']')
			return
		}
		b.WriteString(strconv.Quote(fmt.Sprintf("%T", v)))
		b.WriteString(strconv.Quote(fmt.Sprint(v)))
	}
}

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Query describes a GetAll call.
type Query struct {
	Page      int
	PageSize  int
	Filters   Filters
	SortBy    string
	SortOrder SortOrder
}

// DefaultQuery is page 1 of 10, unsorted, unfiltered.
func DefaultQuery() Query {
	return Query{Page: 1, PageSize: 10, SortOrder: SortAsc}
}
