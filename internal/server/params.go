package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gusttavosants/StarWars/pkg/apperr"
	"github.com/gusttavosants/StarWars/pkg/models"
	"github.com/gusttavosants/StarWars/pkg/pagination"
	"github.com/gusttavosants/StarWars/pkg/repository"
	"github.com/gusttavosants/StarWars/pkg/service"
	"github.com/gusttavosants/StarWars/pkg/validation"
)

// DefaultPageSize applies when page_size is omitted.
const DefaultPageSize = 10

// PaginatedResponse is the body of a list endpoint.
type PaginatedResponse[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

func newPage[T any](items []T, total, page, pageSize int) PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}
	return PaginatedResponse[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pagination.TotalPages(total, pageSize),
	}
}

// listParams are the query parameters of a list endpoint.
type listParams struct {
	Page      int    `query:"page" validate:"gte=1"`
	PageSize  int    `query:"page_size" validate:"gte=1,lte=100"`
	SortBy    string `query:"sort_by"`
	SortOrder string `query:"sort_order" validate:"oneof=asc desc"`
	Search    string `query:"search"`
	Filters   []string
}

func parseListParams(values url.Values) (listParams, error) {
	p := listParams{
		Page:      1,
		PageSize:  DefaultPageSize,
		SortBy:    strings.TrimSpace(values.Get("sort_by")),
		SortOrder: string(repository.SortAsc),
		Search:    strings.TrimSpace(values.Get("search")),
		Filters:   values["filter"],
	}

	var err error
	if p.Page, err = intParam(values, "page", p.Page); err != nil {
		return p, err
	}
	if p.PageSize, err = intParam(values, "page_size", p.PageSize); err != nil {
		return p, err
	}
	if v := values.Get("sort_order"); v != "" {
		p.SortOrder = strings.ToLower(v)
	}

	return p, validation.Request(&p)
}

func intParam(values url.Values, name string, def int) (int, error) {
	v := values.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation(fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}

// query builds a repository query after checking the sort and filter
// fields against the resource's field table.
func (p listParams) query(fields fieldSchema) (repository.Query, error) {
	q := repository.Query{
		Page:      p.Page,
		PageSize:  p.PageSize,
		SortBy:    p.SortBy,
		SortOrder: repository.SortOrder(p.SortOrder),
	}

	if q.SortBy != "" && !fields.has(q.SortBy) {
		return q, apperr.InvalidSort(q.SortBy, "field does not exist")
	}

	if len(p.Filters) == 0 {
		return q, nil
	}

	q.Filters = make(repository.Filters, len(p.Filters))
	for _, raw := range p.Filters {
		field, criterion, err := parseFilter(raw)
		if err != nil {
			return q, err
		}
		sample, ok := fields.sample(field)
		if !ok {
			return q, apperr.InvalidFilter(field, "field does not exist")
		}
		q.Filters[field] = coerceCriterion(criterion, sample)
	}
	return q, nil
}

// parseFilter accepts "field:op:value" and "field=value" (eq). Whichever
// separator appears first decides the form, so values may contain either.
func parseFilter(raw string) (string, repository.Criterion, error) {
	colon := strings.IndexByte(raw, ':')
	equals := strings.IndexByte(raw, '=')

	if equals > 0 && (colon < 0 || equals < colon) {
		return strings.TrimSpace(raw[:equals]), repository.Eq(raw[equals+1:]), nil
	}

	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" {
		return "", repository.Criterion{}, apperr.InvalidFilter(raw, "expected field:operator:value or field=value")
	}

	field := strings.TrimSpace(parts[0])
	op, ok := repository.ParseOperator(parts[1])
	if !ok {
		return "", repository.Criterion{}, apperr.InvalidFilter(field, fmt.Sprintf("unknown operator %q", parts[1]))
	}

	if op == repository.OpIn {
		items := strings.Split(parts[2], ",")
		values := make([]any, len(items))
		for i, item := range items {
			values[i] = strings.TrimSpace(item)
		}
		return field, repository.In(values...), nil
	}
	return field, repository.Criterion{Operator: op, Value: parts[2]}, nil
}

// coerceCriterion converts string values to the field's numeric type so
// that eq/ne/in compare numbers with numbers (episode_id=4).
func coerceCriterion(c repository.Criterion, sample any) repository.Criterion {
	switch v := c.Value.(type) {
	case string:
		c.Value = coerce(v, sample)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			if s, ok := item.(string); ok {
				out[i] = coerce(s, sample)
			} else {
				out[i] = item
			}
		}
		c.Value = out
	}
	return c
}

// A nil sample comes from an optional numeric field such as episode_id.
func coerce(raw string, sample any) any {
	switch sample.(type) {
	case int, nil:
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			return n
		}
	case float64:
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return f
		}
	}
	return raw
}

// fieldSchema answers field questions for one entity type without
// exposing its type parameter to the handlers.
type fieldSchema struct {
	has    func(name string) bool
	sample func(name string) (any, bool)
}

func schemaOf[T models.Entity](fields models.FieldTable[T]) fieldSchema {
	var zero T
	return fieldSchema{
		has: fields.Has,
		sample: func(name string) (any, bool) {
			return fields.Lookup(zero, name)
		},
	}
}

// searchParam validates a path search term.
func searchParam(query string) error {
	if len([]rune(strings.TrimSpace(query))) < service.MinSearchLength {
		return apperr.Validation(fmt.Sprintf("search query must be at least %d characters", service.MinSearchLength))
	}
	return nil
}

// pathParam returns the decoded chi URL parameter. chi matches on the
// raw path when one is set, leaving escapes such as %2F in place.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
