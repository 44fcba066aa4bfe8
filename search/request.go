package search

import (
	"encoding/json"
	"fmt"
	"strings"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

type Sort struct {
	Field string
	Order SortOrder
}

func SortBy(field string, order SortOrder) Sort {
	return Sort{Field: field, Order: order}
}

// ParseSort reads a comma separated list such as "-price,title"; a leading
// minus sorts descending.
func ParseSort(expr string) []Sort {
	var sorts []Sort
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "-" || part == "+" {
			continue
		}
		switch part[0] {
		case '-':
			sorts = append(sorts, SortBy(part[1:], Desc))
		case '+':
			sorts = append(sorts, SortBy(part[1:], Asc))
		default:
			sorts = append(sorts, SortBy(part, Asc))
		}
	}
	return sorts
}

const (
	DefaultPageSize = 10
	// MaxResultWindow mirrors index.max_result_window.
	MaxResultWindow = 10000
)

// PageRequest addresses a 0-based page.
type PageRequest struct {
	Page int
	Size int
}

func PageOf(page, size int) PageRequest {
	return PageRequest{Page: page, Size: size}
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// SourceFilter limits which source fields come back with each hit.
type SourceFilter struct {
	Includes []string
	Excludes []string
	Disabled bool
}

// NoSource suppresses document sources entirely; useful for
// aggregation-only requests.
func NoSource() *SourceFilter {
	return &SourceFilter{Disabled: true}
}

func (f *SourceFilter) source() any {
	if f.Disabled {
		return false
	}
	body := map[string]any{}
	if len(f.Includes) > 0 {
		body["includes"] = f.Includes
	}
	if len(f.Excludes) > 0 {
		body["excludes"] = f.Excludes
	}
	return body
}

// Request is a complete search: query, paging, sorting, source filtering
// and aggregations.
type Request struct {
	Query        Query
	Sorts        []Sort
	Page         PageRequest
	SourceFilter *SourceFilter
	Aggregations []*Aggregation
}

// Pageable returns the page with defaults applied.
func (r *Request) Pageable() PageRequest {
	p := r.Page
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Page < 0 {
		p.Page = 0
	}
	return p
}

func (r *Request) Validate() error {
	if r.Page.Page < 0 {
		return fmt.Errorf("%w: page must not be negative", ErrInvalidRequest)
	}
	p := r.Pageable()
	// compare by division so a huge page cannot overflow the offset
	if p.Size > MaxResultWindow || p.Page >= MaxResultWindow/p.Size {
		return fmt.Errorf("%w: from + size must not exceed %d", ErrInvalidRequest, MaxResultWindow)
	}
	for _, s := range r.Sorts {
		if s.Field == "" {
			return fmt.Errorf("%w: sort field is required", ErrInvalidRequest)
		}
		if s.Order != Asc && s.Order != Desc {
			return fmt.Errorf("%w: unknown sort order %q", ErrInvalidRequest, s.Order)
		}
	}
	names := make(map[string]struct{}, len(r.Aggregations))
	for _, agg := range r.Aggregations {
		if _, dup := names[agg.Name]; dup {
			return fmt.Errorf("%w: duplicate aggregation %s", ErrInvalidRequest, agg.Name)
		}
		names[agg.Name] = struct{}{}
		if err := agg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EffectiveQuery falls back to match_all.
func (r *Request) EffectiveQuery() Query {
	if r.Query == nil {
		return MatchAll()
	}
	return r.Query
}

// Body renders the request as an Elasticsearch search body.
func (r *Request) Body() map[string]any {
	p := r.Pageable()
	body := map[string]any{
		"query":            r.EffectiveQuery().Source(),
		"from":             p.Offset(),
		"size":             p.Size,
		"track_total_hits": true,
	}
	if len(r.Sorts) > 0 {
		sorts := make([]any, 0, len(r.Sorts))
		for _, s := range r.Sorts {
			sorts = append(sorts, map[string]any{s.Field: map[string]any{"order": string(s.Order)}})
		}
		body["sort"] = sorts
	}
	if r.SourceFilter != nil {
		body["_source"] = r.SourceFilter.source()
	}
	if len(r.Aggregations) > 0 {
		body["aggs"] = aggregationsSource(r.Aggregations)
	}
	return body
}

// QueryBuilder assembles a Request step by step.
type QueryBuilder struct {
	req Request
}

func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

func (b *QueryBuilder) WithQuery(q Query) *QueryBuilder {
	b.req.Query = q
	return b
}

func (b *QueryBuilder) WithPageable(p PageRequest) *QueryBuilder {
	b.req.Page = p
	return b
}

func (b *QueryBuilder) WithSort(sorts ...Sort) *QueryBuilder {
	b.req.Sorts = append(b.req.Sorts, sorts...)
	return b
}

func (b *QueryBuilder) WithSourceFilter(f *SourceFilter) *QueryBuilder {
	b.req.SourceFilter = f
	return b
}

func (b *QueryBuilder) AddAggregation(agg *Aggregation) *QueryBuilder {
	b.req.Aggregations = append(b.req.Aggregations, agg)
	return b
}

func (b *QueryBuilder) Build() *Request {
	req := b.req
	return &req
}

// Apply filters a raw source the way the engine would. Only top-level
// fields are considered.
func (f *SourceFilter) Apply(src json.RawMessage) (json.RawMessage, error) {
	if f == nil || len(src) == 0 {
		return src, nil
	}
	if f.Disabled {
		return nil, nil
	}
	if len(f.Includes) == 0 && len(f.Excludes) == 0 {
		return src, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(src, &doc); err != nil {
		return nil, err
	}
	if len(f.Includes) > 0 {
		kept := make(map[string]json.RawMessage, len(f.Includes))
		for _, name := range f.Includes {
			if v, ok := doc[name]; ok {
				kept[name] = v
			}
		}
		doc = kept
	}
	for _, name := range f.Excludes {
		delete(doc, name)
	}
	return json.Marshal(doc)
}
