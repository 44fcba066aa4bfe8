package search

// Query is a node of the query tree. Source renders it as Elasticsearch
// query DSL.
type Query interface {
	Source() map[string]any
}

type MatchAllQuery struct{}

func MatchAll() *MatchAllQuery { return &MatchAllQuery{} }

func (q *MatchAllQuery) Source() map[string]any {
	return map[string]any{"match_all": map[string]any{}}
}

// TermQuery matches the exact, unanalysed value of a field.
type TermQuery struct {
	Field string
	Value any
}

func Term(field string, value any) *TermQuery {
	return &TermQuery{Field: field, Value: value}
}

func (q *TermQuery) Source() map[string]any {
	return map[string]any{"term": map[string]any{q.Field: map[string]any{"value": q.Value}}}
}

type TermsQuery struct {
	Field  string
	Values []any
}

func Terms(field string, values ...any) *TermsQuery {
	return &TermsQuery{Field: field, Values: values}
}

func (q *TermsQuery) Source() map[string]any {
	values := q.Values
	if values == nil {
		values = []any{}
	}
	return map[string]any{"terms": map[string]any{q.Field: values}}
}

const (
	OperatorOr  = "or"
	OperatorAnd = "and"
)

// MatchQuery runs the value through the field's analyzer before matching.
type MatchQuery struct {
	Field    string
	Value    any
	Operator string
}

func Match(field string, value any) *MatchQuery {
	return &MatchQuery{Field: field, Value: value}
}

func (q *MatchQuery) WithOperator(op string) *MatchQuery {
	q.Operator = op
	return q
}

func (q *MatchQuery) Source() map[string]any {
	body := map[string]any{"query": q.Value}
	if q.Operator != "" {
		body["operator"] = q.Operator
	}
	return map[string]any{"match": map[string]any{q.Field: body}}
}

// RangeQuery bounds a field from either side; a nil bound is open.
type RangeQuery struct {
	Field        string
	From         any
	To           any
	IncludeLower bool
	IncludeUpper bool
}

func Range(field string) *RangeQuery {
	return &RangeQuery{Field: field}
}

// Between is inclusive on both ends.
func Between(field string, from, to any) *RangeQuery {
	return Range(field).Gte(from).Lte(to)
}

func (q *RangeQuery) Gt(v any) *RangeQuery {
	q.From, q.IncludeLower = v, false
	return q
}

func (q *RangeQuery) Gte(v any) *RangeQuery {
	q.From, q.IncludeLower = v, true
	return q
}

func (q *RangeQuery) Lt(v any) *RangeQuery {
	q.To, q.IncludeUpper = v, false
	return q
}

func (q *RangeQuery) Lte(v any) *RangeQuery {
	q.To, q.IncludeUpper = v, true
	return q
}

func (q *RangeQuery) Source() map[string]any {
	bounds := map[string]any{}
	if q.From != nil {
		if q.IncludeLower {
			bounds["gte"] = q.From
		} else {
			bounds["gt"] = q.From
		}
	}
	if q.To != nil {
		if q.IncludeUpper {
			bounds["lte"] = q.To
		} else {
			bounds["lt"] = q.To
		}
	}
	return map[string]any{"range": map[string]any{q.Field: bounds}}
}

// BoolQuery combines clauses. With no must or filter clause at least one
// should clause has to match.
type BoolQuery struct {
	Musts              []Query
	Shoulds            []Query
	MustNots           []Query
	Filters            []Query
	MinimumShouldMatch int
}

func Bool() *BoolQuery { return &BoolQuery{} }

func (q *BoolQuery) Must(clauses ...Query) *BoolQuery {
	q.Musts = append(q.Musts, clauses...)
	return q
}

func (q *BoolQuery) Should(clauses ...Query) *BoolQuery {
	q.Shoulds = append(q.Shoulds, clauses...)
	return q
}

func (q *BoolQuery) MustNot(clauses ...Query) *BoolQuery {
	q.MustNots = append(q.MustNots, clauses...)
	return q
}

func (q *BoolQuery) Filter(clauses ...Query) *BoolQuery {
	q.Filters = append(q.Filters, clauses...)
	return q
}

func (q *BoolQuery) MinimumShould(n int) *BoolQuery {
	q.MinimumShouldMatch = n
	return q
}

func (q *BoolQuery) Source() map[string]any {
	body := map[string]any{}
	add := func(key string, clauses []Query) {
		if len(clauses) == 0 {
			return
		}
		rendered := make([]any, 0, len(clauses))
		for _, c := range clauses {
			rendered = append(rendered, c.Source())
		}
		body[key] = rendered
	}
	add("must", q.Musts)
	add("should", q.Shoulds)
	add("must_not", q.MustNots)
	add("filter", q.Filters)
	if q.MinimumShouldMatch > 0 {
		body["minimum_should_match"] = q.MinimumShouldMatch
	}
	return map[string]any{"bool": body}
}

type IDsQuery struct {
	Values []string
}

func IDs(ids ...string) *IDsQuery {
	return &IDsQuery{Values: ids}
}

func (q *IDsQuery) Source() map[string]any {
	values := q.Values
	if values == nil {
		values = []string{}
	}
	return map[string]any{"ids": map[string]any{"values": values}}
}

type PrefixQuery struct {
	Field  string
	Prefix string
}

func Prefix(field, prefix string) *PrefixQuery {
	return &PrefixQuery{Field: field, Prefix: prefix}
}

func (q *PrefixQuery) Source() map[string]any {
	return map[string]any{"prefix": map[string]any{q.Field: map[string]any{"value": q.Prefix}}}
}

// WildcardQuery supports * and ? in Pattern.
type WildcardQuery struct {
	Field   string
	Pattern string
}

func Wildcard(field, pattern string) *WildcardQuery {
	return &WildcardQuery{Field: field, Pattern: pattern}
}

func (q *WildcardQuery) Source() map[string]any {
	return map[string]any{"wildcard": map[string]any{q.Field: map[string]any{"value": q.Pattern}}}
}
