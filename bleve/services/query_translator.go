package services

import (
	"fmt"

	"elasticsearch-demo-backend/search"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// translate turns a search.Query into the equivalent bleve query. The index
// spec decides how a field is matched: numeric fields by numeric range,
// keyword fields by exact term, text fields through their analyzer.
func translate(spec search.IndexSpec, q search.Query) (query.Query, error) {
	switch v := q.(type) {
	case nil, *search.MatchAllQuery:
		return bleve.NewMatchAllQuery(), nil

	case *search.TermQuery:
		return exactQuery(spec, v.Field, v.Value)

	case *search.TermsQuery:
		if len(v.Values) == 0 {
			return bleve.NewMatchNoneQuery(), nil
		}
		disjuncts := make([]query.Query, 0, len(v.Values))
		for _, value := range v.Values {
			dq, err := exactQuery(spec, v.Field, value)
			if err != nil {
				return nil, err
			}
			disjuncts = append(disjuncts, dq)
		}
		return bleve.NewDisjunctionQuery(disjuncts...), nil

	case *search.MatchQuery:
		if f, ok := spec.Field(v.Field); !ok || f.Type == search.Text {
			mq := bleve.NewMatchQuery(search.KeyString(v.Value))
			mq.SetField(v.Field)
			if v.Operator == search.OperatorAnd {
				mq.SetOperator(query.MatchQueryOperatorAnd)
			}
			return mq, nil
		}
		return exactQuery(spec, v.Field, v.Value)

	case *search.RangeQuery:
		return rangeQuery(spec, v)

	case *search.BoolQuery:
		return boolQuery(spec, v)

	case *search.IDsQuery:
		return bleve.NewDocIDQuery(v.Values), nil

	case *search.PrefixQuery:
		pq := bleve.NewPrefixQuery(v.Prefix)
		pq.SetField(v.Field)
		return pq, nil

	case *search.WildcardQuery:
		wq := bleve.NewWildcardQuery(v.Pattern)
		wq.SetField(v.Field)
		return wq, nil
	}
	return nil, fmt.Errorf("%w: unsupported query type %T", search.ErrInvalidRequest, q)
}

func exactQuery(spec search.IndexSpec, field string, value any) (query.Query, error) {
	f, _ := spec.Field(field)
	switch {
	case f.Type.Numeric():
		n, ok := search.NumericValue(value)
		if !ok {
			return nil, fmt.Errorf("%w: field %s expects a number, got %v", search.ErrInvalidRequest, field, value)
		}
		inclusive := true
		nq := bleve.NewNumericRangeInclusiveQuery(&n, &n, &inclusive, &inclusive)
		nq.SetField(field)
		return nq, nil
	case f.Type == search.Boolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: field %s expects a boolean, got %v", search.ErrInvalidRequest, field, value)
		}
		bq := bleve.NewBoolFieldQuery(b)
		bq.SetField(field)
		return bq, nil
	}
	tq := bleve.NewTermQuery(search.KeyString(value))
	tq.SetField(field)
	return tq, nil
}

func rangeQuery(spec search.IndexSpec, r *search.RangeQuery) (query.Query, error) {
	f, _ := spec.Field(r.Field)
	lower, upper := r.IncludeLower, r.IncludeUpper

	switch {
	case f.Type.Numeric():
		var min, max *float64
		if r.From != nil {
			n, ok := search.NumericValue(r.From)
			if !ok {
				return nil, fmt.Errorf("%w: range on %s expects numbers", search.ErrInvalidRequest, r.Field)
			}
			min = &n
		}
		if r.To != nil {
			n, ok := search.NumericValue(r.To)
			if !ok {
				return nil, fmt.Errorf("%w: range on %s expects numbers", search.ErrInvalidRequest, r.Field)
			}
			max = &n
		}
		nq := bleve.NewNumericRangeInclusiveQuery(min, max, &lower, &upper)
		nq.SetField(r.Field)
		return nq, nil
	case f.Type == search.Date:
		return nil, fmt.Errorf("%w: date ranges are not supported by the embedded engine", search.ErrInvalidRequest)
	}

	var min, max string
	if r.From != nil {
		min = search.KeyString(r.From)
	}
	if r.To != nil {
		max = search.KeyString(r.To)
	}
	tq := bleve.NewTermRangeInclusiveQuery(min, max, &lower, &upper)
	tq.SetField(r.Field)
	return tq, nil
}

func boolQuery(spec search.IndexSpec, b *search.BoolQuery) (query.Query, error) {
	convert := func(clauses []search.Query) ([]query.Query, error) {
		out := make([]query.Query, 0, len(clauses))
		for _, c := range clauses {
			bq, err := translate(spec, c)
			if err != nil {
				return nil, err
			}
			out = append(out, bq)
		}
		return out, nil
	}

	musts, err := convert(append(append([]search.Query{}, b.Musts...), b.Filters...))
	if err != nil {
		return nil, err
	}
	shoulds, err := convert(b.Shoulds)
	if err != nil {
		return nil, err
	}
	mustNots, err := convert(b.MustNots)
	if err != nil {
		return nil, err
	}

	if len(musts)+len(shoulds)+len(mustNots) == 0 {
		return bleve.NewMatchAllQuery(), nil
	}

	bq := bleve.NewBooleanQuery()
	if len(musts) > 0 {
		bq.AddMust(musts...)
	}
	if len(shoulds) > 0 {
		bq.AddShould(shoulds...)
		minShould := b.MinimumShouldMatch
		if minShould == 0 && len(musts) == 0 {
			minShould = 1
		}
		if minShould > 0 {
			bq.SetMinShould(float64(minShould))
		}
	}
	if len(mustNots) > 0 {
		bq.AddMustNot(mustNots...)
	}
	return bq, nil
}
