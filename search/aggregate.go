package search

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// ComputeAggregations evaluates aggregations over already matched document
// sources. Engines without a native aggregation framework use it.
func ComputeAggregations(aggs []*Aggregation, docs []map[string]any) Aggregations {
	out := make(Aggregations, len(aggs))
	for _, agg := range aggs {
		out[agg.Name] = computeAggregation(agg, docs)
	}
	return out
}

func computeAggregation(agg *Aggregation, docs []map[string]any) *AggregationResult {
	res := &AggregationResult{Name: agg.Name, Kind: agg.Kind}
	if agg.Kind != KindTerms {
		res.Value = computeMetric(agg.Kind, agg.Field, docs)
		return res
	}

	groups := map[string][]map[string]any{}
	for _, doc := range docs {
		seen := map[string]struct{}{}
		for _, v := range fieldValues(doc[agg.Field]) {
			key := KeyString(v)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			groups[key] = append(groups[key], doc)
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := len(groups[keys[i]]), len(groups[keys[j]])
		if ci != cj {
			return ci > cj
		}
		return keys[i] < keys[j]
	})
	if len(keys) > agg.size() {
		keys = keys[:agg.size()]
	}

	res.Buckets = make([]Bucket, 0, len(keys))
	for _, k := range keys {
		b := Bucket{Key: k, DocCount: int64(len(groups[k]))}
		if len(agg.Subs) > 0 {
			b.Aggregations = ComputeAggregations(agg.Subs, groups[k])
		}
		res.Buckets = append(res.Buckets, b)
	}
	return res
}

func computeMetric(kind AggregationKind, field string, docs []map[string]any) *float64 {
	var (
		sum   float64
		count int
		lo    float64
		hi    float64
	)
	for _, doc := range docs {
		for _, v := range fieldValues(doc[field]) {
			f, ok := NumericValue(v)
			if !ok {
				continue
			}
			if count == 0 || f < lo {
				lo = f
			}
			if count == 0 || f > hi {
				hi = f
			}
			sum += f
			count++
		}
	}

	var v float64
	switch kind {
	case KindSum:
		return &sum
	case KindAvg:
		if count == 0 {
			return nil
		}
		v = sum / float64(count)
	case KindMin:
		if count == 0 {
			return nil
		}
		v = lo
	case KindMax:
		if count == 0 {
			return nil
		}
		v = hi
	}
	return &v
}

func fieldValues(v any) []any {
	switch vv := v.(type) {
	case nil:
		return nil
	case []any:
		return vv
	default:
		return []any{v}
	}
}

// NumericValue converts a decoded JSON value to float64. Numeric strings are
// accepted, as Elasticsearch coerces them on numeric fields.
func NumericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// KeyString formats a field value the way bucket keys are reported.
func KeyString(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(k)
	case json.Number:
		return k.String()
	}
	return fmt.Sprint(v)
}
