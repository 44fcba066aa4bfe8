package search

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type AggregationKind string

const (
	KindTerms AggregationKind = "terms"
	KindAvg   AggregationKind = "avg"
	KindSum   AggregationKind = "sum"
	KindMin   AggregationKind = "min"
	KindMax   AggregationKind = "max"
)

const DefaultBucketSize = 10

// Aggregation is a request for a bucket or metric aggregation. Only terms
// aggregations may carry sub-aggregations.
type Aggregation struct {
	Name       string
	Kind       AggregationKind
	Field      string
	BucketSize int
	Subs       []*Aggregation
}

// TermsAgg buckets documents by the values of field.
func TermsAgg(name, field string) *Aggregation {
	return &Aggregation{Name: name, Kind: KindTerms, Field: field}
}

func AvgAgg(name, field string) *Aggregation {
	return &Aggregation{Name: name, Kind: KindAvg, Field: field}
}

func SumAgg(name, field string) *Aggregation {
	return &Aggregation{Name: name, Kind: KindSum, Field: field}
}

func MinAgg(name, field string) *Aggregation {
	return &Aggregation{Name: name, Kind: KindMin, Field: field}
}

func MaxAgg(name, field string) *Aggregation {
	return &Aggregation{Name: name, Kind: KindMax, Field: field}
}

func (a *Aggregation) Size(n int) *Aggregation {
	a.BucketSize = n
	return a
}

func (a *Aggregation) SubAggregation(subs ...*Aggregation) *Aggregation {
	a.Subs = append(a.Subs, subs...)
	return a
}

func (a *Aggregation) size() int {
	if a.BucketSize > 0 {
		return a.BucketSize
	}
	return DefaultBucketSize
}

func (a *Aggregation) Validate() error {
	if a.Name == "" || a.Field == "" {
		return fmt.Errorf("%w: aggregation needs a name and a field", ErrInvalidRequest)
	}
	switch a.Kind {
	case KindTerms:
	case KindAvg, KindSum, KindMin, KindMax:
		if len(a.Subs) > 0 {
			return fmt.Errorf("%w: metric aggregation %s cannot have sub-aggregations", ErrInvalidRequest, a.Name)
		}
	default:
		return fmt.Errorf("%w: unknown aggregation kind %q", ErrInvalidRequest, a.Kind)
	}
	names := make(map[string]struct{}, len(a.Subs))
	for _, sub := range a.Subs {
		if _, dup := names[sub.Name]; dup {
			return fmt.Errorf("%w: duplicate sub-aggregation %s", ErrInvalidRequest, sub.Name)
		}
		names[sub.Name] = struct{}{}
		if err := sub.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregation) Source() map[string]any {
	body := map[string]any{"field": a.Field}
	if a.Kind == KindTerms {
		body["size"] = a.size()
	}
	src := map[string]any{string(a.Kind): body}
	if len(a.Subs) > 0 {
		src["aggs"] = aggregationsSource(a.Subs)
	}
	return src
}

func aggregationsSource(aggs []*Aggregation) map[string]any {
	out := make(map[string]any, len(aggs))
	for _, a := range aggs {
		out[a.Name] = a.Source()
	}
	return out
}

// Aggregations maps aggregation names to their results.
type Aggregations map[string]*AggregationResult

func (a Aggregations) Get(name string) (*AggregationResult, bool) {
	r, ok := a[name]
	return r, ok
}

type AggregationResult struct {
	Name    string          `json:"name"`
	Kind    AggregationKind `json:"kind"`
	Value   *float64        `json:"value,omitempty"`
	Buckets []Bucket        `json:"buckets,omitempty"`
}

func (r *AggregationResult) Bucket(key string) (Bucket, bool) {
	for _, b := range r.Buckets {
		if b.Key == key {
			return b, true
		}
	}
	return Bucket{}, false
}

type Bucket struct {
	Key          string       `json:"key"`
	DocCount     int64        `json:"doc_count"`
	Aggregations Aggregations `json:"aggregations,omitempty"`
}

// Metric returns the value of a metric sub-aggregation of the bucket.
func (b Bucket) Metric(name string) (float64, bool) {
	r, ok := b.Aggregations[name]
	if !ok || r.Value == nil {
		return 0, false
	}
	return *r.Value, true
}

// ParseAggregations decodes the "aggregations" section of an Elasticsearch
// response, using the requested tree to know each aggregation's kind.
func ParseAggregations(requested []*Aggregation, raw map[string]json.RawMessage) (Aggregations, error) {
	out := make(Aggregations, len(requested))
	for _, agg := range requested {
		body, ok := raw[agg.Name]
		if !ok {
			continue
		}
		res, err := parseAggregation(agg, body)
		if err != nil {
			return nil, fmt.Errorf("aggregation %s: %w", agg.Name, err)
		}
		out[agg.Name] = res
	}
	return out, nil
}

func parseAggregation(agg *Aggregation, body json.RawMessage) (*AggregationResult, error) {
	res := &AggregationResult{Name: agg.Name, Kind: agg.Kind}
	if agg.Kind != KindTerms {
		var metric struct {
			Value *float64 `json:"value"`
		}
		if err := json.Unmarshal(body, &metric); err != nil {
			return nil, err
		}
		res.Value = metric.Value
		return res, nil
	}

	var terms struct {
		Buckets []map[string]json.RawMessage `json:"buckets"`
	}
	if err := json.Unmarshal(body, &terms); err != nil {
		return nil, err
	}
	res.Buckets = make([]Bucket, 0, len(terms.Buckets))
	for _, rawBucket := range terms.Buckets {
		b := Bucket{Key: bucketKey(rawBucket)}
		if dc, ok := rawBucket["doc_count"]; ok {
			if err := json.Unmarshal(dc, &b.DocCount); err != nil {
				return nil, err
			}
		}
		if len(agg.Subs) > 0 {
			subs, err := ParseAggregations(agg.Subs, rawBucket)
			if err != nil {
				return nil, err
			}
			b.Aggregations = subs
		}
		res.Buckets = append(res.Buckets, b)
	}
	return res, nil
}

func bucketKey(raw map[string]json.RawMessage) string {
	if kas, ok := raw["key_as_string"]; ok {
		var s string
		if json.Unmarshal(kas, &s) == nil {
			return s
		}
	}
	key := raw["key"]
	var s string
	if json.Unmarshal(key, &s) == nil {
		return s
	}
	var f float64
	if json.Unmarshal(key, &f) == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(key)
}
