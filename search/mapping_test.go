package search

import (
	"errors"
	"testing"
)

func TestIndexSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    IndexSpec
		wantErr bool
	}{
		{"valid", IndexSpec{Name: "item", Fields: []FieldSpec{{Name: "title", Type: Text}}}, false},
		{"missing name", IndexSpec{}, true},
		{"upper case", IndexSpec{Name: "TestData"}, true},
		{"unnamed field", IndexSpec{Name: "item", Fields: []FieldSpec{{Type: Keyword}}}, true},
		{"duplicate field", IndexSpec{Name: "item", Fields: []FieldSpec{{Name: "a", Type: Long}, {Name: "a", Type: Text}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v does not wrap ErrInvalidRequest", err)
			}
		})
	}
}

func TestIndexSpecMapping(t *testing.T) {
	spec := IndexSpec{
		Name:     "item",
		Type:     "docs",
		Shards:   1,
		Replicas: 0,
		Fields: []FieldSpec{
			{Name: "title", Type: Text, Analyzer: "standard"},
			{Name: "brand", Type: Keyword, Analyzer: "ignored"},
			{Name: "imageUrl", Type: Keyword, NotIndexed: true},
		},
	}

	wantMapping := `{"_meta":{"type":"docs"},"properties":{"brand":{"type":"keyword"},"imageUrl":{"index":false,"type":"keyword"},"title":{"analyzer":"standard","type":"text"}}}`
	if got := mustJSON(t, spec.Mapping()); got != wantMapping {
		t.Errorf("Mapping() = %s\nwant %s", got, wantMapping)
	}
	if got := mustJSON(t, spec.Settings()); got != `{"number_of_replicas":0,"number_of_shards":1}` {
		t.Errorf("Settings() = %s", got)
	}
	if got := mustJSON(t, IndexSpec{Name: "x"}.Settings()); got != `{}` {
		t.Errorf("default Settings() = %s, want {}", got)
	}

	if f, ok := spec.Field("title"); !ok || f.Analyzer != "standard" {
		t.Errorf("Field(title) = %+v, %t", f, ok)
	}
	if _, ok := spec.Field("price"); ok {
		t.Error("Field(price) should not exist")
	}
}

func TestAggregationValidate(t *testing.T) {
	if err := TermsAgg("brands", "brand").SubAggregation(AvgAgg("price_avg", "price")).Validate(); err != nil {
		t.Errorf("valid aggregation rejected: %v", err)
	}
	bad := []*Aggregation{
		TermsAgg("", "brand"),
		AvgAgg("avg", "price").SubAggregation(SumAgg("s", "price")),
		TermsAgg("b", "brand").SubAggregation(AvgAgg("x", "price"), SumAgg("x", "price")),
		{Name: "odd", Kind: "histogram", Field: "price"},
	}
	for _, a := range bad {
		if err := a.Validate(); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidRequest", a, err)
		}
	}
}

func TestAggregationSource(t *testing.T) {
	agg := TermsAgg("brands", "brand").Size(5).SubAggregation(AvgAgg("price_avg", "price"))
	want := `{"aggs":{"price_avg":{"avg":{"field":"price"}}},"terms":{"field":"brand","size":5}}`
	if got := mustJSON(t, agg.Source()); got != want {
		t.Errorf("Source() = %s\nwant %s", got, want)
	}
}
