package search

import (
	"errors"
	"testing"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		method string
		action Action
		groups [][]Predicate
		sorts  []Sort
		args   int
	}{
		{
			method: "findByPriceBetween",
			action: ActionFind,
			groups: [][]Predicate{{{"price", PredicateBetween}}},
			args:   2,
		},
		{
			method: "findByTitleOrPrice",
			action: ActionFind,
			groups: [][]Predicate{{{"title", PredicateSimple}}, {{"price", PredicateSimple}}},
			args:   2,
		},
		{
			method: "findByMasterNameOrderByIdAsc",
			action: ActionFind,
			groups: [][]Predicate{{{"masterName", PredicateSimple}}},
			sorts:  []Sort{{"id", Asc}},
			args:   1,
		},
		{
			method: "findByBrandAndPriceGreaterThanEqualOrCategoryNotOrderByPriceDescTitleAsc",
			action: ActionFind,
			groups: [][]Predicate{
				{{"brand", PredicateSimple}, {"price", PredicateGreaterThanEqual}},
				{{"category", PredicateNot}},
			},
			sorts: []Sort{{"price", Desc}, {"title", Asc}},
			args:  3,
		},
		{
			method: "countByBrandIn",
			action: ActionCount,
			groups: [][]Predicate{{{"brand", PredicateIn}}},
			args:   1,
		},
		{
			method: "existsByActiveTrue",
			action: ActionExists,
			groups: [][]Predicate{{{"active", PredicateTrue}}},
			args:   0,
		},
		{
			method: "deleteByPriceIsLessThan",
			action: ActionDelete,
			groups: [][]Predicate{{{"price", PredicateLessThan}}},
			args:   1,
		},
		{
			method: "findByOrigin",
			action: ActionFind,
			groups: [][]Predicate{{{"origin", PredicateSimple}}},
			args:   1,
		},
		{
			method: "searchByTitleLike",
			action: ActionFind,
			groups: [][]Predicate{{{"title", PredicateContaining}}},
			args:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			dq, err := ParseMethod(tt.method)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dq.Action != tt.action {
				t.Errorf("Action = %s, want %s", dq.Action, tt.action)
			}
			if len(dq.Groups) != len(tt.groups) {
				t.Fatalf("Groups = %v, want %v", dq.Groups, tt.groups)
			}
			for i := range tt.groups {
				if len(dq.Groups[i]) != len(tt.groups[i]) {
					t.Fatalf("group %d = %v, want %v", i, dq.Groups[i], tt.groups[i])
				}
				for j := range tt.groups[i] {
					if dq.Groups[i][j] != tt.groups[i][j] {
						t.Errorf("predicate %d.%d = %+v, want %+v", i, j, dq.Groups[i][j], tt.groups[i][j])
					}
				}
			}
			if len(dq.Sorts) != len(tt.sorts) {
				t.Fatalf("Sorts = %v, want %v", dq.Sorts, tt.sorts)
			}
			for i := range tt.sorts {
				if dq.Sorts[i] != tt.sorts[i] {
					t.Errorf("sort %d = %+v, want %+v", i, dq.Sorts[i], tt.sorts[i])
				}
			}
			if dq.ArgCount() != tt.args {
				t.Errorf("ArgCount = %d, want %d", dq.ArgCount(), tt.args)
			}
		})
	}
}

func TestParseMethodErrors(t *testing.T) {
	for _, method := range []string{
		"fetchByTitle",
		"findTitle",
		"findBy",
		"findByTitleOrderBy",
		"findByTitleOrderByPrice",
	} {
		t.Run(method, func(t *testing.T) {
			if _, err := ParseMethod(method); !errors.Is(err, ErrInvalidDerivedQuery) {
				t.Errorf("err = %v, want ErrInvalidDerivedQuery", err)
			}
		})
	}
}

func TestMustParseMethodPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustParseMethod("nope")
}

func TestBindPriceBetween(t *testing.T) {
	q, err := MustParseMethod("findByPriceBetween").Bind(2000, 3500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustJSON(t, q.Source()); got != `{"range":{"price":{"gte":2000,"lte":3500}}}` {
		t.Errorf("Source() = %s", got)
	}
}

func TestBindTitleOrPrice(t *testing.T) {
	q, err := MustParseMethod("findByTitleOrPrice").Bind("小米", 2799)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"bool":{"should":[` +
		`{"match":{"title":{"operator":"and","query":"小米"}}},` +
		`{"match":{"price":{"operator":"and","query":2799}}}]}}`
	if got := mustJSON(t, q.Source()); got != want {
		t.Errorf("Source() = %s\nwant %s", got, want)
	}
}

func TestBindAndGroupWithNegation(t *testing.T) {
	q, err := MustParseMethod("findByBrandAndCategoryNot").Bind("小米", "平板")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"bool":{"must":[{"match":{"brand":{"operator":"and","query":"小米"}}}],` +
		`"must_not":[{"match":{"category":{"operator":"and","query":"平板"}}}]}}`
	if got := mustJSON(t, q.Source()); got != want {
		t.Errorf("Source() = %s\nwant %s", got, want)
	}
}

func TestBindIn(t *testing.T) {
	q, err := MustParseMethod("findByBrandIn").Bind([]string{"小米", "华为"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustJSON(t, q.Source()); got != `{"terms":{"brand":["小米","华为"]}}` {
		t.Errorf("Source() = %s", got)
	}

	if _, err := MustParseMethod("findByBrandIn").Bind("小米"); !errors.Is(err, ErrInvalidDerivedQuery) {
		t.Errorf("non-slice argument: err = %v, want ErrInvalidDerivedQuery", err)
	}
}

func TestBindKeywordQueries(t *testing.T) {
	tests := []struct {
		method string
		arg    any
		want   string
	}{
		{"findByTitleStartingWith", "小", `{"prefix":{"title":{"value":"小"}}}`},
		{"findByTitleEndingWith", "7", `{"wildcard":{"title":{"value":"*7"}}}`},
		{"findByTitleContaining", "米", `{"wildcard":{"title":{"value":"*米*"}}}`},
		{"findByPriceGreaterThan", 100, `{"range":{"price":{"gt":100}}}`},
		{"findByPriceLessThanEqual", 100, `{"range":{"price":{"lte":100}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			q, err := MustParseMethod(tt.method).Bind(tt.arg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := mustJSON(t, q.Source()); got != tt.want {
				t.Errorf("Source() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBindArity(t *testing.T) {
	_, err := MustParseMethod("findByPriceBetween").Bind(2000)
	if !errors.Is(err, ErrInvalidDerivedQuery) {
		t.Fatalf("err = %v, want ErrInvalidDerivedQuery", err)
	}
}

func TestDerivedRequestCarriesSort(t *testing.T) {
	req, err := MustParseMethod("findByBrandOrderByPriceDesc").Request(PageOf(0, 5), "小米")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.Sorts) != 1 || req.Sorts[0] != SortBy("price", Desc) {
		t.Errorf("Sorts = %v", req.Sorts)
	}
	if req.Page != PageOf(0, 5) {
		t.Errorf("Page = %+v", req.Page)
	}
}
