package search

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Action is what a derived method does with the matches.
type Action string

const (
	ActionFind   Action = "find"
	ActionCount  Action = "count"
	ActionExists Action = "exists"
	ActionDelete Action = "delete"
)

type PredicateKind string

const (
	PredicateSimple           PredicateKind = "Simple"
	PredicateNot              PredicateKind = "Not"
	PredicateBetween          PredicateKind = "Between"
	PredicateLessThan         PredicateKind = "LessThan"
	PredicateLessThanEqual    PredicateKind = "LessThanEqual"
	PredicateGreaterThan      PredicateKind = "GreaterThan"
	PredicateGreaterThanEqual PredicateKind = "GreaterThanEqual"
	PredicateBefore           PredicateKind = "Before"
	PredicateAfter            PredicateKind = "After"
	PredicateStartingWith     PredicateKind = "StartingWith"
	PredicateEndingWith       PredicateKind = "EndingWith"
	PredicateContaining       PredicateKind = "Containing"
	PredicateIn               PredicateKind = "In"
	PredicateNotIn            PredicateKind = "NotIn"
	PredicateTrue             PredicateKind = "True"
	PredicateFalse            PredicateKind = "False"
)

// keyword suffixes, longest first so GreaterThanEqual wins over GreaterThan.
var predicateKeywords = []struct {
	suffix string
	kind   PredicateKind
}{
	{"GreaterThanEqual", PredicateGreaterThanEqual},
	{"LessThanEqual", PredicateLessThanEqual},
	{"StartingWith", PredicateStartingWith},
	{"GreaterThan", PredicateGreaterThan},
	{"EndingWith", PredicateEndingWith},
	{"Containing", PredicateContaining},
	{"LessThan", PredicateLessThan},
	{"Contains", PredicateContaining},
	{"Between", PredicateBetween},
	{"Before", PredicateBefore},
	{"Equals", PredicateSimple},
	{"After", PredicateAfter},
	{"False", PredicateFalse},
	{"NotIn", PredicateNotIn},
	{"Like", PredicateContaining},
	{"True", PredicateTrue},
	{"Not", PredicateNot},
	{"In", PredicateIn},
	{"Is", PredicateSimple},
}

func (k PredicateKind) arity() int {
	switch k {
	case PredicateBetween:
		return 2
	case PredicateTrue, PredicateFalse:
		return 0
	}
	return 1
}

func (k PredicateKind) negated() bool {
	return k == PredicateNot || k == PredicateNotIn
}

type Predicate struct {
	Field string
	Kind  PredicateKind
}

// DerivedQuery is a query parsed from a repository method name such as
// findByPriceBetween or findByTitleOrPriceOrderByPriceDesc.
type DerivedQuery struct {
	Method string
	Action Action
	// Groups are OR-ed; predicates inside a group are AND-ed.
	Groups [][]Predicate
	Sorts  []Sort
}

var methodPattern = regexp.MustCompile(`^(find|read|get|query|search|stream|count|exists|delete|remove)([A-Za-z0-9]*?)By([A-Z].*)$`)

var orderPattern = regexp.MustCompile(`([A-Z][A-Za-z0-9]*?)(Asc|Desc)`)

// ParseMethod derives a query from a method name.
func ParseMethod(method string) (*DerivedQuery, error) {
	m := methodPattern.FindStringSubmatch(method)
	if m == nil {
		return nil, fmt.Errorf("%w: %q does not start with a known prefix followed by By", ErrInvalidDerivedQuery, method)
	}

	dq := &DerivedQuery{Method: method}
	switch m[1] {
	case "count":
		dq.Action = ActionCount
	case "exists":
		dq.Action = ActionExists
	case "delete", "remove":
		dq.Action = ActionDelete
	default:
		dq.Action = ActionFind
	}

	criteria := m[3]
	if i := strings.Index(criteria, "OrderBy"); i >= 0 {
		order := criteria[i+len("OrderBy"):]
		criteria = criteria[:i]
		sorts, err := parseOrder(method, order)
		if err != nil {
			return nil, err
		}
		dq.Sorts = sorts
	}
	if criteria == "" {
		return nil, fmt.Errorf("%w: %q has no criteria", ErrInvalidDerivedQuery, method)
	}

	for _, orPart := range splitKeyword(criteria, "Or") {
		var group []Predicate
		for _, andPart := range splitKeyword(orPart, "And") {
			p, err := parsePredicate(method, andPart)
			if err != nil {
				return nil, err
			}
			group = append(group, p)
		}
		dq.Groups = append(dq.Groups, group)
	}
	return dq, nil
}

// MustParseMethod is ParseMethod for method names fixed at compile time.
func MustParseMethod(method string) *DerivedQuery {
	dq, err := ParseMethod(method)
	if err != nil {
		panic(err)
	}
	return dq
}

func parseOrder(method, order string) ([]Sort, error) {
	matches := orderPattern.FindAllStringSubmatch(order, -1)
	if len(matches) == 0 || len(strings.Join(flatten(matches), "")) != len(order) {
		return nil, fmt.Errorf("%w: %q has a malformed OrderBy clause", ErrInvalidDerivedQuery, method)
	}
	sorts := make([]Sort, 0, len(matches))
	for _, sm := range matches {
		dir := Asc
		if sm[2] == "Desc" {
			dir = Desc
		}
		sorts = append(sorts, SortBy(propertyName(sm[1]), dir))
	}
	return sorts, nil
}

func flatten(matches [][]string) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[0])
	}
	return out
}

func parsePredicate(method, part string) (Predicate, error) {
	prop, kind := part, PredicateSimple
	for _, kw := range predicateKeywords {
		if strings.HasSuffix(part, kw.suffix) && len(part) > len(kw.suffix) {
			prop, kind = strings.TrimSuffix(part, kw.suffix), kw.kind
			break
		}
	}
	if kind != PredicateSimple && len(prop) > 2 && strings.HasSuffix(prop, "Is") {
		prop = strings.TrimSuffix(prop, "Is")
	}
	if prop == "" {
		return Predicate{}, fmt.Errorf("%w: %q has an empty property", ErrInvalidDerivedQuery, method)
	}
	return Predicate{Field: propertyName(prop), Kind: kind}, nil
}

// splitKeyword splits camel case text on a connective that starts a new word
// and is followed by another word, so "TitleOrPrice" splits but "Origin"
// does not.
func splitKeyword(s, kw string) []string {
	var parts []string
	start := 0
	for i := 1; i+len(kw) < len(s); i++ {
		if s[i:i+len(kw)] != kw {
			continue
		}
		prev, next := rune(s[i-1]), rune(s[i+len(kw)])
		if unicode.IsUpper(next) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			parts = append(parts, s[start:i])
			start = i + len(kw)
			i = start
		}
	}
	return append(parts, s[start:])
}

func propertyName(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// ArgCount is the number of arguments Bind expects.
func (dq *DerivedQuery) ArgCount() int {
	n := 0
	for _, g := range dq.Groups {
		for _, p := range g {
			n += p.Kind.arity()
		}
	}
	return n
}

// Bind substitutes arguments in declaration order and returns the query.
func (dq *DerivedQuery) Bind(args ...any) (Query, error) {
	if len(args) != dq.ArgCount() {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrInvalidDerivedQuery, dq.Method, dq.ArgCount(), len(args))
	}

	groups := make([]Query, 0, len(dq.Groups))
	next := 0
	for _, g := range dq.Groups {
		b := Bool()
		for _, p := range g {
			n := p.Kind.arity()
			q, err := predicateQuery(p, args[next:next+n])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", dq.Method, err)
			}
			next += n
			if p.Kind.negated() {
				b.MustNot(q)
			} else {
				b.Must(q)
			}
		}
		if len(b.Musts) == 1 && len(b.MustNots) == 0 {
			groups = append(groups, b.Musts[0])
			continue
		}
		groups = append(groups, b)
	}
	if len(groups) == 1 {
		return groups[0], nil
	}
	return Bool().Should(groups...), nil
}

// Request binds the arguments and applies the derived ordering.
func (dq *DerivedQuery) Request(page PageRequest, args ...any) (*Request, error) {
	q, err := dq.Bind(args...)
	if err != nil {
		return nil, err
	}
	return NewQueryBuilder().WithQuery(q).WithSort(dq.Sorts...).WithPageable(page).Build(), nil
}

func predicateQuery(p Predicate, args []any) (Query, error) {
	switch p.Kind {
	case PredicateSimple, PredicateNot:
		return Match(p.Field, args[0]).WithOperator(OperatorAnd), nil
	case PredicateBetween:
		return Between(p.Field, args[0], args[1]), nil
	case PredicateLessThan, PredicateBefore:
		return Range(p.Field).Lt(args[0]), nil
	case PredicateLessThanEqual:
		return Range(p.Field).Lte(args[0]), nil
	case PredicateGreaterThan, PredicateAfter:
		return Range(p.Field).Gt(args[0]), nil
	case PredicateGreaterThanEqual:
		return Range(p.Field).Gte(args[0]), nil
	case PredicateStartingWith:
		return Prefix(p.Field, fmt.Sprint(args[0])), nil
	case PredicateEndingWith:
		return Wildcard(p.Field, "*"+fmt.Sprint(args[0])), nil
	case PredicateContaining:
		return Wildcard(p.Field, "*"+fmt.Sprint(args[0])+"*"), nil
	case PredicateIn, PredicateNotIn:
		values, err := sliceArg(args[0])
		if err != nil {
			return nil, err
		}
		return Terms(p.Field, values...), nil
	case PredicateTrue:
		return Term(p.Field, true), nil
	case PredicateFalse:
		return Term(p.Field, false), nil
	}
	return nil, fmt.Errorf("%w: unsupported predicate %s", ErrInvalidDerivedQuery, p.Kind)
}

func sliceArg(arg any) ([]any, error) {
	v := reflect.ValueOf(arg)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: In expects a slice, got %T", ErrInvalidDerivedQuery, arg)
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out, nil
}
