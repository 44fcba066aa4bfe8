package search

// Page is one slice of a larger result together with the paging metadata
// and any aggregations computed alongside it.
type Page[T any] struct {
	Content       []T          `json:"content"`
	TotalElements int64        `json:"total_elements"`
	Number        int          `json:"number"`
	Size          int          `json:"size"`
	Aggregations  Aggregations `json:"aggregations,omitempty"`
}

func NewPage[T any](content []T, pageable PageRequest, total int64, aggs Aggregations) *Page[T] {
	if content == nil {
		content = []T{}
	}
	return &Page[T]{
		Content:       content,
		TotalElements: total,
		Number:        pageable.Page,
		Size:          pageable.Size,
		Aggregations:  aggs,
	}
}

func (p *Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 1
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

func (p *Page[T]) NumberOfElements() int { return len(p.Content) }

func (p *Page[T]) HasContent() bool { return len(p.Content) > 0 }

func (p *Page[T]) HasNext() bool { return p.Number+1 < p.TotalPages() }

func (p *Page[T]) HasPrevious() bool { return p.Number > 0 }

func (p *Page[T]) IsFirst() bool { return !p.HasPrevious() }

func (p *Page[T]) IsLast() bool { return !p.HasNext() }

// Aggregation looks up an aggregation result by the name it was requested
// under.
func (p *Page[T]) Aggregation(name string) (*AggregationResult, bool) {
	return p.Aggregations.Get(name)
}
