package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"elasticsearch-demo-backend/search"

	"go.uber.org/zap"
)

// Document is an entity that knows its id and the index it maps to.
type Document interface {
	DocumentID() string
	IndexSpec() search.IndexSpec
}

// ElasticsearchRepository gives any Document the usual CRUD, paging,
// sorting, search and derived-query operations.
type ElasticsearchRepository[T Document] struct {
	engine   search.Engine
	template *IndexTemplate
	spec     search.IndexSpec
	logger   *zap.Logger
}

func NewElasticsearchRepository[T Document](engine search.Engine, logger *zap.Logger) *ElasticsearchRepository[T] {
	var zero T
	return &ElasticsearchRepository[T]{
		engine:   engine,
		template: NewIndexTemplate(engine, logger),
		spec:     zero.IndexSpec(),
		logger:   logger,
	}
}

func (r *ElasticsearchRepository[T]) Index() string {
	return r.spec.Name
}

func (r *ElasticsearchRepository[T]) Spec() search.IndexSpec {
	return r.spec
}

// EnsureIndex creates the index and its mapping when missing.
func (r *ElasticsearchRepository[T]) EnsureIndex(ctx context.Context) error {
	return r.template.EnsureIndex(ctx, r.spec)
}

func (r *ElasticsearchRepository[T]) Refresh(ctx context.Context) error {
	return r.engine.Refresh(ctx, r.spec.Name)
}

// Save indexes entity under its id. An existing document with the same id
// is replaced.
func (r *ElasticsearchRepository[T]) Save(ctx context.Context, entity T) (T, error) {
	src, err := json.Marshal(entity)
	if err != nil {
		return entity, fmt.Errorf("failed to marshal %s document: %w", r.spec.Name, err)
	}
	if err := r.engine.IndexDocument(ctx, r.spec.Name, entity.DocumentID(), src); err != nil {
		return entity, err
	}
	return entity, nil
}

func (r *ElasticsearchRepository[T]) SaveAll(ctx context.Context, entities []T) ([]T, error) {
	if len(entities) == 0 {
		return entities, nil
	}

	docs := make([]search.Document, 0, len(entities))
	for _, e := range entities {
		src, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s document %s: %w", r.spec.Name, e.DocumentID(), err)
		}
		docs = append(docs, search.Document{ID: e.DocumentID(), Source: src})
	}

	if err := r.engine.BulkIndexDocuments(ctx, r.spec.Name, docs); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *ElasticsearchRepository[T]) FindByID(ctx context.Context, id string) (T, error) {
	var entity T
	src, err := r.engine.GetDocument(ctx, r.spec.Name, id)
	if err != nil {
		return entity, err
	}
	if err := json.Unmarshal(src, &entity); err != nil {
		return entity, fmt.Errorf("failed to decode %s document %s: %w", r.spec.Name, id, err)
	}
	return entity, nil
}

func (r *ElasticsearchRepository[T]) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := r.engine.GetDocument(ctx, r.spec.Name, id)
	if errors.Is(err, search.ErrDocumentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ElasticsearchRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	return r.FindAllSorted(ctx)
}

// FindAllSorted returns every document, up to the engine's result window.
func (r *ElasticsearchRepository[T]) FindAllSorted(ctx context.Context, sorts ...search.Sort) ([]T, error) {
	return r.searchAll(ctx, search.MatchAll(), sorts)
}

func (r *ElasticsearchRepository[T]) FindAllPaged(ctx context.Context, page search.PageRequest, sorts ...search.Sort) (*search.Page[T], error) {
	req := search.NewQueryBuilder().WithPageable(page).WithSort(sorts...).Build()
	return r.SearchRequest(ctx, req)
}

func (r *ElasticsearchRepository[T]) FindAllByID(ctx context.Context, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	if len(ids) > search.MaxResultWindow {
		return nil, fmt.Errorf("%w: at most %d ids per lookup", search.ErrInvalidRequest, search.MaxResultWindow)
	}
	req := search.NewQueryBuilder().
		WithQuery(search.IDs(ids...)).
		WithPageable(search.PageOf(0, len(ids))).
		Build()
	page, err := r.SearchRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return page.Content, nil
}

func (r *ElasticsearchRepository[T]) Count(ctx context.Context) (int64, error) {
	return r.engine.Count(ctx, r.spec.Name, search.MatchAll())
}

func (r *ElasticsearchRepository[T]) DeleteByID(ctx context.Context, id string) error {
	return r.engine.DeleteDocument(ctx, r.spec.Name, id)
}

func (r *ElasticsearchRepository[T]) Delete(ctx context.Context, entity T) error {
	return r.DeleteByID(ctx, entity.DocumentID())
}

func (r *ElasticsearchRepository[T]) DeleteAll(ctx context.Context) (int64, error) {
	return r.engine.DeleteByQuery(ctx, r.spec.Name, search.MatchAll())
}

// Search returns every document matching q.
func (r *ElasticsearchRepository[T]) Search(ctx context.Context, q search.Query) ([]T, error) {
	return r.searchAll(ctx, q, nil)
}

// SearchRequest runs a full request and returns one page together with any
// requested aggregations.
func (r *ElasticsearchRepository[T]) SearchRequest(ctx context.Context, req *search.Request) (*search.Page[T], error) {
	res, err := r.engine.Search(ctx, r.spec.Name, req)
	if err != nil {
		return nil, err
	}
	content, err := r.decodeHits(res.Hits)
	if err != nil {
		return nil, err
	}
	return search.NewPage(content, req.Pageable(), res.Total, res.Aggregations), nil
}

// FindBy runs a derived find query and returns every match.
func (r *ElasticsearchRepository[T]) FindBy(ctx context.Context, dq *search.DerivedQuery, args ...any) ([]T, error) {
	if dq.Action != search.ActionFind {
		return nil, fmt.Errorf("%w: %s is not a find method", search.ErrInvalidDerivedQuery, dq.Method)
	}
	q, err := dq.Bind(args...)
	if err != nil {
		return nil, err
	}
	return r.searchAll(ctx, q, dq.Sorts)
}

// FindPageBy runs a derived find query for a single page.
func (r *ElasticsearchRepository[T]) FindPageBy(ctx context.Context, dq *search.DerivedQuery, page search.PageRequest, args ...any) (*search.Page[T], error) {
	req, err := dq.Request(page, args...)
	if err != nil {
		return nil, err
	}
	return r.SearchRequest(ctx, req)
}

func (r *ElasticsearchRepository[T]) CountBy(ctx context.Context, dq *search.DerivedQuery, args ...any) (int64, error) {
	q, err := dq.Bind(args...)
	if err != nil {
		return 0, err
	}
	return r.engine.Count(ctx, r.spec.Name, q)
}

func (r *ElasticsearchRepository[T]) ExistsBy(ctx context.Context, dq *search.DerivedQuery, args ...any) (bool, error) {
	n, err := r.CountBy(ctx, dq, args...)
	return n > 0, err
}

func (r *ElasticsearchRepository[T]) DeleteBy(ctx context.Context, dq *search.DerivedQuery, args ...any) (int64, error) {
	if dq.Action != search.ActionDelete {
		return 0, fmt.Errorf("%w: %s is not a delete method", search.ErrInvalidDerivedQuery, dq.Method)
	}
	q, err := dq.Bind(args...)
	if err != nil {
		return 0, err
	}
	return r.engine.DeleteByQuery(ctx, r.spec.Name, q)
}

// searchAll counts the matches first and then fetches them in one page.
func (r *ElasticsearchRepository[T]) searchAll(ctx context.Context, q search.Query, sorts []search.Sort) ([]T, error) {
	total, err := r.engine.Count(ctx, r.spec.Name, q)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []T{}, nil
	}
	size := int(total)
	if total > search.MaxResultWindow {
		r.logger.Warn("Result truncated to the result window",
			zap.String("index", r.spec.Name),
			zap.Int64("total", total),
			zap.Int("window", search.MaxResultWindow))
		size = search.MaxResultWindow
	}

	req := search.NewQueryBuilder().
		WithQuery(q).
		WithSort(sorts...).
		WithPageable(search.PageOf(0, size)).
		Build()
	res, err := r.engine.Search(ctx, r.spec.Name, req)
	if err != nil {
		return nil, err
	}
	return r.decodeHits(res.Hits)
}

func (r *ElasticsearchRepository[T]) decodeHits(hits []search.Hit) ([]T, error) {
	out := make([]T, 0, len(hits))
	for _, h := range hits {
		if len(h.Source) == 0 {
			continue
		}
		var entity T
		if err := json.Unmarshal(h.Source, &entity); err != nil {
			return nil, fmt.Errorf("failed to decode %s document %s: %w", r.spec.Name, h.ID, err)
		}
		out = append(out, entity)
	}
	return out, nil
}
