package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"

	"elasticsearch-demo-backend/search"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"
)

const (
	// sourceField keeps the raw JSON of every document, stored but not
	// indexed, so hits can be returned as they were saved.
	sourceField = "doc_source"
	specKey     = "_index_spec"
	scanPage    = 1000
)

// IndexingService is an embedded search engine backed by bleve. With an
// empty basePath all indexes live in memory.
type IndexingService struct {
	mu       sync.RWMutex
	indexes  map[string]*localIndex
	logger   *zap.Logger
	basePath string
}

type localIndex struct {
	idx  bleve.Index
	spec search.IndexSpec
}

var _ search.Engine = (*IndexingService)(nil)

func NewIndexingService(logger *zap.Logger, basePath string) *IndexingService {
	return &IndexingService{
		indexes:  make(map[string]*localIndex),
		logger:   logger,
		basePath: basePath,
	}
}

func (s *IndexingService) indexPath(name string) string {
	return filepath.Join(s.basePath, name+".bleve")
}

func (s *IndexingService) onDisk(name string) bool {
	if s.basePath == "" {
		return false
	}
	_, err := os.Stat(s.indexPath(name))
	return err == nil
}

// getIndex returns an open index, opening it from disk when needed.
func (s *IndexingService) getIndex(name string) (*localIndex, error) {
	s.mu.RLock()
	li, ok := s.indexes[name]
	s.mu.RUnlock()
	if ok {
		return li, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if li, ok := s.indexes[name]; ok {
		return li, nil
	}
	if !s.onDisk(name) {
		return nil, fmt.Errorf("index %s: %w", name, search.ErrIndexNotFound)
	}

	idx, err := bleve.Open(s.indexPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", name, err)
	}
	spec := search.IndexSpec{Name: name}
	if raw, err := idx.GetInternal([]byte(specKey)); err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &spec); err != nil {
			s.logger.Warn("Stored index spec is unreadable", zap.String("index", name), zap.Error(err))
		}
	}
	li = &localIndex{idx: idx, spec: spec}
	s.indexes[name] = li
	return li, nil
}

// getOrCreateIndex mirrors Elasticsearch auto-creating an index on first
// write, with a dynamic mapping.
func (s *IndexingService) getOrCreateIndex(name string) (*localIndex, error) {
	li, err := s.getIndex(name)
	if err == nil {
		return li, nil
	}
	if !errors.Is(err, search.ErrIndexNotFound) {
		return nil, err
	}
	if err := s.CreateIndex(context.Background(), search.IndexSpec{Name: name}); err != nil {
		return nil, err
	}
	return s.getIndex(name)
}

func (s *IndexingService) CreateIndex(ctx context.Context, spec search.IndexSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[spec.Name]; ok || s.onDisk(spec.Name) {
		s.logger.Info("Index already exists", zap.String("index", spec.Name))
		return nil
	}

	li, err := s.newIndex(spec)
	if err != nil {
		s.logger.Error("Could not create index", zap.String("index", spec.Name), zap.Error(err))
		return err
	}
	s.indexes[spec.Name] = li

	s.logger.Info("Successfully created index", zap.String("index", spec.Name))
	return nil
}

func (s *IndexingService) newIndex(spec search.IndexSpec) (*localIndex, error) {
	im, err := buildMapping(spec)
	if err != nil {
		return nil, err
	}

	var idx bleve.Index
	if s.basePath == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		if err := os.MkdirAll(s.basePath, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		idx, err = bleve.New(s.indexPath(spec.Name), im)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create index %s: %w", spec.Name, err)
	}

	raw, err := json.Marshal(spec)
	if err != nil {
		return nil, err
	}
	if err := idx.SetInternal([]byte(specKey), raw); err != nil {
		return nil, fmt.Errorf("failed to store index spec: %w", err)
	}
	return &localIndex{idx: idx, spec: spec}, nil
}

// PutMapping replaces the mapping. bleve cannot remap indexed documents, so
// a changed mapping is only accepted while the index is empty.
func (s *IndexingService) PutMapping(ctx context.Context, spec search.IndexSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	li, err := s.getIndex(spec.Name)
	if err != nil {
		return err
	}
	if reflect.DeepEqual(li.spec.Fields, spec.Fields) && li.spec.Type == spec.Type {
		return nil
	}

	count, err := li.idx.DocCount()
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: index %s already holds %d documents, reindex to change its mapping",
			search.ErrInvalidRequest, spec.Name, count)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dropLocked(spec.Name); err != nil {
		return err
	}
	fresh, err := s.newIndex(spec)
	if err != nil {
		return err
	}
	s.indexes[spec.Name] = fresh

	s.logger.Info("Successfully put mapping", zap.String("index", spec.Name), zap.Int("fields", len(spec.Fields)))
	return nil
}

func (s *IndexingService) DeleteIndex(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, open := s.indexes[name]
	if !open && !s.onDisk(name) {
		return fmt.Errorf("index %s: %w", name, search.ErrIndexNotFound)
	}
	if err := s.dropLocked(name); err != nil {
		return err
	}

	s.logger.Info("Successfully deleted index", zap.String("index_name", name))
	return nil
}

func (s *IndexingService) dropLocked(name string) error {
	if li, ok := s.indexes[name]; ok {
		if err := li.idx.Close(); err != nil {
			s.logger.Error("Failed to close index before deletion",
				zap.String("index_name", name),
				zap.Error(err))
			return fmt.Errorf("failed to close index: %w", err)
		}
		delete(s.indexes, name)
	}

	if s.basePath == "" {
		return nil
	}
	fullPath := s.indexPath(name)
	if err := os.RemoveAll(fullPath); err != nil {
		s.logger.Error("Failed to delete index files",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete index files: %w", err)
	}
	return nil
}

func (s *IndexingService) IndexExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	_, ok := s.indexes[name]
	s.mu.RUnlock()
	return ok || s.onDisk(name), nil
}

// Refresh is a no-op: bleve makes writes searchable immediately.
func (s *IndexingService) Refresh(ctx context.Context, name string) error {
	_, err := s.getIndex(name)
	return err
}

func (s *IndexingService) IndexDocument(ctx context.Context, index, id string, source json.RawMessage) error {
	li, err := s.getOrCreateIndex(index)
	if err != nil {
		s.logger.Error("Could not get or create index", zap.Error(err))
		return err
	}

	doc, err := prepareDocument(li.spec, source)
	if err != nil {
		return err
	}
	if err := li.idx.Index(id, doc); err != nil {
		s.logger.Error("Failed to index document", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("Successfully indexed document", zap.String("index", index), zap.String("id", id))
	return nil
}

func (s *IndexingService) BulkIndexDocuments(ctx context.Context, index string, docs []search.Document) error {
	if len(docs) == 0 {
		return nil
	}
	li, err := s.getOrCreateIndex(index)
	if err != nil {
		s.logger.Error("Could not get or create index", zap.Error(err))
		return err
	}

	failed := map[string]string{}
	batch := li.idx.NewBatch()
	for _, d := range docs {
		doc, err := prepareDocument(li.spec, d.Source)
		if err == nil {
			err = batch.Index(d.ID, doc)
		}
		if err != nil {
			s.logger.Error("Failed to add doc to batch", zap.String("id", d.ID), zap.Error(err))
			failed[d.ID] = err.Error()
		}
	}

	if err := li.idx.Batch(batch); err != nil {
		s.logger.Error("Failed to execute batch", zap.Error(err))
		return err
	}
	if len(failed) > 0 {
		return &search.BulkError{Failed: failed}
	}

	s.logger.Info("Successfully bulk indexed documents", zap.String("index", index), zap.Int("count", len(docs)))
	return nil
}

// GetDocument finds a document by searching its id, as stored fields are
// only reachable through search hits.
func (s *IndexingService) GetDocument(ctx context.Context, index, id string) (json.RawMessage, error) {
	li, err := s.getIndex(index)
	if err != nil {
		return nil, err
	}

	searchRequest := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	searchRequest.Size = 1
	searchRequest.Fields = []string{sourceField}

	searchResult, err := li.idx.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, err
	}
	if len(searchResult.Hits) == 0 {
		return nil, search.ErrDocumentNotFound
	}
	return storedSource(searchResult.Hits[0].Fields), nil
}

func (s *IndexingService) DeleteDocument(ctx context.Context, index, id string) error {
	li, err := s.getIndex(index)
	if err != nil {
		return err
	}

	if err := li.idx.Delete(id); err != nil {
		s.logger.Error("Failed to delete document", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("Successfully deleted document", zap.String("index", index), zap.String("id", id))
	return nil
}

func (s *IndexingService) DeleteByQuery(ctx context.Context, index string, q search.Query) (int64, error) {
	li, err := s.getIndex(index)
	if err != nil {
		return 0, err
	}
	bq, err := translate(li.spec, q)
	if err != nil {
		return 0, err
	}

	var ids []string
	err = s.scan(ctx, li, bq, false, func(id string, _ json.RawMessage) {
		ids = append(ids, id)
	})
	if err != nil {
		return 0, err
	}

	batch := li.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := li.idx.Batch(batch); err != nil {
		s.logger.Error("Failed to execute delete batch", zap.Error(err))
		return 0, err
	}

	s.logger.Info("Successfully deleted documents by query", zap.String("index", index), zap.Int("deleted", len(ids)))
	return int64(len(ids)), nil
}

func (s *IndexingService) Count(ctx context.Context, index string, q search.Query) (int64, error) {
	li, err := s.getIndex(index)
	if err != nil {
		return 0, err
	}
	bq, err := translate(li.spec, q)
	if err != nil {
		return 0, err
	}

	res, err := li.idx.SearchInContext(ctx, bleve.NewSearchRequestOptions(bq, 0, 0, false))
	if err != nil {
		return 0, err
	}
	return int64(res.Total), nil
}

func (s *IndexingService) Search(ctx context.Context, index string, req *search.Request) (*search.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	li, err := s.getIndex(index)
	if err != nil {
		return nil, err
	}
	bq, err := translate(li.spec, req.Query)
	if err != nil {
		return nil, err
	}

	p := req.Pageable()
	searchRequest := bleve.NewSearchRequestOptions(bq, p.Size, p.Offset(), false)
	searchRequest.Fields = []string{sourceField}
	if len(req.Sorts) > 0 {
		order := make([]string, 0, len(req.Sorts)+1)
		for _, srt := range req.Sorts {
			if srt.Order == search.Desc {
				order = append(order, "-"+srt.Field)
			} else {
				order = append(order, srt.Field)
			}
		}
		searchRequest.SortBy(append(order, "_id"))
	}

	searchResult, err := li.idx.SearchInContext(ctx, searchRequest)
	if err != nil {
		s.logger.Error("Search failed", zap.String("index", index), zap.Error(err))
		return nil, err
	}

	result := &search.Result{
		Total: int64(searchResult.Total),
		Hits:  make([]search.Hit, 0, len(searchResult.Hits)),
	}
	for _, hit := range searchResult.Hits {
		src, err := req.SourceFilter.Apply(storedSource(hit.Fields))
		if err != nil {
			return nil, fmt.Errorf("failed to filter source of %s: %w", hit.ID, err)
		}
		result.Hits = append(result.Hits, search.Hit{ID: hit.ID, Score: hit.Score, Source: src})
	}

	if len(req.Aggregations) > 0 {
		aggs, err := s.aggregate(ctx, li, bq, req.Aggregations)
		if err != nil {
			return nil, err
		}
		result.Aggregations = aggs
	}
	return result, nil
}

// aggregate evaluates aggregations over every match of the query.
func (s *IndexingService) aggregate(ctx context.Context, li *localIndex, bq query.Query, aggs []*search.Aggregation) (search.Aggregations, error) {
	var (
		docs      []map[string]any
		decodeErr error
	)
	err := s.scan(ctx, li, bq, true, func(id string, src json.RawMessage) {
		var doc map[string]any
		if err := json.Unmarshal(src, &doc); err != nil {
			decodeErr = fmt.Errorf("failed to decode document %s: %w", id, err)
			return
		}
		docs = append(docs, doc)
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return search.ComputeAggregations(aggs, docs), nil
}

// scan pages through all matches of bq in id order.
func (s *IndexingService) scan(ctx context.Context, li *localIndex, bq query.Query, withSource bool, fn func(id string, src json.RawMessage)) error {
	for from := 0; ; from += scanPage {
		searchRequest := bleve.NewSearchRequestOptions(bq, scanPage, from, false)
		searchRequest.SortBy([]string{"_id"})
		if withSource {
			searchRequest.Fields = []string{sourceField}
		}

		res, err := li.idx.SearchInContext(ctx, searchRequest)
		if err != nil {
			return err
		}
		for _, hit := range res.Hits {
			fn(hit.ID, storedSource(hit.Fields))
		}
		if len(res.Hits) < scanPage {
			return nil
		}
	}
}

// Close closes every open index.
func (s *IndexingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := s.indexes[name].idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(s.indexes, name)
	}
	return errors.Join(errs...)
}

func storedSource(fields map[string]interface{}) json.RawMessage {
	if raw, ok := fields[sourceField].(string); ok {
		return json.RawMessage(raw)
	}
	return nil
}

func buildMapping(spec search.IndexSpec) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	src := bleve.NewTextFieldMapping()
	src.Index = false
	src.Store = true
	src.IncludeInAll = false
	src.IncludeTermVectors = false
	src.DocValues = false

	if len(spec.Fields) == 0 {
		im.DefaultMapping.AddFieldMappingsAt(sourceField, src)
		return im, nil
	}

	dm := bleve.NewDocumentStaticMapping()
	for _, f := range spec.Fields {
		fm, err := fieldMapping(f)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", spec.Name, err)
		}
		dm.AddFieldMappingsAt(f.Name, fm)
	}
	dm.AddFieldMappingsAt(sourceField, src)
	im.DefaultMapping = dm
	return im, nil
}

// analyzers bleve ships under the same names Elasticsearch uses.
var knownAnalyzers = map[string]bool{
	"standard": true,
	"simple":   true,
	"keyword":  true,
	"en":       true,
}

func fieldMapping(f search.FieldSpec) (*mapping.FieldMapping, error) {
	var fm *mapping.FieldMapping
	switch f.Type {
	case search.Text:
		fm = bleve.NewTextFieldMapping()
		if knownAnalyzers[f.Analyzer] {
			fm.Analyzer = f.Analyzer
		}
	case search.Keyword:
		fm = bleve.NewKeywordFieldMapping()
	case search.Long, search.Integer, search.Double:
		fm = bleve.NewNumericFieldMapping()
	case search.Boolean:
		fm = bleve.NewBooleanFieldMapping()
	case search.Date:
		fm = bleve.NewDateTimeFieldMapping()
	default:
		return nil, fmt.Errorf("%w: unsupported field type %q for %s", search.ErrInvalidRequest, f.Type, f.Name)
	}
	if f.NotIndexed {
		fm.Index = false
	}
	return fm, nil
}

// prepareDocument decodes source and coerces numeric strings on numeric
// fields, as Elasticsearch does, before handing the map to bleve.
func prepareDocument(spec search.IndexSpec, source json.RawMessage) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(source, &doc); err != nil {
		return nil, fmt.Errorf("%w: document source is not a JSON object: %v", search.ErrInvalidRequest, err)
	}

	for _, f := range spec.Fields {
		if !f.Type.Numeric() {
			continue
		}
		v, ok := doc[f.Name]
		if !ok || v == nil {
			continue
		}
		n, ok := search.NumericValue(v)
		if !ok {
			return nil, fmt.Errorf("%w: field %s expects a number, got %v", search.ErrInvalidRequest, f.Name, v)
		}
		doc[f.Name] = n
	}

	doc[sourceField] = string(source)
	return doc, nil
}
