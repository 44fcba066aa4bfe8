package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"elasticsearch-demo-backend/search"
	"elasticsearch-demo-backend/utils"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// IndexingService talks to an Elasticsearch cluster through the esapi
// client. It implements search.Engine.
type IndexingService struct {
	client  *elasticsearch.Client
	logger  *zap.Logger
	refresh string
}

var _ search.Engine = (*IndexingService)(nil)

// NewIndexingService wraps client. refresh is passed to write requests
// ("true", "wait_for" or "false"); empty leaves the cluster default.
func NewIndexingService(client *elasticsearch.Client, logger *zap.Logger, refresh string) *IndexingService {
	return &IndexingService{
		client:  client,
		logger:  logger,
		refresh: refresh,
	}
}

func (s *IndexingService) CreateIndex(ctx context.Context, spec search.IndexSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{"settings": spec.Settings()})
	if err != nil {
		return fmt.Errorf("failed to marshal index settings: %w", err)
	}

	res, err := s.client.Indices.Create(
		spec.Name,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		s.logger.Error("Failed to create index", zap.String("index", spec.Name), zap.Error(err))
		return fmt.Errorf("failed to create index %s: %w", spec.Name, err)
	}

	if res.IsError() {
		engineErr := responseError(res)
		if engineErr.Type == "resource_already_exists_exception" {
			s.logger.Info("Index already exists", zap.String("index", spec.Name))
			return nil
		}
		s.logger.Error("Failed to create index", zap.String("index", spec.Name), zap.Error(engineErr))
		return fmt.Errorf("failed to create index %s: %w", spec.Name, engineErr)
	}
	res.Body.Close()

	s.logger.Info("Successfully created index", zap.String("index", spec.Name))
	return nil
}

func (s *IndexingService) PutMapping(ctx context.Context, spec search.IndexSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(spec.Mapping())
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	res, err := s.client.Indices.PutMapping(
		[]string{spec.Name},
		bytes.NewReader(body),
		s.client.Indices.PutMapping.WithContext(ctx),
	)
	if err := s.check(res, err, "put mapping", zap.String("index", spec.Name)); err != nil {
		return err
	}

	s.logger.Info("Successfully put mapping", zap.String("index", spec.Name), zap.Int("fields", len(spec.Fields)))
	return nil
}

func (s *IndexingService) DeleteIndex(ctx context.Context, name string) error {
	res, err := s.client.Indices.Delete(
		[]string{name},
		s.client.Indices.Delete.WithContext(ctx),
	)
	if err := s.check(res, err, "delete index", zap.String("index", name)); err != nil {
		return err
	}

	s.logger.Info("Successfully deleted index", zap.String("index", name))
	return nil
}

func (s *IndexingService) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := s.client.Indices.Exists(
		[]string{name},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", name, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, fmt.Errorf("failed to check index %s: %w", name, &search.EngineError{Status: res.StatusCode, Reason: res.Status()})
}

func (s *IndexingService) Refresh(ctx context.Context, name string) error {
	res, err := s.client.Indices.Refresh(
		s.client.Indices.Refresh.WithIndex(name),
		s.client.Indices.Refresh.WithContext(ctx),
	)
	return s.check(res, err, "refresh index", zap.String("index", name))
}

func (s *IndexingService) IndexDocument(ctx context.Context, index, id string, source json.RawMessage) error {
	opts := []func(*esapi.IndexRequest){
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(id),
	}
	if s.refresh != "" {
		opts = append(opts, s.client.Index.WithRefresh(s.refresh))
	}

	res, err := s.client.Index(index, bytes.NewReader(source), opts...)
	if err := s.check(res, err, "index document", zap.String("index", index), zap.String("id", id)); err != nil {
		return err
	}

	s.logger.Info("Successfully indexed document", zap.String("index", index), zap.String("id", id))
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

func (s *IndexingService) BulkIndexDocuments(ctx context.Context, index string, docs []search.Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		meta, err := json.Marshal(map[string]any{"index": map[string]any{"_id": doc.ID}})
		if err != nil {
			return fmt.Errorf("failed to marshal bulk action: %w", err)
		}
		buf.Write(meta)
		buf.WriteByte('\n')
		buf.Write(compact(doc.Source))
		buf.WriteByte('\n')
	}

	opts := []func(*esapi.BulkRequest){
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithIndex(index),
	}
	if s.refresh != "" {
		opts = append(opts, s.client.Bulk.WithRefresh(s.refresh))
	}

	res, err := s.client.Bulk(bytes.NewReader(buf.Bytes()), opts...)
	if err != nil {
		s.logger.Error("Failed to execute bulk request", zap.String("index", index), zap.Error(err))
		return fmt.Errorf("failed to bulk index documents: %w", err)
	}
	if res.IsError() {
		engineErr := responseError(res)
		s.logger.Error("Failed to execute bulk request", zap.String("index", index), zap.Error(engineErr))
		return fmt.Errorf("failed to bulk index documents: %w", engineErr)
	}

	var parsed bulkResponse
	if err := utils.DecodeResponseBody(res, &parsed); err != nil {
		return err
	}
	if parsed.Errors {
		failed := map[string]string{}
		for _, item := range parsed.Items {
			for _, op := range item {
				if op.Status >= 300 {
					failed[op.ID] = op.Error.Type + ": " + op.Error.Reason
				}
			}
		}
		bulkErr := &search.BulkError{Failed: failed}
		s.logger.Error("Some documents failed to bulk index",
			zap.String("index", index),
			zap.Int("failed", len(failed)),
			zap.Int("count", len(docs)))
		return bulkErr
	}

	s.logger.Info("Successfully bulk indexed documents", zap.String("index", index), zap.Int("count", len(docs)))
	return nil
}

func (s *IndexingService) GetDocument(ctx context.Context, index, id string) (json.RawMessage, error) {
	res, err := s.client.Get(index, id, s.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}

	body, err := utils.ReadResponseBody(res)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}

	if res.StatusCode == http.StatusNotFound && len(doc.Error) == 0 {
		return nil, search.ErrDocumentNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("failed to get document %s: %w", id, parseError(res.StatusCode, body))
	}
	if !doc.Found {
		return nil, search.ErrDocumentNotFound
	}
	return doc.Source, nil
}

func (s *IndexingService) DeleteDocument(ctx context.Context, index, id string) error {
	opts := []func(*esapi.DeleteRequest){s.client.Delete.WithContext(ctx)}
	if s.refresh != "" {
		opts = append(opts, s.client.Delete.WithRefresh(s.refresh))
	}

	res, err := s.client.Delete(index, id, opts...)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}

	body, err := utils.ReadResponseBody(res)
	if err != nil {
		return err
	}

	if res.StatusCode == http.StatusNotFound {
		engineErr := parseError(res.StatusCode, body)
		if engineErr.Type == "" {
			s.logger.Info("Document to delete did not exist", zap.String("index", index), zap.String("id", id))
			return nil
		}
		return fmt.Errorf("failed to delete document %s: %w", id, engineErr)
	}
	if res.IsError() {
		return fmt.Errorf("failed to delete document %s: %w", id, parseError(res.StatusCode, body))
	}

	s.logger.Info("Successfully deleted document", zap.String("index", index), zap.String("id", id))
	return nil
}

func (s *IndexingService) DeleteByQuery(ctx context.Context, index string, q search.Query) (int64, error) {
	body, err := json.Marshal(map[string]any{"query": q.Source()})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := s.client.DeleteByQuery(
		[]string{index},
		bytes.NewReader(body),
		s.client.DeleteByQuery.WithContext(ctx),
		s.client.DeleteByQuery.WithConflicts("proceed"),
		s.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete by query: %w", err)
	}
	if res.IsError() {
		return 0, fmt.Errorf("failed to delete by query: %w", responseError(res))
	}

	var parsed struct {
		Deleted int64 `json:"deleted"`
	}
	if err := utils.DecodeResponseBody(res, &parsed); err != nil {
		return 0, err
	}

	s.logger.Info("Successfully deleted documents by query", zap.String("index", index), zap.Int64("deleted", parsed.Deleted))
	return parsed.Deleted, nil
}

func (s *IndexingService) Count(ctx context.Context, index string, q search.Query) (int64, error) {
	if q == nil {
		q = search.MatchAll()
	}
	body, err := json.Marshal(map[string]any{"query": q.Source()})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := s.client.Count(
		s.client.Count.WithContext(ctx),
		s.client.Count.WithIndex(index),
		s.client.Count.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	if res.IsError() {
		return 0, fmt.Errorf("failed to count documents: %w", responseError(res))
	}

	var parsed struct {
		Count int64 `json:"count"`
	}
	if err := utils.DecodeResponseBody(res, &parsed); err != nil {
		return 0, err
	}
	return parsed.Count, nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

func (s *IndexingService) Search(ctx context.Context, index string, req *search.Request) (*search.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req.Body())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		s.logger.Error("Search failed", zap.String("index", index), zap.Error(err))
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	if res.IsError() {
		engineErr := responseError(res)
		s.logger.Error("Search failed", zap.String("index", index), zap.Error(engineErr))
		return nil, fmt.Errorf("search request failed: %w", engineErr)
	}

	var parsed searchResponse
	if err := utils.DecodeResponseBody(res, &parsed); err != nil {
		return nil, err
	}

	result := &search.Result{
		Total: parsed.Hits.Total.Value,
		Hits:  make([]search.Hit, 0, len(parsed.Hits.Hits)),
	}
	for _, h := range parsed.Hits.Hits {
		hit := search.Hit{ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		result.Hits = append(result.Hits, hit)
	}

	if len(req.Aggregations) > 0 {
		aggs, err := search.ParseAggregations(req.Aggregations, parsed.Aggregations)
		if err != nil {
			return nil, fmt.Errorf("failed to decode aggregations: %w", err)
		}
		result.Aggregations = aggs
	}

	s.logger.Debug("Search completed",
		zap.String("index", index),
		zap.Int64("total", result.Total),
		zap.Int("hits", len(result.Hits)))
	return result, nil
}

// check closes the response and turns transport and engine failures into
// errors.
func (s *IndexingService) check(res *esapi.Response, err error, op string, fields ...zap.Field) error {
	if err != nil {
		s.logger.Error("Failed to "+op, append(fields, zap.Error(err))...)
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if res.IsError() {
		engineErr := responseError(res)
		s.logger.Error("Failed to "+op, append(fields, zap.Error(engineErr))...)
		return fmt.Errorf("failed to %s: %w", op, engineErr)
	}
	res.Body.Close()
	return nil
}

func responseError(res *esapi.Response) *search.EngineError {
	body, err := utils.ReadResponseBody(res)
	if err != nil {
		return &search.EngineError{Status: res.StatusCode, Reason: err.Error()}
	}
	return parseError(res.StatusCode, body)
}

// parseError reads the {"error": {...}, "status": n} envelope. Older
// endpoints report error as a plain string.
func parseError(status int, body []byte) *search.EngineError {
	engineErr := &search.EngineError{Status: status}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		engineErr.Reason = string(body)
		return engineErr
	}

	var detail struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		engineErr.Type = detail.Type
		engineErr.Reason = detail.Reason
		return engineErr
	}

	var reason string
	if err := json.Unmarshal(envelope.Error, &reason); err == nil {
		engineErr.Reason = reason
	}
	return engineErr
}

func compact(src json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, src); err != nil {
		return src
	}
	return buf.Bytes()
}
