package search

import (
	"context"
	"encoding/json"
)

// Document is a raw source ready to be indexed under ID.
type Document struct {
	ID     string
	Source json.RawMessage
}

type Hit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

type Result struct {
	Total        int64
	Hits         []Hit
	Aggregations Aggregations
}

// Engine is the document store the repositories delegate to. Implementations
// exist for Elasticsearch and for an embedded bleve index.
type Engine interface {
	CreateIndex(ctx context.Context, spec IndexSpec) error
	PutMapping(ctx context.Context, spec IndexSpec) error
	DeleteIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Refresh(ctx context.Context, name string) error

	IndexDocument(ctx context.Context, index, id string, source json.RawMessage) error
	BulkIndexDocuments(ctx context.Context, index string, docs []Document) error
	GetDocument(ctx context.Context, index, id string) (json.RawMessage, error)
	DeleteDocument(ctx context.Context, index, id string) error
	DeleteByQuery(ctx context.Context, index string, q Query) (int64, error)

	Count(ctx context.Context, index string, q Query) (int64, error)
	Search(ctx context.Context, index string, req *Request) (*Result, error)
}
