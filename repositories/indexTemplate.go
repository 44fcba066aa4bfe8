package repositories

import (
	"context"
	"errors"
	"fmt"

	"elasticsearch-demo-backend/search"

	"go.uber.org/zap"
)

// IndexTemplate handles index level operations: create, mapping, delete.
type IndexTemplate struct {
	engine search.Engine
	logger *zap.Logger
}

func NewIndexTemplate(engine search.Engine, logger *zap.Logger) *IndexTemplate {
	return &IndexTemplate{engine: engine, logger: logger}
}

// CreateIndex creates the index with the IndexSpec settings. It is not an
// error if the index already exists.
func (t *IndexTemplate) CreateIndex(ctx context.Context, spec search.IndexSpec) error {
	return t.engine.CreateIndex(ctx, spec)
}

// PutMapping applies the field mapping declared by the IndexSpec.
func (t *IndexTemplate) PutMapping(ctx context.Context, spec search.IndexSpec) error {
	return t.engine.PutMapping(ctx, spec)
}

func (t *IndexTemplate) IndexExists(ctx context.Context, name string) (bool, error) {
	return t.engine.IndexExists(ctx, name)
}

// EnsureIndex creates the index and puts its mapping unless it exists.
func (t *IndexTemplate) EnsureIndex(ctx context.Context, spec search.IndexSpec) error {
	exists, err := t.engine.IndexExists(ctx, spec.Name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := t.engine.CreateIndex(ctx, spec); err != nil {
		return fmt.Errorf("create index %s: %w", spec.Name, err)
	}
	if err := t.engine.PutMapping(ctx, spec); err != nil {
		return fmt.Errorf("put mapping %s: %w", spec.Name, err)
	}
	t.logger.Info("Index ready", zap.String("index", spec.Name), zap.String("type", spec.Type))
	return nil
}

// DeleteIndex reports false when there was no such index.
func (t *IndexTemplate) DeleteIndex(ctx context.Context, name string) (bool, error) {
	err := t.engine.DeleteIndex(ctx, name)
	if errors.Is(err, search.ErrIndexNotFound) {
		t.logger.Info("Index to delete did not exist", zap.String("index", name))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *IndexTemplate) DeleteIndexFor(ctx context.Context, spec search.IndexSpec) (bool, error) {
	return t.DeleteIndex(ctx, spec.Name)
}
