package bootstrap

import (
	"context"
	"fmt"

	bleveServices "elasticsearch-demo-backend/bleve/services"
	"elasticsearch-demo-backend/config"
	esServices "elasticsearch-demo-backend/elasticsearch/services"
	"elasticsearch-demo-backend/search"

	"go.uber.org/zap"
)

const (
	BackendElasticsearch = "elasticsearch"
	BackendBleve         = "bleve"
)

// NewSearchEngine builds the engine named by SEARCH_BACKEND. The returned
// close function releases local resources and is always safe to call.
func NewSearchEngine(ctx context.Context, logger *zap.Logger) (search.Engine, func() error, error) {
	backend := config.GetEnvDefault("SEARCH_BACKEND", BackendElasticsearch)

	switch backend {
	case BackendElasticsearch:
		client, err := config.InitElasticsearch(ctx)
		if err != nil {
			return nil, nil, err
		}
		engine := esServices.NewIndexingService(client, logger, config.ElasticsearchRefresh())
		return engine, func() error { return nil }, nil

	case BackendBleve:
		indexPath := config.GetEnv("BLEVE_INDEX_PATH")
		if indexPath == "" {
			logger.Warn("BLEVE_INDEX_PATH not set, indices are kept in memory")
		}
		engine := bleveServices.NewIndexingService(logger, indexPath)
		logger.Info("Using embedded bleve search engine", zap.String("path", indexPath))
		return engine, engine.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown SEARCH_BACKEND %q, expected %s or %s", backend, BackendElasticsearch, BackendBleve)
}
