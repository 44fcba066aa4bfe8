package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// ElasticsearchAddresses splits ELASTICSEARCH_ADDRESS on commas.
func ElasticsearchAddresses() []string {
	raw := GetEnvDefault("ELASTICSEARCH_ADDRESS", "http://localhost:9200")
	var out []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// InitElasticsearch initializes the Elasticsearch client and checks the
// connection with the Info API.
func InitElasticsearch(ctx context.Context) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: ElasticsearchAddresses(),
		Username:  GetEnv("ELASTICSEARCH_USERNAME"),
		Password:  GetEnv("ELASTICSEARCH_PASSWORD"),
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error initializing Elasticsearch: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("error connecting to Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info request failed: %s", res.Status())
	}

	Logger.Info("Elasticsearch is up and running", zap.Strings("addresses", cfg.Addresses))
	return client, nil
}

// ElasticsearchRefresh is the refresh policy used on writes: "true",
// "false" or "wait_for".
func ElasticsearchRefresh() string {
	switch v := GetEnvDefault("ELASTICSEARCH_REFRESH", "wait_for"); v {
	case "true", "false", "wait_for":
		return v
	default:
		Logger.Warn("Unknown ELASTICSEARCH_REFRESH, using wait_for", zap.String("value", v))
		return "wait_for"
	}
}
