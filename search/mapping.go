package search

import (
	"fmt"
	"strings"
)

type FieldType string

const (
	Text    FieldType = "text"
	Keyword FieldType = "keyword"
	Long    FieldType = "long"
	Integer FieldType = "integer"
	Double  FieldType = "double"
	Boolean FieldType = "boolean"
	Date    FieldType = "date"
)

// Numeric reports whether values of the type are indexed as numbers.
func (t FieldType) Numeric() bool {
	return t == Long || t == Integer || t == Double
}

// FieldSpec describes how one document field is mapped.
type FieldSpec struct {
	Name       string
	Type       FieldType
	Analyzer   string
	NotIndexed bool
}

// IndexSpec is the mapping metadata an entity declares for its index.
type IndexSpec struct {
	Name     string
	Type     string
	Shards   int
	Replicas int
	Fields   []FieldSpec
}

func (s IndexSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: index name is required", ErrInvalidRequest)
	}
	if s.Name != strings.ToLower(s.Name) {
		return fmt.Errorf("%w: index name %q must be lowercase", ErrInvalidRequest, s.Name)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: field without name in index %s", ErrInvalidRequest, s.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %s in index %s", ErrInvalidRequest, f.Name, s.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Field looks up the mapping of a field by name.
func (s IndexSpec) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Settings renders the index settings section. Zero shard counts are left to
// the engine defaults.
func (s IndexSpec) Settings() map[string]any {
	settings := map[string]any{}
	if s.Shards > 0 {
		settings["number_of_shards"] = s.Shards
	}
	if s.Shards > 0 || s.Replicas > 0 {
		settings["number_of_replicas"] = s.Replicas
	}
	return settings
}

// Mapping renders the put-mapping body. The document kind is kept in _meta
// since Elasticsearch 8 has no mapping types.
func (s IndexSpec) Mapping() map[string]any {
	props := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		prop := map[string]any{"type": string(f.Type)}
		if f.Type == Text && f.Analyzer != "" {
			prop["analyzer"] = f.Analyzer
		}
		if f.NotIndexed {
			prop["index"] = false
		}
		props[f.Name] = prop
	}
	mapping := map[string]any{"properties": props}
	if s.Type != "" {
		mapping["_meta"] = map[string]any{"type": s.Type}
	}
	return mapping
}
