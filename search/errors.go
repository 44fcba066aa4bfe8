package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrIndexNotFound       = errors.New("index not found")
	ErrInvalidRequest      = errors.New("invalid search request")
	ErrInvalidDerivedQuery = errors.New("invalid derived query")
)

// EngineError is a failure reported by the search engine itself.
type EngineError struct {
	Status int
	Type   string
	Reason string
}

func (e *EngineError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("search engine error (status %d): %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("search engine error (status %d) %s: %s", e.Status, e.Type, e.Reason)
}

// Is lets callers match engine 404s against the not-found sentinels.
func (e *EngineError) Is(target error) bool {
	switch target {
	case ErrIndexNotFound:
		return e.Type == "index_not_found_exception"
	case ErrDocumentNotFound:
		return e.Status == 404 && e.Type != "index_not_found_exception"
	}
	return false
}

// BulkError lists the documents a bulk request failed to index.
type BulkError struct {
	Failed map[string]string
}

func (e *BulkError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id, reason := range e.Failed {
		ids = append(ids, id+" ("+reason+")")
	}
	sort.Strings(ids)
	return fmt.Sprintf("bulk indexing failed for %d documents: %s", len(e.Failed), strings.Join(ids, ", "))
}
