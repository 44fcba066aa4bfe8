package search

import (
	"errors"
	"fmt"
	"testing"
)

func TestEngineErrorIs(t *testing.T) {
	indexMissing := &EngineError{Status: 404, Type: "index_not_found_exception", Reason: "no such index [item]"}
	if !errors.Is(indexMissing, ErrIndexNotFound) {
		t.Error("index_not_found_exception should match ErrIndexNotFound")
	}
	if errors.Is(indexMissing, ErrDocumentNotFound) {
		t.Error("index_not_found_exception should not match ErrDocumentNotFound")
	}

	wrapped := fmt.Errorf("get: %w", &EngineError{Status: 404})
	if !errors.Is(wrapped, ErrDocumentNotFound) {
		t.Error("a bare 404 should match ErrDocumentNotFound")
	}

	badRequest := &EngineError{Status: 400, Type: "parsing_exception", Reason: "bad"}
	if errors.Is(badRequest, ErrDocumentNotFound) || errors.Is(badRequest, ErrIndexNotFound) {
		t.Error("400 should match no sentinel")
	}
	if badRequest.Error() != "search engine error (status 400) parsing_exception: bad" {
		t.Errorf("Error() = %q", badRequest.Error())
	}
}

func TestBulkErrorMessageIsStable(t *testing.T) {
	err := &BulkError{Failed: map[string]string{"2": "mapper_parsing_exception", "1": "version_conflict"}}
	want := "bulk indexing failed for 2 documents: 1 (version_conflict), 2 (mapper_parsing_exception)"
	if err.Error() != want {
		t.Errorf("Error() = %q\nwant %q", err.Error(), want)
	}
}
