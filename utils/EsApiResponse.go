package utils

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

func ReadResponseBody(response *esapi.Response) ([]byte, error) {
	if response.Body == nil {
		return nil, fmt.Errorf("response body is nil")
	}

	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	return body, nil
}

// DecodeResponseBody reads the whole body into v and closes it.
func DecodeResponseBody(response *esapi.Response, v interface{}) error {
	body, err := ReadResponseBody(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
