package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// GenerateHash builds a cache key "<resource>:<sha256>" from the resource
// name and its query parameters. Parameters are sorted so the key does not
// depend on map order.
func GenerateHash(resourceType string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	query := fmt.Sprintf("resource=%s", resourceType)
	for _, k := range keys {
		query += fmt.Sprintf("&%s=%s", k, params[k])
	}

	hash := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%s:%s", resourceType, hex.EncodeToString(hash[:]))
}
