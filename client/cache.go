package client

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
)

// FallbackCacheFile is the default file name of the local fallback cache,
// one JSON array mirroring the Product shape.
const FallbackCacheFile = "admin_products_fallback.json"

// fallbackCache is the local secondary store of the two-tier repository: a
// single named key holding the last-known-good product array. It is advisory
// only and never reconciled with the server.
type fallbackCache struct {
	mu   sync.Mutex
	path string
}

func newFallbackCache(path string) *fallbackCache {
	if path == "" {
		path = FallbackCacheFile
	}
	return &fallbackCache{path: path}
}

// load reads the cached array. A missing or corrupt file reads as empty.
func (fc *fallbackCache) load() []Product {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	data, err := os.ReadFile(fc.path)
	if err != nil {
		return []Product{}
	}
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		slog.Warn("discarding corrupt fallback cache", slog.String("path", fc.path), slog.Any("err", err))
		return []Product{}
	}
	if products == nil {
		return []Product{}
	}
	return products
}

// save replaces the cached array. Failures are logged, never propagated: the
// cache is best effort.
func (fc *fallbackCache) save(products []Product) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	data, err := json.Marshal(products)
	if err != nil {
		slog.Warn("failed to encode fallback cache", slog.Any("err", err))
		return
	}
	if err := os.WriteFile(fc.path, data, 0o600); err != nil {
		slog.Warn("failed to write fallback cache", slog.String("path", fc.path), slog.Any("err", err))
	}
}
