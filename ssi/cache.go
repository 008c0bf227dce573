package ssi

import (
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
)

// docCache stores parsed documents keyed by source content hash.
// Documents are immutable after Parse, so one cached tree can serve
// concurrent renders with distinct contexts.
var docCache sync.Map

// cacheEntry parses its source at most once per cache lifetime.
type cacheEntry struct {
	once sync.Once
	doc  *Document
	err  error
}

// sourceKey hashes source content for cache lookup.
func sourceKey(input string) string {
	return strconv.FormatUint(xxh3.HashString(input), 36)
}

// ParseCached parses input, memoizing the result by content hash. Repeated
// calls with identical content return the same Document. Parse failures are
// cached as well, so a malformed document is not re-parsed per render.
func ParseCached(input string, opts ...Option) (*Document, error) {
	value, _ := docCache.LoadOrStore(sourceKey(input), new(cacheEntry))
	entry := value.(*cacheEntry)

	entry.once.Do(func() {
		entry.doc, entry.err = Parse(input, opts...)
	})

	return entry.doc, entry.err
}

// Invalidate removes the cached document for the given source content.
func Invalidate(input string) {
	docCache.Delete(sourceKey(input))
}

// ClearCache removes all cached documents. This is primarily useful for
// testing or when memory needs to be reclaimed.
func ClearCache() {
	docCache = sync.Map{}
}
