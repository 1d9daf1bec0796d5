package blocks

import "github.com/yaklabco/mdblocks/pkg/textdoc"

// Cache memoizes the latest scan keyed by document identity.
//
// The cache is valid exactly while the document it was built from is the
// document being asked about. Identity is the only key: two different
// snapshots can share a length or even a hash, so neither is used.
//
// # Do Not Mutate Returned Slices
//
// Get returns the cached slice itself. Callers that need to reorder or
// filter spans must copy first.
//
// # Thread Safety
//
// Cache is NOT safe for concurrent use. Each editor view owns its own cache
// and touches it only from the view's goroutine.
type Cache struct {
	doc   *textdoc.Document
	spans []Span

	hits   int
	misses int
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits   int
	Misses int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the spans of doc, rescanning unless doc is the snapshot the
// cache was built from and that scan found at least one span.
func (c *Cache) Get(doc *textdoc.Document) []Span {
	if doc == c.doc && len(c.spans) > 0 {
		c.hits++
		return c.spans
	}

	c.misses++
	c.doc = doc
	c.spans = Scan(doc)
	return c.spans
}

// Invalidate drops the cached scan.
func (c *Cache) Invalidate() {
	c.doc = nil
	c.spans = nil
}

// Stats returns hit and miss counts since creation.
func (c *Cache) Stats() CacheStats {
	return CacheStats{Hits: c.hits, Misses: c.misses}
}

// Find returns the index of the span of kind k that best matches the range
// [from, to): the span with the largest overlap, or for an empty range the
// span touching from. It returns -1 if no span of that kind qualifies.
func Find(spans []Span, k Kind, from, to int) int {
	best, bestOverlap := -1, -1
	for i, s := range spans {
		if s.Kind != k {
			continue
		}
		overlap := s.Overlap(from, to)
		if overlap == 0 && !s.Touches(from) {
			continue
		}
		if overlap > bestOverlap {
			best, bestOverlap = i, overlap
		}
	}
	return best
}
