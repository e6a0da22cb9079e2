package cache

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"time"

	"deckqa/internal/domain"
	"deckqa/internal/port"
)

// QueryCache is a bounded LRU of retrieval results with a TTL. It is safe
// for concurrent use.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front is most recently used
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	hits    int
	misses  int
}

type cacheEntry struct {
	key     string
	results []domain.ScoredChunk
	stored  time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Size   int
	Hits   int
	Misses int
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 128
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// cacheKey is the exact query text plus k. Case and spacing can change the
// query embedding, so variants never share an entry.
func cacheKey(query string, k int) string {
	return strconv.Itoa(k) + "\x00" + query
}

func (c *QueryCache) Get(query string, k int) ([]domain.ScoredChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[cacheKey(query, k)]
	if !ok {
		c.misses++
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.now().Sub(entry.stored) > c.ttl {
		c.remove(el)
		c.misses++
		return nil, false
	}

	c.lru.MoveToFront(el)
	c.hits++
	return cloneResults(entry.results), true
}

func (c *QueryCache) Put(query string, k int, results []domain.ScoredChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, k)
	entry := &cacheEntry{key: key, results: cloneResults(results), stored: c.now()}

	if el, ok := c.entries[key]; ok {
		el.Value = entry
		c.lru.MoveToFront(el)
		return
	}
	if c.lru.Len() >= c.maxSize {
		c.remove(c.lru.Back())
	}
	c.entries[key] = c.lru.PushFront(entry)
}

// Invalidate drops every entry, e.g. after the store is rebuilt.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element, c.maxSize)
	c.lru.Init()
}

func (c *QueryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: c.lru.Len(), Hits: c.hits, Misses: c.misses}
}

func (c *QueryCache) remove(el *list.Element) {
	if el == nil {
		return
	}
	c.lru.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
}

func cloneResults(results []domain.ScoredChunk) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(results))
	copy(out, results)
	return out
}

// CachedRetriever serves repeated queries from a QueryCache. Errors are not
// cached.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if results, hit := r.cache.Get(query, k); hit {
		return results, nil
	}

	results, err := r.retriever.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(query, k, results)

	return results, nil
}

func (r *CachedRetriever) Cache() *QueryCache {
	return r.cache
}
