package lemma

import (
	"container/list"
	"sync"
)

// Cache memoizes successful lookups of an underlying Normalizer. Errors are
// not cached. When the cache is full the least recently used entry is
// evicted.
type Cache struct {
	next Normalizer
	max  int

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List // front is most recently used
	hits  int64
	miss  int64
}

type cacheEntry struct {
	word, lemma string
}

// NewCache wraps next. max <= 0 means 10000 entries.
func NewCache(next Normalizer, max int) *Cache {
	if max <= 0 {
		max = 10000
	}
	return &Cache{
		next:  next,
		max:   max,
		items: make(map[string]*list.Element),
		order: list.New(),
	}
}

func (c *Cache) Normalize(word string) (string, error) {
	c.mu.Lock()
	if el, ok := c.items[word]; ok {
		c.hits++
		c.order.MoveToFront(el)
		l := el.Value.(*cacheEntry).lemma
		c.mu.Unlock()
		return l, nil
	}
	c.miss++
	c.mu.Unlock()

	l, err := c.next.Normalize(word)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[word]; ok {
		c.order.MoveToFront(el)
		return l, nil
	}
	if c.order.Len() >= c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).word)
	}
	c.items[word] = c.order.PushFront(&cacheEntry{word: word, lemma: l})
	return l, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.miss
}
