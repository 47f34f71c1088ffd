// Copyright © 2024 The ELPS authors

package exprlang

import (
	"container/list"
	"sync"

	"github.com/expr-lang/expr/vm"
)

// DefaultCacheSize is the number of compiled programs an Evaluator keeps.
const DefaultCacheSize = 256

// programCache is a bounded LRU cache of compiled programs keyed by their
// source text.
type programCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]*list.Element
	lru     *list.List
	hits    int64
	misses  int64
}

type cacheEntry struct {
	source  string
	program *vm.Program
}

func newProgramCache(size int) *programCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &programCache{
		max:     size,
		entries: make(map[string]*list.Element, size),
		lru:     list.New(),
	}
}

func (c *programCache) get(source string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[source]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).program, true
}

func (c *programCache) put(source string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[source]; ok {
		elem.Value.(*cacheEntry).program = program
		c.lru.MoveToFront(elem)
		return
	}
	c.entries[source] = c.lru.PushFront(&cacheEntry{source: source, program: program})
	for c.lru.Len() > c.max {
		back := c.lru.Back()
		delete(c.entries, back.Value.(*cacheEntry).source)
		c.lru.Remove(back)
	}
}

func (c *programCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
