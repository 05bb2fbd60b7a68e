package render

import (
	"sync"
	"text/template"

	"golang.org/x/sync/singleflight"
)

// compileCache maps script text to its compiled template.
type compileCache struct {
	limit int
	group singleflight.Group

	mu    sync.RWMutex
	items map[string]*template.Template
}

func newCompileCache(limit int) *compileCache {
	return &compileCache{limit: limit, items: make(map[string]*template.Template)}
}

// get returns the template for text, compiling it at most once across
// concurrent callers. hit reports whether it was already cached.
func (c *compileCache) get(text string, compile func(string) (*template.Template, error)) (t *template.Template, hit bool, err error) {
	c.mu.RLock()
	t, ok := c.items[text]
	c.mu.RUnlock()
	if ok {
		return t, true, nil
	}

	v, err, _ := c.group.Do(text, func() (any, error) {
		c.mu.RLock()
		t, ok := c.items[text]
		c.mu.RUnlock()
		if ok {
			return t, nil
		}

		t, err := compile(text)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if len(c.items) >= c.limit {
			// Evict an arbitrary entry.
			for k := range c.items {
				delete(c.items, k)
				break
			}
		}
		c.items[text] = t
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*template.Template), false, nil
}

func (c *compileCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *compileCache) reset() {
	c.mu.Lock()
	c.items = make(map[string]*template.Template)
	c.mu.Unlock()
}
