package enhance

import (
	"strconv"

	"github.com/agentic-research/enhimg/api"
)

// DefaultPlaceholderPrefix prefixes generated asset identifiers.
const DefaultPlaceholderPrefix = "__enhanced_asset_"

// Entry is one resolved key.
type Entry struct {
	// Placeholder names the asset import that stands in for a source the
	// pipeline does not transform.
	Placeholder string
	// ID is the module identifier the host resolved the key to.
	ID string
	// Path is the src value as written; non-optimizable imports use it.
	Path string
	// Variant is nil for non-optimizable sources.
	Variant *api.Variant
}

// Cache maps resolution keys to entries for a single document pass.
// Placeholders are numbered by cache size, so a Cache must not be shared
// between passes.
type Cache struct {
	prefix  string
	entries map[string]*Entry
}

func NewCache(prefix string) *Cache {
	if prefix == "" {
		prefix = DefaultPlaceholderPrefix
	}
	return &Cache{
		prefix:  prefix,
		entries: make(map[string]*Entry),
	}
}

// Get returns the entry for key.
func (c *Cache) Get(key string) (*Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Put assigns e the next placeholder and stores it under key.
func (c *Cache) Put(key string, e *Entry) *Entry {
	e.Placeholder = c.prefix + strconv.Itoa(len(c.entries))
	c.entries[key] = e
	return e
}

// Len reports the number of resolved keys.
func (c *Cache) Len() int { return len(c.entries) }
