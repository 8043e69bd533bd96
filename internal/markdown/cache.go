package markdown

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"
)

// Hash identifies a markdown source by content.
type Hash [32]byte

// HashSource returns the content hash of src.
func HashSource(src string) Hash {
	return blake3.Sum256([]byte(src))
}

type linesKey struct {
	hash  Hash
	width int
}

// Cache memoises parsed documents by content hash and rendered lines by
// content hash plus width. Cached values are shared; callers must treat
// them as read-only.
type Cache struct {
	renderer *Renderer
	docs     *lru.Cache[Hash, *Document]
	lines    *lru.Cache[linesKey, []Line]

	parses  int
	renders int
}

// NewCache returns a cache holding up to size documents and size rendered
// layouts.
func NewCache(r *Renderer, size int) *Cache {
	if size <= 0 {
		size = 256
	}
	docs, _ := lru.New[Hash, *Document](size)
	lines, _ := lru.New[linesKey, []Line](size)
	return &Cache{renderer: r, docs: docs, lines: lines}
}

// Document returns the parsed document for src, parsing it on first use.
func (c *Cache) Document(src string) *Document {
	return c.document(HashSource(src), src)
}

func (c *Cache) document(h Hash, src string) *Document {
	if doc, ok := c.docs.Get(h); ok {
		return doc
	}
	doc := Parse(src)
	c.parses++
	c.docs.Add(h, doc)
	return doc
}

// Lines returns src rendered at width.
func (c *Cache) Lines(src string, width int) []Line {
	h := HashSource(src)
	key := linesKey{hash: h, width: width}
	if lines, ok := c.lines.Get(key); ok {
		return lines
	}
	lines := c.renderer.Render(c.document(h, src), width)
	c.renders++
	c.lines.Add(key, lines)
	return lines
}

// Stats reports how many parses and layouts the cache has performed.
func (c *Cache) Stats() (parses, renders int) {
	return c.parses, c.renders
}
