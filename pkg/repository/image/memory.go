package image

import (
	"context"
	"fmt"
	"image"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"vision_collage/pkg/metrics"
)

// MemoryCache is an in-memory Cache. With a positive size it evicts the
// least recently used unpinned image once full; with size 0 it never evicts.
type MemoryCache struct {
	bounded *lru.Cache[string, image.Image]

	// mu guards all, pins and pinned. Lock order: mu, then the lru's lock.
	mu     sync.Mutex
	all    map[string]image.Image
	pins   map[string]struct{}
	pinned map[string]image.Image

	reg *metrics.Registry
}

// NewMemoryCache creates an empty cache holding at most size unpinned images.
func NewMemoryCache(size int, reg *metrics.Registry) (*MemoryCache, error) {
	if size < 0 {
		return nil, fmt.Errorf("cache size must not be negative, got %d", size)
	}
	c := &MemoryCache{
		pins:   make(map[string]struct{}),
		pinned: make(map[string]image.Image),
		reg:    reg,
	}
	if size == 0 {
		c.all = make(map[string]image.Image)
		return c, nil
	}

	bounded, err := lru.NewWithEvict(size, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	c.bounded = bounded
	return c, nil
}

func (c *MemoryCache) Get(ctx context.Context, id string) (image.Image, bool) {
	c.mu.Lock()
	img, ok := c.pinned[id]
	if !ok {
		if c.bounded != nil {
			img, ok = c.bounded.Get(id)
		} else {
			img, ok = c.all[id]
		}
	}
	c.mu.Unlock()

	result := "miss"
	if ok {
		result = "hit"
	}
	c.reg.Inc(ctx, "image_cache_lookups_total", metrics.Labels{"result": result}, 1)
	return img, ok
}

func (c *MemoryCache) Peek(id string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if img, ok := c.pinned[id]; ok {
		return img, true
	}
	if c.bounded != nil {
		return c.bounded.Peek(id)
	}
	img, ok := c.all[id]
	return img, ok
}

func (c *MemoryCache) Put(ctx context.Context, id string, img image.Image) {
	if img == nil {
		return
	}
	c.mu.Lock()
	if _, ok := c.pins[id]; ok {
		c.pinned[id] = img
	}
	if c.bounded != nil {
		c.bounded.Add(id, img)
	} else {
		c.all[id] = img
	}
	c.mu.Unlock()

	b := img.Bounds()
	log.Ctx(ctx).Debug().Str("image_id", id).Int("width", b.Dx()).Int("height", b.Dy()).Msg("image cached")
	c.reg.Inc(ctx, "image_cache_stored_total", nil, 1)
}

func (c *MemoryCache) Delete(ctx context.Context, id string) {
	c.mu.Lock()
	_, ok := c.pinned[id]
	delete(c.pinned, id)
	if c.bounded != nil {
		ok = c.bounded.Remove(id) || ok
	} else {
		_, inAll := c.all[id]
		ok = ok || inAll
		delete(c.all, id)
	}
	c.mu.Unlock()
	if ok {
		log.Ctx(ctx).Debug().Str("image_id", id).Msg("image removed from cache")
	}
}

func (c *MemoryCache) Pin(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pins[id] = struct{}{}
	if c.bounded != nil {
		if img, ok := c.bounded.Peek(id); ok {
			c.pinned[id] = img
		}
	}
}

// Unpin releases id. Its image stays cached until the lru evicts it.
func (c *MemoryCache) Unpin(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.pinned[id]
	delete(c.pins, id)
	delete(c.pinned, id)
	if ok && c.bounded != nil && !c.bounded.Contains(id) {
		c.bounded.Add(id, img)
	}
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.all)
	if c.bounded != nil {
		n = c.bounded.Len()
		for id := range c.pinned {
			if !c.bounded.Contains(id) {
				n++
			}
		}
	}
	return n
}

// onEvict runs under the lru lock; it must not take mu or call back into
// the cache. Pinned images survive eviction in the pinned map.
func (c *MemoryCache) onEvict(id string, _ image.Image) {
	log.Debug().Str("image_id", id).Msg("image evicted from cache")
	c.reg.Inc(context.Background(), "image_cache_evictions_total", nil, 1)
}
