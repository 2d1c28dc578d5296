package image

import (
	"context"
	"image"
)

// Cache holds decoded images keyed by their Picsum id.
type Cache interface {
	// Get returns the cached image for id. The boolean indicates presence.
	Get(ctx context.Context, id string) (image.Image, bool)
	// Peek is Get without recency or metric side effects.
	Peek(id string) (image.Image, bool)
	// Put stores img under id, replacing any previous entry.
	Put(ctx context.Context, id string, img image.Image)
	// Delete removes id from the cache.
	Delete(ctx context.Context, id string)
	// Pin keeps id's image from being evicted, including an image stored
	// after the call. Unpin releases it.
	Pin(id string)
	Unpin(id string)
	// Len reports the number of cached images.
	Len() int
}
