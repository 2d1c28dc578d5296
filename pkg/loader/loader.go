// Package loader fetches Picsum metadata and resolves images through an
// in-memory cache, collapsing concurrent downloads of the same id into one.
package loader

import (
	"context"
	"image"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"vision_collage/pkg/metrics"
	"vision_collage/pkg/models"
	imagerepo "vision_collage/pkg/repository/image"
)

// Source is the remote side of the loader. *picsum.Client implements it.
type Source interface {
	List(ctx context.Context, page, limit int) (models.ImageInfoList, error)
	Download(ctx context.Context, url string) (image.Image, error)
}

type Loader struct {
	src   Source
	cache imagerepo.Cache
	reg   *metrics.Registry

	// keyed by image id; an entry exists only while its download is in flight
	pending singleflight.Group
}

func New(src Source, cache imagerepo.Cache, reg *metrics.Registry) *Loader {
	return &Loader{src: src, cache: cache, reg: reg}
}

// FetchMetadata returns one page of image metadata. Failures are logged and
// yield an empty list.
func (l *Loader) FetchMetadata(ctx context.Context, page, limit int) models.ImageInfoList {
	list, err := l.src.List(ctx, page, limit)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int("page", page).Int("limit", limit).Msg("image list fetch failed")
		l.reg.Inc(ctx, "loader_failures_total", metrics.Labels{"op": "list"}, 1)
		return models.ImageInfoList{}
	}
	return list
}

// Resolve returns the decoded image for id, downloading it from url on a
// cache miss. At most one download per id is in flight at any time; callers
// arriving while it runs wait for and share its result. The download itself
// is not tied to ctx: a caller whose ctx ends stops waiting, the others keep
// theirs.
func (l *Loader) Resolve(ctx context.Context, id, url string) (image.Image, bool) {
	if img, ok := l.cache.Get(ctx, id); ok {
		return img, true
	}

	dctx := context.WithoutCancel(ctx)
	ch := l.pending.DoChan(id, func() (any, error) {
		// A flight for id may have finished between the miss above and now.
		if img, ok := l.cache.Peek(id); ok {
			return img, nil
		}
		l.reg.Inc(dctx, "loader_downloads_total", nil, 1)
		img, err := l.src.Download(dctx, url)
		if err != nil {
			return nil, err
		}
		l.cache.Put(dctx, id, img)
		return img, nil
	})

	select {
	case r := <-ch:
		if r.Shared {
			l.reg.Inc(ctx, "loader_shared_results_total", nil, 1)
		}
		if r.Err != nil {
			log.Ctx(ctx).Error().Err(r.Err).Str("image_id", id).Str("url", url).Msg("image download failed")
			l.reg.Inc(ctx, "loader_failures_total", metrics.Labels{"op": "download"}, 1)
			return nil, false
		}
		img, ok := r.Val.(image.Image)
		return img, ok && img != nil
	case <-ctx.Done():
		log.Ctx(ctx).Warn().Err(ctx.Err()).Str("image_id", id).Msg("stopped waiting for image download")
		return nil, false
	}
}

// Pin keeps id's image cached until Unpin, including an image that is
// downloaded after the call.
func (l *Loader) Pin(id string) { l.cache.Pin(id) }

func (l *Loader) Unpin(id string) { l.cache.Unpin(id) }

// Cached returns the cached images for ids in order. Ids without a cached
// image are skipped.
func (l *Loader) Cached(ctx context.Context, ids []string) []image.Image {
	out := make([]image.Image, 0, len(ids))
	for _, id := range ids {
		if img, ok := l.cache.Get(ctx, id); ok {
			out = append(out, img)
		}
	}
	return out
}

// Warm resolves every entry of list using at most workers concurrent
// downloads and returns how many images ended up available.
func (l *Loader) Warm(ctx context.Context, list models.ImageInfoList, workers int) int {
	if workers < 1 {
		workers = 1
	}
	resolved := make([]bool, len(list))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, info := range list {
		i, info := i, info
		g.Go(func() error {
			_, resolved[i] = l.Resolve(ctx, info.ID, info.DownloadURL)
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range resolved {
		if ok {
			n++
		}
	}
	log.Ctx(ctx).Debug().Int("requested", len(list)).Int("resolved", n).Msg("image batch warmed")
	return n
}
