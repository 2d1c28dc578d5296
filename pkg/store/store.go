// Package store holds the observable application state (loaded image
// metadata, selection, current collage) and the commands that change it.
package store

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"vision_collage/pkg/collage"
	"vision_collage/pkg/library"
	"vision_collage/pkg/loader"
	"vision_collage/pkg/metrics"
	"vision_collage/pkg/models"
	"vision_collage/pkg/selection"
)

const (
	DefaultPageLimit   = 9
	DefaultWarmWorkers = 4
	// New batches start on a random page in [1, randomPages].
	randomPages = 100
)

var (
	ErrUnknownImage = errors.New("image is not part of the loaded batch")
	ErrNoCollage    = errors.New("no collage has been generated")
)

// State is a snapshot of the store. Slices are copies; Collage is shared and
// must not be modified.
type State struct {
	Images   models.ImageInfoList
	Selected []string
	Collage  image.Image
	Page     int
}

type Options struct {
	PageLimit    int
	WarmWorkers  int
	MaxSelection int
	// RandomPage picks the page of a new batch; defaults to a uniform draw.
	RandomPage func() int
}

type Store struct {
	loader *loader.Loader
	lib    library.Library
	sel    *selection.Set
	// keeps a toggle and the matching cache pin together
	selMu  sync.Mutex
	reg    *metrics.Registry
	opts   Options

	mu      sync.RWMutex
	images  models.ImageInfoList
	page    int
	collage image.Image

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
	// serializes notifications so subscribers see snapshots in order
	notifyMu sync.Mutex
}

func New(l *loader.Loader, lib library.Library, reg *metrics.Registry, opts Options) *Store {
	if opts.PageLimit <= 0 {
		opts.PageLimit = DefaultPageLimit
	}
	if opts.WarmWorkers <= 0 {
		opts.WarmWorkers = DefaultWarmWorkers
	}
	if opts.RandomPage == nil {
		opts.RandomPage = func() int { return rand.Intn(randomPages) + 1 }
	}
	return &Store{
		loader: l,
		lib:    lib,
		sel:    selection.NewSet(opts.MaxSelection),
		reg:    reg,
		opts:   opts,
		subs:   make(map[int]func(State)),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	images := make(models.ImageInfoList, len(s.images))
	copy(images, s.images)
	return State{
		Images:   images,
		Selected: s.sel.IDs(),
		Collage:  s.collage,
		Page:     s.page,
	}
}

// Subscribe registers fn to receive a snapshot after every state change and
// returns a function that removes it. fn runs on the goroutine that made the
// change and must not call the store's commands.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	if len(fns) == 0 {
		return
	}

	st := s.Snapshot()
	for _, fn := range fns {
		fn(st)
	}
}

// LoadNewBatch replaces the loaded images with a page picked at random and
// resolves their images into the cache. It returns the new batch, empty if
// the fetch failed.
func (s *Store) LoadNewBatch(ctx context.Context) models.ImageInfoList {
	page := s.opts.RandomPage()
	list := s.loader.FetchMetadata(ctx, page, s.opts.PageLimit)

	s.mu.Lock()
	s.images = list
	s.page = page
	s.mu.Unlock()
	log.Ctx(ctx).Info().Int("page", page).Int("images", len(list)).Msg("new image batch loaded")
	s.notify()

	s.loader.Warm(ctx, list, s.opts.WarmWorkers)
	return list
}

// LoadMore appends the next page to the loaded images, skipping ids that
// are already present, and returns the entries that were added.
func (s *Store) LoadMore(ctx context.Context) models.ImageInfoList {
	s.mu.Lock()
	s.page++
	page := s.page
	s.mu.Unlock()

	list := s.loader.FetchMetadata(ctx, page, s.opts.PageLimit)

	s.mu.Lock()
	seen := make(map[string]struct{}, len(s.images))
	for _, info := range s.images {
		seen[info.ID] = struct{}{}
	}
	added := make(models.ImageInfoList, 0, len(list))
	for _, info := range list {
		if _, dup := seen[info.ID]; dup {
			continue
		}
		seen[info.ID] = struct{}{}
		added = append(added, info)
	}
	s.images = append(s.images, added...)
	s.mu.Unlock()

	log.Ctx(ctx).Info().Int("page", page).Int("added", len(added)).Msg("more images loaded")
	if len(added) > 0 {
		s.notify()
	}
	s.loader.Warm(ctx, added, s.opts.WarmWorkers)
	return added
}

// ToggleSelection selects or deselects a loaded image and reports whether it
// is selected afterwards. Selected images are pinned in the cache so later
// batches cannot evict them. Selecting beyond the cap returns
// selection.ErrSelectionFull and changes nothing.
func (s *Store) ToggleSelection(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	_, known := s.images.Find(id)
	s.mu.RUnlock()
	if !known && !s.sel.Contains(id) {
		return false, fmt.Errorf("%w: %s", ErrUnknownImage, id)
	}

	s.selMu.Lock()
	selected, err := s.sel.Toggle(id)
	if err == nil {
		if selected {
			s.loader.Pin(id)
		} else {
			s.loader.Unpin(id)
		}
	}
	s.selMu.Unlock()
	if err != nil {
		log.Ctx(ctx).Warn().Str("image_id", id).Int("max", s.sel.Max()).Msg("selection limit reached")
		return false, err
	}
	s.notify()
	return selected, nil
}

// GenerateCollage composes the cached images of the current selection and
// stores the result as the current collage. When none of the selected
// images is cached it returns collage.ErrNothingToCompose and keeps the
// previous collage.
func (s *Store) GenerateCollage(ctx context.Context, mode models.CollageMode) (image.Image, error) {
	ids := s.sel.IDs()
	images := s.loader.Cached(ctx, ids)

	type result struct {
		img *image.NRGBA
		err error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		img, err := collage.Compose(mode, images)
		done <- result{img, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if r.err != nil {
		if errors.Is(r.err, collage.ErrNothingToCompose) {
			log.Ctx(ctx).Info().Int("selected", len(ids)).Msg("nothing to compose")
		} else {
			log.Ctx(ctx).Error().Err(r.err).Str("mode", string(mode)).Msg("collage composition failed")
		}
		return nil, r.err
	}

	s.mu.Lock()
	s.collage = r.img
	s.mu.Unlock()

	log.Ctx(ctx).Info().
		Str("mode", string(mode)).
		Int("selected", len(ids)).
		Int("composed", len(images)).
		Dur("duration", time.Since(start)).
		Msg("collage generated")
	s.reg.Inc(ctx, "collages_generated_total", metrics.Labels{"mode": string(mode)}, 1)
	s.notify()
	return r.img, nil
}

// DiscardCollage drops the current collage.
func (s *Store) DiscardCollage() {
	s.mu.Lock()
	had := s.collage != nil
	s.collage = nil
	s.mu.Unlock()
	if had {
		s.notify()
	}
}

// SaveToLibrary writes the current collage to the photo library and returns
// the new asset id.
func (s *Store) SaveToLibrary(ctx context.Context) (string, error) {
	s.mu.RLock()
	img := s.collage
	s.mu.RUnlock()
	if img == nil {
		return "", ErrNoCollage
	}
	return library.Save(ctx, s.lib, img)
}

// RunAutoRefresh regenerates the collage every interval while something is
// selected, until ctx is done. A non-positive interval returns immediately.
func (s *Store) RunAutoRefresh(ctx context.Context, interval time.Duration, mode models.CollageMode) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.sel.Len() == 0 {
				continue
			}
			if _, err := s.GenerateCollage(ctx, mode); err != nil && !errors.Is(err, context.Canceled) {
				log.Ctx(ctx).Warn().Err(err).Msg("scheduled collage refresh skipped")
			}
		}
	}
}
