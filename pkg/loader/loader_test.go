package loader_test

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vision_collage/pkg/loader"
	"vision_collage/pkg/metrics"
	"vision_collage/pkg/models"
	imagerepo "vision_collage/pkg/repository/image"
)

// fakeSource counts downloads per URL. Downloads block until gate is closed.
type fakeSource struct {
	gate      chan struct{}
	downloads atomic.Int64
	fail      atomic.Bool

	list    models.ImageInfoList
	listErr error
}

func newFakeSource() *fakeSource {
	gate := make(chan struct{})
	close(gate)
	return &fakeSource{gate: gate}
}

func (f *fakeSource) List(ctx context.Context, page, limit int) (models.ImageInfoList, error) {
	return f.list, f.listErr
}

func (f *fakeSource) Download(ctx context.Context, url string) (image.Image, error) {
	f.downloads.Add(1)
	<-f.gate
	if f.fail.Load() {
		return nil, errors.New("connection reset")
	}
	return image.NewNRGBA(image.Rect(0, 0, 4, 4)), nil
}

func newLoader(t *testing.T, src loader.Source) (*loader.Loader, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	cache, err := imagerepo.NewMemoryCache(0, reg)
	require.NoError(t, err)
	return loader.New(src, cache, reg), reg
}

func TestResolveDeduplicatesConcurrentDownloads(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	l, _ := newLoader(t, src)

	const callers = 16
	var (
		wg      sync.WaitGroup
		results [callers]image.Image
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			img, ok := l.Resolve(context.Background(), "42", "http://img/42")
			if ok {
				results[i] = img
			}
		}(i)
	}

	require.Eventually(t, func() bool { return src.downloads.Load() == 1 }, time.Second, time.Millisecond)
	close(src.gate)
	wg.Wait()

	require.EqualValues(t, 1, src.downloads.Load())
	for i := range results {
		require.NotNil(t, results[i])
		require.Same(t, results[0], results[i])
	}
}

func TestResolveCacheHitSkipsNetwork(t *testing.T) {
	src := newFakeSource()
	l, _ := newLoader(t, src)

	first, ok := l.Resolve(context.Background(), "1", "http://img/1")
	require.True(t, ok)
	second, ok := l.Resolve(context.Background(), "1", "http://img/1")
	require.True(t, ok)

	require.Same(t, first, second)
	require.EqualValues(t, 1, src.downloads.Load())
}

func TestResolveCountsOneMissPerDownload(t *testing.T) {
	src := newFakeSource()
	l, reg := newLoader(t, src)

	_, ok := l.Resolve(context.Background(), "1", "http://img/1")
	require.True(t, ok)
	_, ok = l.Resolve(context.Background(), "1", "http://img/1")
	require.True(t, ok)

	require.EqualValues(t, 1, src.downloads.Load())
	require.EqualValues(t, 1, reg.Value("image_cache_lookups_total", metrics.Labels{"result": "miss"}))
	require.EqualValues(t, 1, reg.Value("image_cache_lookups_total", metrics.Labels{"result": "hit"}))
}

func TestPinnedImageOutlivesBoundedCache(t *testing.T) {
	src := newFakeSource()
	cache, err := imagerepo.NewMemoryCache(1, nil)
	require.NoError(t, err)
	l := loader.New(src, cache, nil)
	ctx := context.Background()

	l.Pin("a")
	a, ok := l.Resolve(ctx, "a", "http://img/a")
	require.True(t, ok)
	_, ok = l.Resolve(ctx, "b", "http://img/b")
	require.True(t, ok)

	got := l.Cached(ctx, []string{"a", "b"})
	require.Len(t, got, 1)
	require.Same(t, a, got[0])

	l.Unpin("a")
	_, ok = l.Resolve(ctx, "c", "http://img/c")
	require.True(t, ok)
	require.Empty(t, l.Cached(ctx, []string{"a"}))
}

func TestResolveFailureIsNotCachedAndLogged(t *testing.T) {
	src := newFakeSource()
	src.fail.Store(true)
	l, reg := newLoader(t, src)

	img, ok := l.Resolve(context.Background(), "1", "http://img/1")
	require.False(t, ok)
	require.Nil(t, img)
	require.EqualValues(t, 1, reg.Value("loader_failures_total", metrics.Labels{"op": "download"}))

	src.fail.Store(false)
	_, ok = l.Resolve(context.Background(), "1", "http://img/1")
	require.True(t, ok)
	require.EqualValues(t, 2, src.downloads.Load())
}

func TestResolveCallerCancellationDoesNotAbortDownload(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	l, _ := newLoader(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool)
	go func() {
		_, ok := l.Resolve(ctx, "7", "http://img/7")
		done <- ok
	}()

	require.Eventually(t, func() bool { return src.downloads.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	require.False(t, <-done)

	close(src.gate)
	require.Eventually(t, func() bool {
		return len(l.Cached(context.Background(), []string{"7"})) == 1
	}, time.Second, time.Millisecond)
	require.EqualValues(t, 1, src.downloads.Load())
}

func TestFetchMetadataDegradesToEmpty(t *testing.T) {
	src := newFakeSource()
	src.listErr = errors.New("dns failure")
	l, _ := newLoader(t, src)

	list := l.FetchMetadata(context.Background(), 1, 9)
	require.NotNil(t, list)
	require.Empty(t, list)

	src.listErr = nil
	src.list = models.ImageInfoList{{ID: "1", DownloadURL: "http://img/1"}}
	require.Equal(t, src.list, l.FetchMetadata(context.Background(), 1, 9))
}

func TestCachedKeepsOrderAndDropsMisses(t *testing.T) {
	src := newFakeSource()
	l, _ := newLoader(t, src)
	ctx := context.Background()

	a, _ := l.Resolve(ctx, "a", "http://img/a")
	c, _ := l.Resolve(ctx, "c", "http://img/c")

	got := l.Cached(ctx, []string{"c", "b", "a"})
	require.Len(t, got, 2)
	require.Same(t, c, got[0])
	require.Same(t, a, got[1])
}

func TestWarmResolvesBatch(t *testing.T) {
	src := newFakeSource()
	l, _ := newLoader(t, src)

	list := models.ImageInfoList{
		{ID: "1", DownloadURL: "http://img/1"},
		{ID: "2", DownloadURL: "http://img/2"},
		{ID: "1", DownloadURL: "http://img/1"},
	}
	require.Equal(t, 3, l.Warm(context.Background(), list, 2))
	require.EqualValues(t, 2, src.downloads.Load())
}
